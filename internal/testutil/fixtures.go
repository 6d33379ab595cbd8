package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewOfficer returns an available officer with no assignments.
func NewOfficer(name, officerType string) models.Officer {
	now := time.Now().UTC()
	return models.Officer{
		ID:                 primitive.NewObjectID(),
		Name:               name,
		Type:               officerType,
		OrganizationName:   "Test Response Unit",
		Phone:              "555-0100",
		Location:           models.Location{Address: "1 Test Street"},
		Skills:             []string{},
		EquipmentAvailable: []string{},
		Status:             models.OfficerAvailable,
		CurrentAssignments: []models.Assignment{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// NewIncident returns an incident with an empty assignedOfficers list.
func NewIncident(description string) models.Incident {
	now := time.Now().UTC()
	return models.Incident{
		ID:               primitive.NewObjectID(),
		Type:             "flood",
		Description:      description,
		Location:         models.Location{Address: "River Road"},
		Severity:         "high",
		Status:           "open",
		ReporterID:       "reporter-1",
		AssignedOfficers: []models.AssignedOfficer{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Fixtures provides helper methods for creating test data in MongoDB.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOfficer inserts an available officer.
func (f *Fixtures) CreateOfficer(ctx context.Context, name, officerType string) models.Officer {
	f.t.Helper()

	o := NewOfficer(name, officerType)
	if _, err := f.db.Collection("officers").InsertOne(ctx, o); err != nil {
		f.t.Fatalf("failed to create test officer: %v", err)
	}
	return o
}

// CreateIncident inserts an incident with no assigned officers.
func (f *Fixtures) CreateIncident(ctx context.Context, description string) models.Incident {
	f.t.Helper()

	in := NewIncident(description)
	if _, err := f.db.Collection("incidents").InsertOne(ctx, in); err != nil {
		f.t.Fatalf("failed to create test incident: %v", err)
	}
	return in
}
