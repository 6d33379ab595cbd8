package incidentstore_test

import (
	"errors"
	"testing"
	"time"

	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestReplace_Versioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := incidentstore.New(db)
	in, err := store.Create(ctx, testutil.NewIncident("flood"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stale := in
	now := time.Now().UTC()
	o := testutil.NewOfficer("Ana", "medical")
	in.AddOfficers(now, o.Summary(models.NewAssignment(in.ID, "north", now)))

	saved, err := store.Replace(ctx, in)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if saved.Version != 1 {
		t.Errorf("Version = %d, want 1", saved.Version)
	}

	got, err := store.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.AssignedOfficers) != 1 || got.AssignedOfficers[0].RiskZone != "north" {
		t.Errorf("AssignedOfficers = %+v", got.AssignedOfficers)
	}

	if _, err := store.Replace(ctx, stale); !errors.Is(err, apperr.ErrVersionConflict) {
		t.Errorf("stale Replace err = %v, want ErrVersionConflict", err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID miss err = %v, want ErrNoDocuments", err)
	}
}

func TestList_ByReporter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := incidentstore.New(db)
	mine := testutil.NewIncident("mine")
	mine.ReporterID = "r-1"
	other := testutil.NewIncident("other")
	other.ReporterID = "r-2"
	for _, in := range []models.Incident{mine, other} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d incidents, want 2", len(all))
	}

	got, err := store.List(ctx, "r-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("expected only r-1's incident, got %d", len(got))
	}
}

func TestIDsWithAssignedOfficers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := incidentstore.New(db)
	empty := testutil.NewIncident("empty")
	staffed := testutil.NewIncident("staffed")
	now := time.Now().UTC()
	o := testutil.NewOfficer("Ben", "rescue")
	staffed.AddOfficers(now, o.Summary(models.NewAssignment(staffed.ID, "east", now)))
	for _, in := range []models.Incident{empty, staffed} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	ids, err := store.IDsWithAssignedOfficers(ctx)
	if err != nil {
		t.Fatalf("IDsWithAssignedOfficers failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != staffed.ID {
		t.Errorf("ids = %v, want [%s]", ids, staffed.ID.Hex())
	}
}
