package indexes_test

import (
	"testing"

	"github.com/dalemusser/guardian/internal/app/system/indexes"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode index failed: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		collection string
		want       []string
	}{
		{"officers", []string{
			"idx_officers_type_status_created",
			"idx_officers_status_created",
			"idx_officers_assignment_incident_status",
		}},
		{"incidents", []string{
			"idx_incidents_reporter_created",
			"idx_incidents_assigned_officer",
		}},
		{"audit_events", []string{
			"idx_audit_timestamp",
			"idx_audit_officer_timestamp",
			"idx_audit_incident_timestamp",
			"idx_audit_category_type_timestamp",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			names := indexNames(t, db, tt.collection)
			for _, n := range tt.want {
				if !names[n] {
					t.Errorf("missing index %s on %s", n, tt.collection)
				}
			}
		})
	}
}

func TestEnsureAll_RenamesExistingIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("incidents").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "assignedOfficers.officerId", Value: 1}},
		Options: options.Index().SetName("legacy_officer_idx"),
	})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "incidents")
	if names["legacy_officer_idx"] {
		t.Error("legacy index should have been replaced")
	}
	if !names["idx_incidents_assigned_officer"] {
		t.Error("expected idx_incidents_assigned_officer")
	}
}
