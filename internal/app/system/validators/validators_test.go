package validators_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/validators"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"officers", "incidents", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %s to exist", want)
		}
	}
}

func TestOfficersSchema_RejectsBadDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	valid := bson.M{
		"_id":    primitive.NewObjectID(),
		"name":   "Ana",
		"type":   "medical",
		"phone":  "555-0100",
		"status": "available",
		"currentAssignments": bson.A{
			bson.M{"incidentId": primitive.NewObjectID().Hex(), "riskZone": "north", "assignedAt": now, "status": "active"},
		},
		"__v": int64(0),
	}

	tests := []struct {
		name    string
		mutate  func(bson.M)
		wantErr bool
	}{
		{"valid", func(bson.M) {}, false},
		{"missing phone", func(d bson.M) { delete(d, "phone") }, true},
		{"blank name", func(d bson.M) { d["name"] = "   " }, true},
		{"unknown status", func(d bson.M) { d["status"] = "busy" }, true},
		{"bad assignment status", func(d bson.M) {
			d["currentAssignments"] = bson.A{bson.M{"incidentId": "x", "riskZone": "n", "status": "done"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := bson.M{}
			for k, v := range valid {
				doc[k] = v
			}
			doc["_id"] = primitive.NewObjectID()
			tt.mutate(doc)

			_, err := db.Collection("officers").InsertOne(ctx, doc)
			if tt.wantErr {
				var we mongo.WriteException
				if err == nil || !errors.As(err, &we) {
					t.Errorf("expected validation failure, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("InsertOne failed: %v", err)
			}
		})
	}
}

func TestIncidentsSchema_RequiresObjectIDOfficer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("incidents").InsertOne(ctx, bson.M{
		"assignedOfficers": bson.A{bson.M{"officerId": "not-an-oid", "riskZone": "north"}},
	})
	if err == nil {
		t.Error("expected string officerId to be rejected")
	}

	_, err = db.Collection("incidents").InsertOne(ctx, bson.M{
		"assignedOfficers": bson.A{bson.M{"officerId": primitive.NewObjectID(), "riskZone": "north"}},
	})
	if err != nil {
		t.Errorf("InsertOne failed: %v", err)
	}
}
