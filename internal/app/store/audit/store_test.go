package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	officerID := primitive.NewObjectID()
	incidentID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:   audit.CategoryDispatch,
		EventType:  audit.EventOfficerAssigned,
		OfficerID:  &officerID,
		IncidentID: &incidentID,
		Success:    true,
		Details:    map[string]string{"risk_zone": "north"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByOfficer(ctx, officerID, 10)
	if err != nil {
		t.Fatalf("GetByOfficer failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["risk_zone"] != "north" {
		t.Errorf("risk_zone detail = %q", events[0].Details["risk_zone"])
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
}

func TestStore_Log_AutoSetsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryDispatch, EventType: audit.EventPublishFailed}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ts := events[0].Timestamp
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestStore_QueryAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	incidentID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for _, ev := range []audit.Event{
		{Category: audit.CategoryDispatch, EventType: audit.EventOfficerAssigned, IncidentID: &incidentID, Success: true},
		{Category: audit.CategoryDispatch, EventType: audit.EventOfficerUnassigned, IncidentID: &incidentID, Success: true},
		{Category: audit.CategoryDispatch, EventType: audit.EventOfficerAssigned, IncidentID: &other, Success: true},
		{Category: audit.CategoryRoster, EventType: audit.EventOfficerCreated, Success: true},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int64
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by incident", audit.QueryFilter{IncidentID: &incidentID}, 2},
		{"by type", audit.QueryFilter{EventType: audit.EventOfficerAssigned}, 2},
		{"by category", audit.QueryFilter{Category: audit.CategoryRoster}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.CountByFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("count = %d, want %d", n, tt.want)
			}
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if int64(len(events)) != tt.want {
				t.Errorf("len(Query) = %d, want %d", len(events), tt.want)
			}
		})
	}
}
