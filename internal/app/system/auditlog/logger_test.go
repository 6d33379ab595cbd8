package auditlog_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	"github.com/dalemusser/guardian/internal/app/system/auditlog"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.OfficerAssigned(ctx, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "north")
	logger.PublishFailed(ctx, "officer-assigned", "id", errors.New("boom"))
}

func TestLogger_LogOnly_NilStore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Dispatch: "all", Roster: "log"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	officerID := primitive.NewObjectID()
	logger.OfficerStatusChanged(ctx, officerID, "available", "unavailable")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["officer_id"] != officerID.Hex() {
		t.Errorf("officer_id = %v", fields["officer_id"])
	}
	if fields["detail_to"] != "unavailable" {
		t.Errorf("detail_to = %v", fields["detail_to"])
	}
}

func TestLogger_FailuresLogAtWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Dispatch: "log"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.IncidentCleanupFailed(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "incident not found")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Dispatch: "off", Roster: "off"})

	officerID := primitive.NewObjectID()
	logger.OfficerCreated(ctx, officerID, "Ana", "medical")

	events, err := store.GetByOfficer(ctx, officerID, 10)
	if err != nil {
		t.Fatalf("GetByOfficer failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Dispatch: "db", Roster: "db"})

	officerID := primitive.NewObjectID()
	incidentID := primitive.NewObjectID()
	logger.OfficerUnassigned(ctx, officerID, incidentID, 2)

	events, err := store.GetByOfficer(ctx, officerID, 10)
	if err != nil {
		t.Fatalf("GetByOfficer failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventOfficerUnassigned {
		t.Errorf("event_type = %q", events[0].EventType)
	}
	if events[0].Details["cancelled"] != "2" {
		t.Errorf("cancelled = %q", events[0].Details["cancelled"])
	}
}
