// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Dispatch controls logging for assignment events (assign, unassign, bulk, reconcile, publish failures).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Dispatch string
	// Roster controls logging for officer record changes (create, status).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Roster string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when no setting uses the database.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.OfficerID != nil {
		fields = append(fields, zap.String("officer_id", event.OfficerID.Hex()))
	}
	if event.IncidentID != nil {
		fields = append(fields, zap.String("incident_id", event.IncidentID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryDispatch:
		setting = l.config.Dispatch
	case audit.CategoryRoster:
		setting = l.config.Roster
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// --- Dispatch Events ---

// OfficerAssigned logs a committed single assignment.
func (l *Logger) OfficerAssigned(ctx context.Context, officerID, incidentID, assignmentID primitive.ObjectID, riskZone string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryDispatch,
		EventType:  audit.EventOfficerAssigned,
		OfficerID:  &officerID,
		IncidentID: &incidentID,
		Success:    true,
		Details: map[string]string{
			"assignment_id": assignmentID.Hex(),
			"risk_zone":     riskZone,
		},
	})
}

// OfficerUnassigned logs an unassign and how many assignments it cancelled.
func (l *Logger) OfficerUnassigned(ctx context.Context, officerID, incidentID primitive.ObjectID, cancelled int) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryDispatch,
		EventType:  audit.EventOfficerUnassigned,
		OfficerID:  &officerID,
		IncidentID: &incidentID,
		Success:    true,
		Details: map[string]string{
			"cancelled": strconv.Itoa(cancelled),
		},
	})
}

// OfficersBulkAssigned logs the outcome of a bulk assignment.
func (l *Logger) OfficersBulkAssigned(ctx context.Context, incidentID primitive.ObjectID, riskZone string, assigned, skipped, failed int) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryDispatch,
		EventType:  audit.EventOfficersBulkAssigned,
		IncidentID: &incidentID,
		Success:    failed == 0,
		Details: map[string]string{
			"risk_zone": riskZone,
			"assigned":  strconv.Itoa(assigned),
			"skipped":   strconv.Itoa(skipped),
			"failed":    strconv.Itoa(failed),
		},
	})
}

// BulkAssignItemFailed logs one officer a bulk assignment could not write.
func (l *Logger) BulkAssignItemFailed(ctx context.Context, incidentID, officerID primitive.ObjectID, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryDispatch,
		EventType:     audit.EventBulkAssignItemFailed,
		OfficerID:     &officerID,
		IncidentID:    &incidentID,
		Success:       false,
		FailureReason: errString(err),
	})
}

// IncidentCleanupFailed logs an unassign whose incident-side removal did not happen.
func (l *Logger) IncidentCleanupFailed(ctx context.Context, officerID, incidentID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryDispatch,
		EventType:     audit.EventIncidentCleanupFailed,
		OfficerID:     &officerID,
		IncidentID:    &incidentID,
		Success:       false,
		FailureReason: reason,
	})
}

// PublishFailed logs an event that did not reach every sink. The state
// change it describes is already committed.
func (l *Logger) PublishFailed(ctx context.Context, event, eventID string, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryDispatch,
		EventType:     audit.EventPublishFailed,
		Success:       false,
		FailureReason: errString(err),
		Details: map[string]string{
			"event":    event,
			"event_id": eventID,
		},
	})
}

// IncidentReconciled logs summaries added or dropped to match officer records.
func (l *Logger) IncidentReconciled(ctx context.Context, incidentID primitive.ObjectID, added, removed int) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryDispatch,
		EventType:  audit.EventIncidentReconciled,
		IncidentID: &incidentID,
		Success:    true,
		Details: map[string]string{
			"added":   strconv.Itoa(added),
			"removed": strconv.Itoa(removed),
		},
	})
}

// --- Roster Events ---

// OfficerCreated logs a new officer record.
func (l *Logger) OfficerCreated(ctx context.Context, officerID primitive.ObjectID, name, officerType string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRoster,
		EventType: audit.EventOfficerCreated,
		OfficerID: &officerID,
		Success:   true,
		Details: map[string]string{
			"name": name,
			"type": officerType,
		},
	})
}

// OfficerStatusChanged logs an explicit status update.
func (l *Logger) OfficerStatusChanged(ctx context.Context, officerID primitive.ObjectID, from, to string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRoster,
		EventType: audit.EventOfficerStatusChanged,
		OfficerID: &officerID,
		Success:   true,
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	})
}
