package dispatch

import (
	"context"
	"errors"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// UnassignResult is the state after Unassign.
type UnassignResult struct {
	Officer models.Officer
	// Cancelled is how many active assignments were cancelled.
	Cancelled int
	// IncidentUpdated is false when the incident side was missing, had no
	// summaries for the officer, or could not be written.
	IncidentUpdated bool
}

// Unassign cancels every active assignment the officer holds on the
// incident and recomputes its status.
//
// The officer write is authoritative. Removing the officer's summaries from
// the incident afterwards is best effort: its failure is logged and audited
// but does not fail the call.
func (c *Coordinator) Unassign(ctx context.Context, officerID, incidentID string) (res UnassignResult, err error) {
	ctx, span, start := c.startSpan(ctx, "unassign")
	defer func() { c.finish(span, "unassign", start, err) }()

	iid, err := parseID("incidentId", incidentID)
	if err != nil {
		return UnassignResult{}, err
	}
	oid, err := parseID("officerId", officerID)
	if err != nil {
		return UnassignResult{}, err
	}
	span.SetAttributes(
		attribute.String("officer.id", oid.Hex()),
		attribute.String("incident.id", iid.Hex()),
	)

	var cancelled int
	officer, err := c.mutateOfficer(ctx, oid, func(o *models.Officer) error {
		cancelled = o.CancelAssignments(iid.Hex(), c.now())
		return nil
	})
	if err != nil {
		return UnassignResult{}, err
	}
	res = UnassignResult{Officer: officer, Cancelled: cancelled}

	res.IncidentUpdated = c.removeFromIncident(ctx, oid, iid)

	c.audit.OfficerUnassigned(ctx, oid, iid, cancelled)
	c.publish(ctx, events.OfficerUnassigned, events.OfficerUnassignedPayload{
		Officer:    officer.Clone(),
		IncidentID: incidentID,
	})

	return res, nil
}

// removeFromIncident drops every summary for the officer and reports whether
// the incident was written.
func (c *Coordinator) removeFromIncident(ctx context.Context, oid, iid primitive.ObjectID) bool {
	removed := 0
	_, err := c.mutateIncident(ctx, iid, func(in *models.Incident) error {
		removed = in.RemoveOfficer(oid, c.now())
		if removed == 0 {
			return errUnchanged
		}
		return nil
	})

	switch {
	case errors.Is(err, apperr.NotFound):
		c.log.Info("unassign: incident not found, skipping cleanup",
			zap.String("officer_id", oid.Hex()),
			zap.String("incident_id", iid.Hex()))
		c.audit.IncidentCleanupFailed(ctx, oid, iid, "incident not found")
		return false
	case err != nil:
		c.log.Warn("unassign: incident cleanup failed",
			zap.String("officer_id", oid.Hex()),
			zap.String("incident_id", iid.Hex()),
			zap.Error(err))
		c.audit.IncidentCleanupFailed(ctx, oid, iid, err.Error())
		return false
	}
	return removed > 0
}
