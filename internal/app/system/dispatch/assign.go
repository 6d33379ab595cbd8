package dispatch

import (
	"context"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AssignResult is the state after Assign. On a PartialFailure Officer holds
// the committed officer and Incident the incident as last read.
type AssignResult struct {
	Officer  models.Officer
	Incident models.Incident
}

// Assign puts an officer on a risk zone of an incident.
//
// The officer gains an active assignment and moves from available to
// assigned (assigned and unavailable are left alone); the incident gains a
// summary carrying the same id. Repeating the call adds another assignment.
// If the officer write lands but the incident write fails the error is a
// PartialFailure naming the incident, and the officer keeps the assignment.
func (c *Coordinator) Assign(ctx context.Context, officerID, incidentID, riskZone string) (res AssignResult, err error) {
	ctx, span, start := c.startSpan(ctx, "assign")
	defer func() { c.finish(span, "assign", start, err) }()

	iid, err := parseID("incidentId", incidentID)
	if err != nil {
		return AssignResult{}, err
	}
	if err := requireZone(riskZone); err != nil {
		return AssignResult{}, err
	}
	oid, err := parseID("officerId", officerID)
	if err != nil {
		return AssignResult{}, err
	}
	span.SetAttributes(
		attribute.String("officer.id", oid.Hex()),
		attribute.String("incident.id", iid.Hex()),
		attribute.String("risk_zone", riskZone),
	)

	current, err := c.incidents.GetByID(ctx, iid)
	if err != nil {
		return AssignResult{}, loadErr("incident", iid, err)
	}

	var assignment models.Assignment
	officer, err := c.mutateOfficer(ctx, oid, func(o *models.Officer) error {
		now := c.now()
		assignment = models.NewAssignment(iid, riskZone, now)
		o.AddAssignment(assignment, now)
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}

	summary := officer.Summary(assignment)
	incident, err := c.mutateIncident(ctx, iid, func(in *models.Incident) error {
		if hasSummary(in, summary.ID) {
			return errUnchanged
		}
		in.AddOfficers(c.now(), summary)
		return nil
	})
	if err != nil {
		c.log.Error("officer assigned but incident not updated",
			zap.String("officer_id", oid.Hex()),
			zap.String("incident_id", iid.Hex()),
			zap.String("assignment_id", assignment.ID.Hex()),
			zap.Error(err))
		perr := apperr.Partial("officer assigned but incident not updated", err)
		perr.Field = "incident"
		perr.ID = iid.Hex()
		return AssignResult{Officer: officer, Incident: current}, perr
	}

	c.audit.OfficerAssigned(ctx, oid, iid, assignment.ID, riskZone)
	c.publish(ctx, events.OfficerAssigned, events.OfficerAssignedPayload{
		Officer:  officer.Clone(),
		Incident: incident.Clone(),
	})

	return AssignResult{Officer: officer, Incident: incident}, nil
}

// hasSummary reports whether the incident already lists the summary for
// assignment id. It guards against a reconcile pass adding the summary
// between the officer write and the incident write.
func hasSummary(in *models.Incident, id primitive.ObjectID) bool {
	for _, e := range in.AssignedOfficers {
		if e.ID == id {
			return true
		}
	}
	return false
}
