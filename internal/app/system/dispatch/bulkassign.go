package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Bulk item outcomes.
const (
	OutcomeAssigned = "assigned"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// BulkItem is the outcome for one requested officer id.
type BulkItem struct {
	OfficerID string `json:"officerId"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// BulkAssignResult is what BulkAssign committed.
type BulkAssignResult struct {
	// AssignedOfficers holds the summaries added to the incident, in request order.
	AssignedOfficers []models.AssignedOfficer
	Incident         models.Incident
	// Items has one entry per requested id, in request order.
	Items []BulkItem
	// Skipped lists ids that did not resolve to an officer.
	Skipped []string
}

// Failed returns the items whose write did not land.
func (r BulkAssignResult) Failed() []BulkItem {
	var out []BulkItem
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			out = append(out, it)
		}
	}
	return out
}

// BulkAssign assigns several officers to one risk zone of an incident.
//
// Officers are written one by one in request order; unknown ids are skipped.
// A failed officer write does not stop the batch. The incident is then
// written once with the summaries of the officers that landed and a single
// event is published. Nothing is rolled back: if any officer failed, or the
// incident write failed after officers landed, the result comes back with a
// PartialFailure. If officers failed and none landed the error is a plain
// StoreFailure and the incident is untouched.
func (c *Coordinator) BulkAssign(ctx context.Context, incidentID string, officerIDs []string, riskZone string) (res BulkAssignResult, err error) {
	ctx, span, start := c.startSpan(ctx, "bulk_assign")
	defer func() { c.finish(span, "bulk_assign", start, err) }()

	iid, err := parseID("incidentId", incidentID)
	if err != nil {
		return BulkAssignResult{}, err
	}
	if len(officerIDs) == 0 {
		return BulkAssignResult{}, apperr.Invalid("officerIds", "officerIds must be a non-empty list")
	}
	if err := requireZone(riskZone); err != nil {
		return BulkAssignResult{}, err
	}
	oids := make([]primitive.ObjectID, len(officerIDs))
	for i, raw := range officerIDs {
		oid, err := parseID("officerIds", raw)
		if err != nil {
			return BulkAssignResult{}, err
		}
		oids[i] = oid
	}
	span.SetAttributes(
		attribute.String("incident.id", iid.Hex()),
		attribute.String("risk_zone", riskZone),
		attribute.Int("officers", len(oids)),
	)

	incident, err := c.incidents.GetByID(ctx, iid)
	if err != nil {
		return BulkAssignResult{}, loadErr("incident", iid, err)
	}

	res = BulkAssignResult{
		AssignedOfficers: []models.AssignedOfficer{},
		Items:            make([]BulkItem, 0, len(oids)),
		Skipped:          []string{},
	}
	var failures []error

	for _, oid := range oids {
		var assignment models.Assignment
		officer, err := c.mutateOfficer(ctx, oid, func(o *models.Officer) error {
			now := c.now()
			assignment = models.NewAssignment(iid, riskZone, now)
			o.AddAssignment(assignment, now)
			return nil
		})

		switch {
		case err == nil:
			res.AssignedOfficers = append(res.AssignedOfficers, officer.Summary(assignment))
			res.Items = append(res.Items, BulkItem{OfficerID: oid.Hex(), Outcome: OutcomeAssigned})
			c.metrics.BulkItem(OutcomeAssigned)
		case errors.Is(err, apperr.NotFound):
			res.Skipped = append(res.Skipped, oid.Hex())
			res.Items = append(res.Items, BulkItem{OfficerID: oid.Hex(), Outcome: OutcomeSkipped})
			c.metrics.BulkItem(OutcomeSkipped)
		default:
			failures = append(failures, err)
			res.Items = append(res.Items, BulkItem{OfficerID: oid.Hex(), Outcome: OutcomeFailed, Error: err.Error(), Err: err})
			c.metrics.BulkItem(OutcomeFailed)
			c.audit.BulkAssignItemFailed(ctx, iid, oid, err)
			c.log.Warn("bulk assign: officer write failed",
				zap.String("officer_id", oid.Hex()),
				zap.String("incident_id", iid.Hex()),
				zap.Error(err))
		}
	}

	if len(failures) > 0 && len(res.AssignedOfficers) == 0 {
		res.Incident = incident
		return res, apperr.Store("bulk assign failed", iid.Hex(), errors.Join(failures...))
	}

	res.Incident = incident
	if len(res.AssignedOfficers) > 0 {
		updated, err := c.mutateIncident(ctx, iid, func(in *models.Incident) error {
			var add []models.AssignedOfficer
			for _, s := range res.AssignedOfficers {
				if !hasSummary(in, s.ID) {
					add = append(add, s)
				}
			}
			if len(add) == 0 {
				return errUnchanged
			}
			in.AddOfficers(c.now(), add...)
			return nil
		})
		if err != nil {
			c.log.Error("bulk assign: officers assigned but incident not updated",
				zap.String("incident_id", iid.Hex()),
				zap.Int("assigned", len(res.AssignedOfficers)),
				zap.Error(err))
			c.audit.OfficersBulkAssigned(ctx, iid, riskZone, len(res.AssignedOfficers), len(res.Skipped), len(failures))
			return res, apperr.Partial("officers assigned but incident not updated", errors.Join(append(failures, err)...))
		}
		res.Incident = updated
	}

	c.audit.OfficersBulkAssigned(ctx, iid, riskZone, len(res.AssignedOfficers), len(res.Skipped), len(failures))
	c.publish(ctx, events.OfficersBulkAssigned, events.OfficersBulkAssignedPayload{
		AssignedOfficers: append([]models.AssignedOfficer{}, res.AssignedOfficers...),
		Incident:         res.Incident.Clone(),
	})

	if len(failures) > 0 {
		return res, apperr.Partial(
			fmt.Sprintf("%d of %d officers could not be assigned", len(failures), len(oids)),
			errors.Join(failures...),
		)
	}
	return res, nil
}
