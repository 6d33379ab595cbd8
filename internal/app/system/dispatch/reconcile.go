package dispatch

import (
	"context"

	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReconcileReport describes what Reconcile changed on one incident.
type ReconcileReport struct {
	IncidentID string
	Added      int
	Removed    int
}

// Changed reports whether the incident was rewritten.
func (r ReconcileReport) Changed() bool { return r.Added > 0 || r.Removed > 0 }

// Reconcile rebuilds an incident's summaries from the officers' active
// assignments: every active assignment gets exactly one summary and every
// summary without an active assignment is dropped. Summaries written before
// assignments carried ids are matched by officer. Reconcile writes only when
// something differs and sends no events.
func (c *Coordinator) Reconcile(ctx context.Context, incidentID string) (rep ReconcileReport, err error) {
	ctx, span, start := c.startSpan(ctx, "reconcile")
	defer func() { c.finish(span, "reconcile", start, err) }()

	iid, err := parseID("incidentId", incidentID)
	if err != nil {
		return ReconcileReport{}, err
	}
	span.SetAttributes(attribute.String("incident.id", iid.Hex()))
	rep.IncidentID = iid.Hex()

	_, err = c.mutateIncident(ctx, iid, func(in *models.Incident) error {
		// Officers are listed after the incident read so a concurrent assign
		// either shows up here or bumps the version and forces a retry.
		officers, err := c.officers.ListActiveForIncident(ctx, iid.Hex())
		if err != nil {
			return loadErr("officer", iid, err)
		}
		kept, added, removed := reconcileSummaries(in.AssignedOfficers, officers, iid.Hex())
		rep.Added, rep.Removed = added, removed
		if added == 0 && removed == 0 {
			return errUnchanged
		}
		in.AssignedOfficers = kept
		in.UpdatedAt = c.now()
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}

	if rep.Changed() {
		c.log.Info("incident summaries reconciled",
			zap.String("incident_id", rep.IncidentID),
			zap.Int("added", rep.Added),
			zap.Int("removed", rep.Removed))
		c.metrics.Reconciled(rep.Added, rep.Removed)
		c.audit.IncidentReconciled(ctx, iid, rep.Added, rep.Removed)
	}
	return rep, nil
}

// reconcileSummaries returns the summaries the incident should hold, keeping
// the existing order for entries that stay and appending missing ones.
func reconcileSummaries(current []models.AssignedOfficer, officers []models.Officer, incidentID string) (kept []models.AssignedOfficer, added, removed int) {
	type want struct {
		summary models.AssignedOfficer
		covered bool
	}
	byID := map[primitive.ObjectID]*want{}
	var order []*want
	for i := range officers {
		o := &officers[i]
		for _, a := range o.ActiveAssignmentsFor(incidentID) {
			w := &want{summary: o.Summary(a)}
			byID[a.ID] = w
			order = append(order, w)
		}
	}

	// uncoveredFor finds an active assignment of officerID with no summary yet.
	uncoveredFor := func(officerID primitive.ObjectID) *want {
		for _, w := range order {
			if !w.covered && w.summary.OfficerID == officerID {
				return w
			}
		}
		return nil
	}

	// Exact matches on the shared assignment id first, then older entries
	// by officer.
	keep := make([]bool, len(current))
	for i, e := range current {
		if w, ok := byID[e.ID]; ok && !w.covered {
			w.covered = true
			keep[i] = true
		}
	}
	for i, e := range current {
		if keep[i] {
			continue
		}
		if w := uncoveredFor(e.OfficerID); w != nil {
			w.covered = true
			keep[i] = true
		}
	}

	kept = make([]models.AssignedOfficer, 0, len(order))
	for i, e := range current {
		if keep[i] {
			kept = append(kept, e)
		} else {
			removed++
		}
	}

	for _, w := range order {
		if !w.covered {
			kept = append(kept, w.summary)
			added++
		}
	}
	return kept, added, removed
}
