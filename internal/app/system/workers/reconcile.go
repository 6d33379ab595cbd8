// internal/app/system/workers/reconcile.go
package workers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AssignedIncidentSource lists incident ids referenced by officers that hold
// an active assignment.
type AssignedIncidentSource interface {
	IncidentIDsWithActiveAssignments(ctx context.Context) ([]string, error)
}

// StaffedIncidentSource lists incidents that carry at least one summary.
type StaffedIncidentSource interface {
	IDsWithAssignedOfficers(ctx context.Context) ([]primitive.ObjectID, error)
}

// Reconciler converges one incident.
type Reconciler interface {
	Reconcile(ctx context.Context, incidentID string) (dispatch.ReconcileReport, error)
}

// SweepStats summarizes one pass.
type SweepStats struct {
	Checked int
	Changed int
	Failed  int
}

// Reconcile is a background worker that periodically repairs incidents whose
// summaries drifted from the officers' active assignments, for example after
// an assign whose incident write failed.
type Reconcile struct {
	officers  AssignedIncidentSource
	incidents StaffedIncidentSource
	coord     Reconciler
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewReconcile creates a reconcile worker that sweeps every interval.
func NewReconcile(officers AssignedIncidentSource, incidents StaffedIncidentSource, coord Reconciler, logger *zap.Logger, interval time.Duration) *Reconcile {
	return &Reconcile{
		officers:  officers,
		incidents: incidents,
		coord:     coord,
		log:       logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Reconcile) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("reconcile worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *Reconcile) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("reconcile worker stopped")
}

func (w *Reconcile) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
			w.Sweep(ctx)
			cancel()
		}
	}
}

// Sweep reconciles every candidate incident once. Candidates are the union
// of incidents referenced by active assignments and incidents holding
// summaries, so both missing and stale summaries are found.
func (w *Reconcile) Sweep(ctx context.Context) SweepStats {
	ids, err := w.candidates(ctx)
	if err != nil {
		w.log.Error("reconcile: failed to list candidate incidents", zap.Error(err))
		return SweepStats{}
	}

	var st SweepStats
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		st.Checked++
		rep, err := w.coord.Reconcile(ctx, id)
		switch {
		case errors.Is(err, apperr.NotFound), errors.Is(err, apperr.InvalidArgument):
			// Dangling reference from an officer to a deleted or foreign incident.
			w.log.Debug("reconcile: skipping incident", zap.String("incident_id", id), zap.Error(err))
		case err != nil:
			st.Failed++
			w.log.Warn("reconcile: incident failed", zap.String("incident_id", id), zap.Error(err))
		case rep.Changed():
			st.Changed++
		}
	}

	if st.Changed > 0 || st.Failed > 0 {
		w.log.Info("reconcile sweep finished",
			zap.Int("checked", st.Checked),
			zap.Int("changed", st.Changed),
			zap.Int("failed", st.Failed))
	}
	return st
}

func (w *Reconcile) candidates(ctx context.Context) ([]string, error) {
	fromOfficers, err := w.officers.IncidentIDsWithActiveAssignments(ctx)
	if err != nil {
		return nil, err
	}
	fromIncidents, err := w.incidents.IDsWithAssignedOfficers(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(fromOfficers)+len(fromIncidents))
	for _, id := range fromOfficers {
		seen[id] = struct{}{}
	}
	for _, id := range fromIncidents {
		seen[id.Hex()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
