// Package dispatch assigns officers to incidents and keeps the officer and
// incident records of an assignment consistent with each other.
//
// An assignment lives on two documents: the officer keeps every assignment
// it ever had (cancelled ones included), the incident lists only the
// officers currently on it. The two are written separately, officer first.
// Writes to one document are serialized per id inside the process and
// guarded across processes by the document version; a stale write is
// retried against a fresh read.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/auditlog"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/app/system/metrics"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/guardian/internal/app/system/tracing"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultAttempts bounds how many times one document mutation is tried when
// its conditional write keeps losing to concurrent writers.
const DefaultAttempts = 3

// OfficerStore is the officer persistence the coordinator needs.
// GetByID returns mongo.ErrNoDocuments on a miss; Replace returns
// apperr.ErrVersionConflict when the stored version moved.
type OfficerStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Officer, error)
	Replace(ctx context.Context, o models.Officer) (models.Officer, error)
	ListActiveForIncident(ctx context.Context, incidentID string) ([]models.Officer, error)
}

// IncidentStore is the incident persistence the coordinator needs, with the
// same error contract as OfficerStore.
type IncidentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Incident, error)
	Replace(ctx context.Context, in models.Incident) (models.Incident, error)
}

// Publisher delivers events to observers.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Coordinator implements assign, unassign, bulk assign, status updates and
// reconciliation over the two stores.
type Coordinator struct {
	officers  OfficerStore
	incidents IncidentStore
	bus       Publisher
	log       *zap.Logger

	audit    *auditlog.Logger
	metrics  *metrics.Dispatch
	tracer   trace.Tracer
	now      func() time.Time
	attempts int

	officerLocks  *keyedMutex
	incidentLocks *keyedMutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAudit records dispatch activity in the audit log.
func WithAudit(a *auditlog.Logger) Option {
	return func(c *Coordinator) { c.audit = a }
}

// WithMetrics records operation counts and latencies.
func WithMetrics(m *metrics.Dispatch) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithClock overrides the time source used for assignedAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithAttempts sets how many times a conflicting write is tried. Values
// below one are ignored.
func WithAttempts(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// New creates a Coordinator. bus may be nil, in which case no events are sent.
func New(officers OfficerStore, incidents IncidentStore, bus Publisher, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		officers:      officers,
		incidents:     incidents,
		bus:           bus,
		log:           logger,
		tracer:        tracing.Tracer("github.com/dalemusser/guardian/dispatch"),
		now:           func() time.Time { return time.Now().UTC() },
		attempts:      DefaultAttempts,
		officerLocks:  newKeyedMutex(),
		incidentLocks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errUnchanged tells a mutation helper to skip the write.
var errUnchanged = errors.New("unchanged")

// mutateOfficer loads the officer, applies fn and writes it back, retrying
// on version conflicts. fn runs once per attempt against a fresh copy.
func (c *Coordinator) mutateOfficer(ctx context.Context, id primitive.ObjectID, fn func(*models.Officer) error) (models.Officer, error) {
	unlock := c.officerLocks.Lock(id)
	defer unlock()

	for attempt := 1; ; attempt++ {
		o, err := c.officers.GetByID(ctx, id)
		if err != nil {
			return models.Officer{}, loadErr("officer", id, err)
		}
		if err := fn(&o); err != nil {
			if errors.Is(err, errUnchanged) {
				return o, nil
			}
			return models.Officer{}, err
		}

		saved, err := c.officers.Replace(ctx, o)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, apperr.ErrVersionConflict) && attempt < c.attempts {
			c.metrics.VersionConflict("officer")
			c.log.Debug("officer version conflict, retrying",
				zap.String("officer_id", id.Hex()),
				zap.Int("attempt", attempt))
			continue
		}
		return models.Officer{}, saveErr("officer", id, err)
	}
}

// mutateIncident is mutateOfficer for incidents.
func (c *Coordinator) mutateIncident(ctx context.Context, id primitive.ObjectID, fn func(*models.Incident) error) (models.Incident, error) {
	unlock := c.incidentLocks.Lock(id)
	defer unlock()

	for attempt := 1; ; attempt++ {
		in, err := c.incidents.GetByID(ctx, id)
		if err != nil {
			return models.Incident{}, loadErr("incident", id, err)
		}
		if err := fn(&in); err != nil {
			if errors.Is(err, errUnchanged) {
				return in, nil
			}
			return models.Incident{}, err
		}

		saved, err := c.incidents.Replace(ctx, in)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, apperr.ErrVersionConflict) && attempt < c.attempts {
			c.metrics.VersionConflict("incident")
			c.log.Debug("incident version conflict, retrying",
				zap.String("incident_id", id.Hex()),
				zap.Int("attempt", attempt))
			continue
		}
		return models.Incident{}, saveErr("incident", id, err)
	}
}

func loadErr(entity string, id primitive.ObjectID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Missing(entity, id.Hex())
	}
	return apperr.Store("load "+entity, id.Hex(), err)
}

func saveErr(entity string, id primitive.ObjectID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Missing(entity, id.Hex())
	}
	return apperr.Store("save "+entity, id.Hex(), err)
}

// parseID validates a required hex ObjectID argument.
func parseID(field, raw string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, apperr.Invalid(field, field+" is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &apperr.Error{
			Kind:    apperr.KindInvalidArgument,
			Field:   field,
			ID:      raw,
			Message: field + " is not a valid id",
		}
	}
	return id, nil
}

// requireZone checks riskZone is present. Any non-empty label, blank ones
// included, is kept exactly as given.
func requireZone(riskZone string) error {
	if riskZone == "" {
		return apperr.Invalid("riskZone", "riskZone is required")
	}
	return nil
}

// publish sends an event and swallows the failure after recording it. The
// state change it describes is already committed.
func (c *Coordinator) publish(ctx context.Context, name string, payload any) {
	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()

	ev := events.New(name, payload)
	if err := c.bus.Publish(ctx, ev); err != nil {
		perr := apperr.Publish(name, err)
		c.log.Warn("event publish failed",
			zap.String("event", name),
			zap.String("event_id", ev.ID),
			zap.Error(perr))
		c.metrics.PublishFailure(name)
		c.audit.PublishFailed(ctx, name, ev.ID, err)
	}
}

func (c *Coordinator) startSpan(ctx context.Context, op string) (context.Context, trace.Span, time.Time) {
	ctx, span := c.tracer.Start(ctx, "dispatch."+op)
	return ctx, span, time.Now()
}

// finish ends the span and records the outcome of op.
func (c *Coordinator) finish(span trace.Span, op string, start time.Time, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, apperr.PartialFailure) {
			result = metrics.ResultPartial
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	c.metrics.Observe(op, result, time.Since(start))
}
