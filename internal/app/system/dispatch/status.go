package dispatch

import (
	"context"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.opentelemetry.io/otel/attribute"
)

// SetStatus sets an officer's status directly. unavailable is pinned and
// survives later assign and unassign calls until another SetStatus clears it.
func (c *Coordinator) SetStatus(ctx context.Context, officerID, status string) (officer models.Officer, err error) {
	ctx, span, start := c.startSpan(ctx, "set_status")
	defer func() { c.finish(span, "set_status", start, err) }()

	oid, err := parseID("officerId", officerID)
	if err != nil {
		return models.Officer{}, err
	}
	if !models.IsOfficerStatus(status) {
		return models.Officer{}, apperr.Invalid("status", "Invalid status")
	}
	span.SetAttributes(
		attribute.String("officer.id", oid.Hex()),
		attribute.String("status", status),
	)

	var from string
	officer, err = c.mutateOfficer(ctx, oid, func(o *models.Officer) error {
		from = o.Status
		o.SetStatus(status, c.now())
		return nil
	})
	if err != nil {
		return models.Officer{}, err
	}

	c.audit.OfficerStatusChanged(ctx, oid, from, status)
	c.publish(ctx, events.OfficerUpdated, officer.Clone())
	return officer, nil
}
