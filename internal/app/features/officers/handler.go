// internal/app/features/officers/handler.go
package officers

import (
	"context"

	metricsstore "github.com/dalemusser/guardian/internal/app/store/metrics"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/app/system/auditlog"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.uber.org/zap"
)

// Dispatcher is the coordinator surface the dispatch endpoints call.
type Dispatcher interface {
	Assign(ctx context.Context, officerID, incidentID, riskZone string) (dispatch.AssignResult, error)
	Unassign(ctx context.Context, officerID, incidentID string) (dispatch.UnassignResult, error)
	BulkAssign(ctx context.Context, incidentID string, officerIDs []string, riskZone string) (dispatch.BulkAssignResult, error)
	SetStatus(ctx context.Context, officerID, status string) (models.Officer, error)
}

// Roster is the officer store surface the roster endpoints call.
type Roster interface {
	List(ctx context.Context, f officerstore.Filter) ([]models.Officer, error)
	Create(ctx context.Context, o models.Officer) (models.Officer, error)
}

// StatsFunc returns roster totals.
type StatsFunc func(ctx context.Context) metricsstore.RosterCounts

// Handler serves /api/officers.
type Handler struct {
	Dispatch Dispatcher
	Roster   Roster
	Stats    StatsFunc
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler creates an officers Handler. stats may be nil, in which case
// /stats is not served.
func NewHandler(d Dispatcher, roster Roster, stats StatsFunc, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Dispatch: d,
		Roster:   roster,
		Stats:    stats,
		Audit:    audit,
		Log:      logger,
	}
}
