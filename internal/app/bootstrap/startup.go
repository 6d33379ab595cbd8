// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/app/system/auditlog"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/app/system/metrics"
	"github.com/dalemusser/guardian/internal/app/system/ratelimit"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/guardian/internal/app/system/tracing"
	"github.com/dalemusser/guardian/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// the configured deadlines, installs tracing and assembles the event bus, the
// assignment coordinator and the reconcile worker into deps.Services.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errNoServices
	}
	timeouts.Configure(timeouts.Config{
		Short: appCfg.TimeoutShort,
		Long:  appCfg.TimeoutLong,
		Batch: appCfg.TimeoutBatch,
	})

	// The coordinator picks up the global tracer when it is built, so tracing
	// goes first.
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     appCfg.OTelEnabled,
		Endpoint:    appCfg.OTelEndpoint,
		ServiceName: "guardian",
	})
	if err != nil {
		logger.Error("tracing setup failed", zap.Error(err))
		return err
	}

	svc := deps.Services
	svc.shutdownTracing = shutdownTracing
	svc.Officers = officerstore.New(deps.MongoDatabase)
	svc.Incidents = incidentstore.New(deps.MongoDatabase)

	svc.Registry = prometheus.NewRegistry()
	svc.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatchMetrics := metrics.NewDispatch(svc.Registry)

	svc.Bus = events.NewBus(logger, buildSinks(appCfg, deps, logger)...)
	metrics.RegisterBus(svc.Registry, svc.Bus)

	svc.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Dispatch: appCfg.AuditLogDispatch,
		Roster:   appCfg.AuditLogRoster,
	})

	svc.Coordinator = dispatch.New(svc.Officers, svc.Incidents, svc.Bus, logger,
		dispatch.WithAudit(svc.Audit),
		dispatch.WithMetrics(dispatchMetrics),
		dispatch.WithAttempts(appCfg.VersionRetries),
	)

	if appCfg.WriteRateLimit > 0 {
		svc.WriteLimiter = ratelimit.New(appCfg.WriteRateLimit, time.Minute)
	}

	if appCfg.ReconcileInterval > 0 {
		svc.Reconciler = workers.NewReconcile(svc.Officers, svc.Incidents, svc.Coordinator, logger, appCfg.ReconcileInterval)
		svc.Reconciler.Start()
	} else {
		logger.Info("reconcile worker disabled")
	}

	logger.Info("dispatch services ready",
		zap.String("events_sink", appCfg.EventsSink),
		zap.Bool("tracing", appCfg.OTelEnabled),
		zap.Duration("reconcile_interval", appCfg.ReconcileInterval))
	return nil
}

// buildSinks returns the external sink selected by events_sink, if its
// connection is open.
func buildSinks(appCfg AppConfig, deps DBDeps, logger *zap.Logger) []events.Sink {
	switch {
	case appCfg.EventsSink == SinkRedis && deps.Redis != nil:
		logger.Info("publishing events to Redis", zap.String("prefix", appCfg.EventsPrefix))
		return []events.Sink{events.NewRedisSink(deps.Redis, appCfg.EventsPrefix)}
	case appCfg.EventsSink == SinkNATS && deps.NATS != nil:
		logger.Info("publishing events to NATS", zap.String("prefix", appCfg.EventsPrefix))
		return []events.Sink{events.NewNATSSink(deps.NATS, appCfg.EventsPrefix)}
	}
	return nil
}
