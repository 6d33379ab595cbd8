// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	eventstreamfeature "github.com/dalemusser/guardian/internal/app/features/eventstream"
	healthfeature "github.com/dalemusser/guardian/internal/app/features/health"
	incidentsfeature "github.com/dalemusser/guardian/internal/app/features/incidents"
	officersfeature "github.com/dalemusser/guardian/internal/app/features/officers"
	metricsstore "github.com/dalemusser/guardian/internal/app/store/metrics"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for Guardian.
//
// WAFFLE calls this after Startup, so deps.Services carries the event bus
// and the assignment coordinator. The JSON API lives under /api; /health and
// /metrics are for load balancers and scrapers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Coordinator == nil {
		return nil, errNoServices
	}

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger, healthDependencies(deps)...)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{Registry: svc.Registry}))

	r.Route("/api", func(api chi.Router) {
		if svc.WriteLimiter != nil {
			api.Use(svc.WriteLimiter.Writes(logger))
		}

		officersHandler := officersfeature.NewHandler(svc.Coordinator, svc.Officers, rosterStats(deps.MongoDatabase), svc.Audit, logger)
		api.Mount("/officers", officersfeature.Routes(officersHandler))

		incidentsHandler := incidentsfeature.NewHandler(svc.Incidents, logger)
		api.Mount("/incidents", incidentsfeature.Routes(incidentsHandler))

		// Live dispatch events for dashboards
		streamHandler := eventstreamfeature.NewHandler(svc.Bus, appCfg.EventsSubscriberBuffer, logger)
		api.Mount("/events", eventstreamfeature.Routes(streamHandler))
	})

	return r, nil
}

// healthDependencies lists the optional backends /health reports on.
func healthDependencies(deps DBDeps) []healthfeature.Dependency {
	var out []healthfeature.Dependency
	if deps.Redis != nil {
		out = append(out, healthfeature.RedisDependency(deps.Redis))
	}
	if deps.NATS != nil {
		out = append(out, healthfeature.NATSDependency(deps.NATS))
	}
	return out
}

func rosterStats(db *mongo.Database) officersfeature.StatsFunc {
	return func(ctx context.Context) metricsstore.RosterCounts {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		return metricsstore.FetchRosterCounts(ctx, db)
	}
}
