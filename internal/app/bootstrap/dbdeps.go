// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"
	"errors"

	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/app/system/auditlog"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/app/system/ratelimit"
	"github.com/dalemusser/guardian/internal/app/system/workers"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app.
//
// Connections are opened in ConnectDB. WAFFLE passes DBDeps by value, so
// the services assembled in Startup live behind the Services pointer.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is set when events_sink is "redis".
	Redis redis.UniversalClient
	// NATS is set when events_sink is "nats".
	NATS *nats.Conn

	Services *Services
}

// Services are the long-lived components shared by the HTTP handlers.
type Services struct {
	Officers    *officerstore.Store
	Incidents   *incidentstore.Store
	Bus         *events.Bus
	Coordinator *dispatch.Coordinator
	Audit       *auditlog.Logger
	Registry    *prometheus.Registry
	Reconciler  *workers.Reconcile
	// WriteLimiter is nil when write_rate_limit is 0.
	WriteLimiter *ratelimit.Limiter

	shutdownTracing func(context.Context) error
}

var errNoServices = errors.New("bootstrap: DBDeps.Services is nil; deps must come from ConnectDB")
