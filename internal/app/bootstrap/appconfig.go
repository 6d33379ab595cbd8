// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for Guardian.
//
// These values come from environment variables (GUARDIAN_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging level, CORS and
// request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Event fan-out
	EventsSink             string // "none", "redis" or "nats"
	EventsPrefix           string // prefix for Redis channels and NATS subjects
	EventsSubscriberBuffer int    // per-subscriber buffer for /api/events streams

	// Redis (only used if EventsSink is "redis")
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS (only used if EventsSink is "nats")
	NATSURL string

	// Tracing
	OTelEnabled  bool
	OTelEndpoint string // OTLP HTTP endpoint, e.g. http://localhost:4318

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogDispatch string
	AuditLogRoster   string

	// Background reconciliation of incident summaries; 0 disables it.
	ReconcileInterval time.Duration

	// Operation deadlines
	TimeoutShort time.Duration
	TimeoutLong  time.Duration
	TimeoutBatch time.Duration

	// How many times a document write is tried when its version moved.
	VersionRetries int

	// State-changing API requests allowed per client IP per minute; 0 disables.
	WriteRateLimit int
}

// Event sink names accepted by events_sink.
const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkNATS  = "nats"
)
