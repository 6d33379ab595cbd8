// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Guardian.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, events_sink, etc.
//   - Environment variables: GUARDIAN_MONGO_URI, GUARDIAN_EVENTS_SINK, etc.
//   - Command-line flags: --mongo_uri, --events_sink, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "guardian", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Event fan-out
	{Name: "events_sink", Default: SinkNone, Desc: "External event sink: 'none', 'redis' or 'nats'"},
	{Name: "events_prefix", Default: "guardian.", Desc: "Prefix for Redis channels and NATS subjects"},
	{Name: "events_subscriber_buffer", Default: events.DefaultSubscriberBuffer, Desc: "Buffered events per /api/events client"},

	// Redis
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address (events_sink=redis)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// NATS
	{Name: "nats_url", Default: "nats://localhost:4222", Desc: "NATS server URL (events_sink=nats)"},

	// Tracing
	{Name: "otel_enabled", Default: false, Desc: "Export OpenTelemetry traces"},
	{Name: "otel_endpoint", Default: "", Desc: "OTLP HTTP endpoint (e.g., http://localhost:4318)"},

	// Audit logging settings
	{Name: "audit_log_dispatch", Default: "all", Desc: "Assignment event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_roster", Default: "all", Desc: "Officer record logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background work
	{Name: "reconcile_interval", Default: "5m", Desc: "How often incident summaries are reconciled (0 disables)"},

	// Deadlines
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Deadline for single reads and writes"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Deadline for assign and unassign"},
	{Name: "timeout_batch", Default: timeouts.DefaultBatch.String(), Desc: "Deadline for bulk assign and reconcile sweeps"},
	{Name: "version_retries", Default: dispatch.DefaultAttempts, Desc: "Attempts per document write on version conflict"},

	// Abuse protection
	{Name: "write_rate_limit", Default: 600, Desc: "State-changing API requests per client IP per minute (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, GUARDIAN_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GUARDIAN", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		EventsSink:             strings.ToLower(strings.TrimSpace(appValues.String("events_sink"))),
		EventsPrefix:           appValues.String("events_prefix"),
		EventsSubscriberBuffer: appValues.Int("events_subscriber_buffer"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		NATSURL: appValues.String("nats_url"),

		OTelEnabled:  appValues.Bool("otel_enabled"),
		OTelEndpoint: appValues.String("otel_endpoint"),

		AuditLogDispatch: appValues.String("audit_log_dispatch"),
		AuditLogRoster:   appValues.String("audit_log_roster"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 5*time.Minute),

		TimeoutShort: appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutLong:  appValues.Duration("timeout_long", timeouts.DefaultLong),
		TimeoutBatch: appValues.Duration("timeout_batch", timeouts.DefaultBatch),

		VersionRetries: appValues.Int("version_retries"),
		WriteRateLimit: appValues.Int("write_rate_limit"),
	}

	if appCfg.EventsSink == "" {
		appCfg.EventsSink = SinkNone
	}

	return coreCfg, appCfg, nil
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Guardian checks the MongoDB URI format and the event sink settings so
// that a bad deployment fails before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	switch appCfg.EventsSink {
	case SinkNone:
	case SinkRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("events_sink=redis requires redis_addr")
		}
	case SinkNATS:
		if appCfg.NATSURL == "" {
			return fmt.Errorf("events_sink=nats requires nats_url")
		}
	default:
		return fmt.Errorf("unknown events_sink %q (want none, redis or nats)", appCfg.EventsSink)
	}

	if appCfg.OTelEnabled && appCfg.OTelEndpoint == "" {
		return fmt.Errorf("otel_enabled requires otel_endpoint")
	}
	if !auditModes[appCfg.AuditLogDispatch] {
		return fmt.Errorf("invalid audit_log_dispatch %q", appCfg.AuditLogDispatch)
	}
	if !auditModes[appCfg.AuditLogRoster] {
		return fmt.Errorf("invalid audit_log_roster %q", appCfg.AuditLogRoster)
	}
	if appCfg.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval must not be negative")
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative")
	}
	if appCfg.VersionRetries < 1 {
		return fmt.Errorf("version_retries must be at least 1")
	}

	return nil
}
