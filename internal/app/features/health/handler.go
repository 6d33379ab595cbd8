package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Dependency is an optional backing service reported by the health check.
// Its failure degrades the response but does not fail it: events are best
// effort, the database is not.
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Deps   []Dependency
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, any event
// sink dependencies, and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger, deps ...Dependency) *Handler {
	return &Handler{
		Client: client,
		Deps:   deps,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Services map[string]string `json:"services,omitempty"`
	Message  string            `json:"message,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "services":{"redis":"connected"} }
//
// A failing event sink keeps 200 with status "degraded". On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if len(h.Deps) > 0 {
		resp.Services = make(map[string]string, len(h.Deps))
	}
	for _, d := range h.Deps {
		if err := d.Ping(ctx); err != nil {
			h.Log.Warn("health-check: dependency ping failed",
				zap.String("service", d.Name()),
				zap.Error(err))
			resp.Services[d.Name()] = "disconnected"
			resp.Status = "degraded"
			continue
		}
		resp.Services[d.Name()] = "connected"
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// RedisDependency reports a go-redis client.
func RedisDependency(c redis.UniversalClient) Dependency { return redisDep{c} }

type redisDep struct{ c redis.UniversalClient }

func (d redisDep) Name() string                   { return "redis" }
func (d redisDep) Ping(ctx context.Context) error { return d.c.Ping(ctx).Err() }

// NATSDependency reports a NATS connection. A connection that is
// reconnecting counts as down.
func NATSDependency(nc *nats.Conn) Dependency { return natsDep{nc} }

type natsDep struct{ nc *nats.Conn }

func (d natsDep) Name() string { return "nats" }

func (d natsDep) Ping(ctx context.Context) error {
	if !d.nc.IsConnected() {
		return errors.New("nats: " + d.nc.Status().String())
	}
	timeout := timeouts.Ping()
	if dl, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(dl), time.Millisecond)
	}
	return d.nc.FlushTimeout(timeout)
}
