// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, closes the event bus and its sinks, flushes
// traces and disconnects MongoDB. Every step runs even if an earlier one
// failed; the errors are joined.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error

	if svc := deps.Services; svc != nil {
		if svc.Reconciler != nil {
			logger.Info("stopping reconcile worker")
			svc.Reconciler.Stop()
		}
		if svc.WriteLimiter != nil {
			svc.WriteLimiter.Stop()
		}
		if svc.Bus != nil {
			svc.Bus.Close()
		}
		if svc.shutdownTracing != nil {
			if err := svc.shutdownTracing(ctx); err != nil {
				logger.Error("tracer shutdown failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	if deps.NATS != nil {
		logger.Info("draining NATS connection")
		if err := deps.NATS.Drain(); err != nil {
			logger.Error("NATS drain failed", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("Redis close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
