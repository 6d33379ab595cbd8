// Package timeouts holds the process-wide deadlines applied to store and
// broker calls.
//
//   - Ping: health checks
//   - Short: single-document reads and writes, event publishing
//   - Medium: roster and incident list queries
//   - Long: assign and unassign, which touch both the officer and the incident
//   - Batch: bulk assign and the reconcile sweep
//
// Values come from configuration at startup (see Configure). Until then the
// defaults apply.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 15 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config is a full set of deadlines. Zero fields mean "keep the current value"
// when passed to Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var current atomic.Pointer[Config]

func init() {
	d := defaults()
	current.Store(&d)
}

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }
func Batch() time.Duration  { return current.Load().Batch }

// Current returns the active configuration.
func Current() Config { return *current.Load() }

// Configure overlays the positive fields of cfg on the active values.
func Configure(cfg Config) {
	for {
		old := current.Load()
		next := *old
		pick := func(dst *time.Duration, v time.Duration) {
			if v > 0 {
				*dst = v
			}
		}
		pick(&next.Ping, cfg.Ping)
		pick(&next.Short, cfg.Short)
		pick(&next.Medium, cfg.Medium)
		pick(&next.Long, cfg.Long)
		pick(&next.Batch, cfg.Batch)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the defaults. Tests use it to undo Configure.
func Reset() {
	d := defaults()
	current.Store(&d)
}

// WithTimeout derives a context bounded by timeout. Its cancel func logs a
// warning naming operation when the deadline was what ended the context.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk assign")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
