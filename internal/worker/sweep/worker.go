package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/openkeyhub/governance/pkg/utils"
	"go.uber.org/zap"
)

const lockName = "sweep"

// Result describes one sweep attempt.
type Result struct {
	governance.TickResult

	// Skipped is set when another replica held the sweep lock.
	Skipped bool
	// ConfigChanged is set when a newer governance config version was adopted.
	ConfigChanged bool
}

// Worker periodically advances due proposals and settles pending deposits.
// With a locker, only one replica sweeps at a time.
type Worker struct {
	engine *governance.Engine
	locker *redis.Locker
	cache  *redis.Cache
	config *config.Sweep
	logger *zap.Logger
}

// New creates a sweep worker. The locker and cache may be nil.
func New(engine *governance.Engine, locker *redis.Locker, cache *redis.Cache, cfg *config.Sweep, logger *zap.Logger) *Worker {
	return &Worker{
		engine: engine,
		locker: locker,
		cache:  cache,
		config: cfg,
		logger: logger.Named("sweep"),
	}
}

// Start runs sweeps every interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Sweep worker started",
		zap.Duration("interval", w.config.Interval),
		zap.Int("concurrency", w.config.Concurrency))

	for !utils.ContextGuardWithLog(ctx, w.logger, "Context cancelled, stopping sweep worker") {
		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("Sweep failed", zap.Error(err))
		}

		if utils.ContextSleepWithLog(ctx, w.config.Interval, w.logger, "Context cancelled, stopping sweep worker") == utils.SleepCancelled {
			return
		}
	}
}

// RunOnce performs a single sweep.
func (w *Worker) RunOnce(ctx context.Context) (result Result, err error) {
	if w.locker != nil {
		lease, err := w.locker.TryAcquire(ctx, lockName, w.config.LockTTL)
		if err != nil {
			return result, err
		}
		if lease == nil {
			w.logger.Debug("Sweep lock held by another replica")
			result.Skipped = true
			return result, nil
		}

		defer func() {
			// Release on a fresh context so a cancelled sweep still frees the lock
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			if err := lease.Release(releaseCtx); err != nil {
				w.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()

		// The lease must outlive the sweep
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.LockTTL)
		defer cancel()
	}

	result.ConfigChanged, err = w.engine.RefreshConfig(ctx)
	if err != nil {
		w.logger.Warn("Failed to refresh governance config", zap.Error(err))
	}

	start := time.Now()
	result.TickResult, err = w.engine.Tick(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to tick: %w", err)
	}

	if result.Advanced > 0 || result.Settled > 0 {
		if w.cache != nil {
			if err := w.cache.Invalidate(ctx, redis.VotingStatsKey); err != nil {
				w.logger.Warn("Failed to invalidate stats cache", zap.Error(err))
			}
		}

		w.logger.Info("Sweep completed",
			zap.Int("advanced", result.Advanced),
			zap.Int("settled", result.Settled),
			zap.Duration("duration", time.Since(start)))
	}

	return result, nil
}
