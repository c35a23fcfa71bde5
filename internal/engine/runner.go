package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/internal/lock"
)

// LockedRunner guards the engine with a distributed run lock so overlapping
// triggers (scheduler, admin endpoint, Kafka) cannot start concurrent runs.
type LockedRunner struct {
	engine *Engine
	lock   lock.RunLock
	logger *slog.Logger
}

// NewLockedRunner wraps the engine with the given run lock.
func NewLockedRunner(engine *Engine, runLock lock.RunLock, logger *slog.Logger) *LockedRunner {
	return &LockedRunner{
		engine: engine,
		lock:   runLock,
		logger: logger,
	}
}

// Run acquires the run lock, executes the engine, and releases the lock. It
// returns lock.ErrAlreadyRunning without running when another run is active.
func (r *LockedRunner) Run(ctx context.Context, now time.Time) (*domain.RunSummary, error) {
	release, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			r.logger.ErrorContext(ctx, "failed to release run lock", slog.String("error", err.Error()))
		}
	}()

	return r.engine.Run(ctx, now), nil
}
