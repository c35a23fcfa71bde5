package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/internal/lock"
	pkgkafka "github.com/commercegrid/pricing-engine/pkg/kafka"
)

// Runner matches the engine trigger surface without importing the engine
// package.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*domain.RunSummary, error)
}

// NewRunRequestedHandler returns a Kafka handler that triggers an engine run
// for each run_requested event. A run already in progress is not an error:
// the requested evaluation is covered by the active run or the next trigger.
func NewRunRequestedHandler(runner Runner, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		var data RunRequestedData
		if err := event.UnmarshalData(&data); err != nil {
			logger.ErrorContext(ctx, "invalid run_requested payload, skipping",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return nil
		}

		now := time.Now().UTC()
		if data.Now != nil {
			now = data.Now.UTC()
		}

		logger.InfoContext(ctx, "run_requested event received",
			slog.String("event_id", event.EventID),
			slog.String("requested_by", data.RequestedBy),
			slog.Time("evaluated_at", now),
		)

		summary, err := runner.Run(ctx, now)
		if err != nil {
			if errors.Is(err, lock.ErrAlreadyRunning) {
				logger.InfoContext(ctx, "run already in progress, skipping trigger",
					slog.String("event_id", event.EventID),
				)
				return nil
			}
			return fmt.Errorf("run engine: %w", err)
		}

		logger.InfoContext(ctx, "triggered run finished",
			slog.Bool("success", summary.Success),
			slog.Int("items_updated", summary.ItemsUpdated),
			slog.Int("errors", len(summary.Errors)),
		)

		return nil
	}
}
