// Package engine implements the campaign pricing run: expiry sweep, rule
// evaluation in priority order, and atomic per-item price commits.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/internal/event"
	"github.com/commercegrid/pricing-engine/internal/pricing"
	"github.com/commercegrid/pricing-engine/internal/repository"
)

// Runner triggers an engine run. It is the surface exposed to the HTTP
// handler and the Kafka consumer; both go through the locked implementation.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*domain.RunSummary, error)
}

// Engine derives campaign prices from active discount rules. It owns no
// schedule of its own: Run is invoked by an external trigger and evaluates
// the whole catalog against the rule set at a single point in time.
type Engine struct {
	rules   repository.RuleRepository
	catalog repository.CatalogRepository
	events  *event.Producer
	logger  *slog.Logger
}

// New creates an engine. The event producer may be nil; runs then publish
// nothing.
func New(rules repository.RuleRepository, catalog repository.CatalogRepository, events *event.Producer, logger *slog.Logger) *Engine {
	return &Engine{
		rules:   rules,
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// Run executes one full engine pass evaluated at now. Failures inside a
// single rule are isolated and reported in the summary; only failures of the
// run itself (sweep or rule listing) mark the summary unsuccessful and abort.
func (e *Engine) Run(ctx context.Context, now time.Time) *domain.RunSummary {
	runID := uuid.New().String()
	start := time.Now()

	logger := e.logger.With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "engine run started", slog.Time("evaluated_at", now))

	summary := &domain.RunSummary{
		Success: true,
		Errors:  []string{},
		Logs:    []domain.RuleLog{},
	}

	cleared, err := e.catalog.ClearExpiredCampaigns(ctx, now)
	if err != nil {
		return e.abort(ctx, logger, runID, now, start, summary, fmt.Errorf("clear expired campaigns: %w", err))
	}
	summary.ItemsCleared = cleared
	itemsClearedTotal.Add(float64(cleared))

	rules, err := e.rules.ListActive(ctx, now)
	if err != nil {
		return e.abort(ctx, logger, runID, now, start, summary, fmt.Errorf("list active rules: %w", err))
	}

	for i := range rules {
		rule := &rules[i]

		affected, err := e.applyRuleSafe(ctx, logger, rule, now)
		summary.RulesProcessed++
		summary.ItemsUpdated += affected

		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Rule %s (%s): %v", rule.Name, rule.ID, err))
			ruleErrorsTotal.Inc()
			logger.WarnContext(ctx, "rule evaluation failed",
				slog.String("rule_id", rule.ID),
				slog.String("rule_name", rule.Name),
				slog.Int("items_affected", affected),
				slog.String("error", err.Error()),
			)
			continue
		}

		summary.Logs = append(summary.Logs, domain.RuleLog{
			RuleID:        rule.ID,
			RuleName:      rule.Name,
			ItemsAffected: affected,
		})
	}

	e.finish(ctx, logger, runID, now, start, summary)
	return summary
}

// abort marks the summary failed with an engine-level error and finishes the
// run without touching any further rules.
func (e *Engine) abort(ctx context.Context, logger *slog.Logger, runID string, now, start time.Time, summary *domain.RunSummary, err error) *domain.RunSummary {
	summary.Success = false
	summary.Errors = append(summary.Errors, fmt.Sprintf("Engine error: %v", err))

	logger.ErrorContext(ctx, "engine run aborted", slog.String("error", err.Error()))
	e.finish(ctx, logger, runID, now, start, summary)
	return summary
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, runID string, now, start time.Time, summary *domain.RunSummary) {
	status := "success"
	if !summary.Success {
		status = "failed"
	} else if len(summary.Errors) > 0 {
		status = "partial"
	}
	runsTotal.WithLabelValues(status).Inc()
	itemsUpdatedTotal.Add(float64(summary.ItemsUpdated))
	runDuration.Observe(time.Since(start).Seconds())

	if e.events != nil {
		if err := e.events.PublishRunCompleted(ctx, runID, now, summary); err != nil {
			logger.WarnContext(ctx, "failed to publish run_completed event", slog.String("error", err.Error()))
		}
	}

	logger.InfoContext(ctx, "engine run finished",
		slog.String("status", status),
		slog.Int("rules_processed", summary.RulesProcessed),
		slog.Int("items_updated", summary.ItemsUpdated),
		slog.Int64("items_cleared", summary.ItemsCleared),
		slog.Int("errors", len(summary.Errors)),
		slog.Duration("duration", time.Since(start)),
	)
}

// applyRuleSafe wraps applyRule with panic recovery so a defect in one rule's
// evaluation cannot take down the rest of the run.
func (e *Engine) applyRuleSafe(ctx context.Context, logger *slog.Logger, rule *domain.Rule, now time.Time) (affected int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.applyRule(ctx, logger, rule, now)
}

// applyRule evaluates one rule against its eligible products. An item is
// rewritten only when the rule outranks the incumbent campaign (strictly
// higher priority) and the discounted price actually undercuts the base
// price. A commit failure stops the rule's remaining batch; items already
// committed stay committed and are counted.
func (e *Engine) applyRule(ctx context.Context, logger *slog.Logger, rule *domain.Rule, now time.Time) (int, error) {
	products, err := e.catalog.ListEligible(ctx, rule)
	if err != nil {
		return 0, fmt.Errorf("list eligible products: %w", err)
	}

	incumbents, err := e.rules.GetPriorities(ctx, incumbentRuleIDs(products))
	if err != nil {
		return 0, fmt.Errorf("resolve incumbent priorities: %w", err)
	}

	affected := 0
	for i := range products {
		product := &products[i]

		if product.HasCampaign() {
			// A missing incumbent rule row means the campaign's rule was
			// deleted; the slot is treated as free.
			if incumbent, ok := incumbents[*product.CampaignRuleID]; ok && incumbent >= rule.Priority {
				continue
			}
		}

		candidate := pricing.Discounted(product.BasePrice, rule.DiscountType, rule.DiscountAmount)
		if candidate.GreaterThanOrEqual(product.BasePrice) {
			continue
		}

		change := &domain.PriceChange{
			ID:             uuid.New().String(),
			RuleID:         rule.ID,
			ProductID:      product.ID,
			OldPrice:       product.BasePrice,
			NewPrice:       candidate,
			DiscountAmount: product.BasePrice.Sub(candidate),
			CreatedAt:      now,
		}

		if err := e.catalog.CommitCampaignPrice(ctx, product.ID, rule, candidate, change); err != nil {
			return affected, fmt.Errorf("commit product %s: %w", product.ID, err)
		}
		affected++

		if e.events != nil {
			if err := e.events.PublishPriceApplied(ctx, rule, change); err != nil {
				logger.WarnContext(ctx, "failed to publish price_applied event",
					slog.String("product_id", product.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	logger.DebugContext(ctx, "rule evaluated",
		slog.String("rule_id", rule.ID),
		slog.String("rule_name", rule.Name),
		slog.Int("eligible", len(products)),
		slog.Int("items_affected", affected),
	)

	return affected, nil
}

// incumbentRuleIDs collects the distinct campaign rule ids currently assigned
// across the batch, so priorities are resolved in a single query.
func incumbentRuleIDs(products []domain.Product) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range products {
		id := products[i].CampaignRuleID
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	return ids
}
