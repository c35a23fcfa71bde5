package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/pricing-engine/internal/domain"
	pkgkafka "github.com/commercegrid/pricing-engine/pkg/kafka"
)

// Kafka topic constants for pricing engine events.
const (
	TopicRunRequested = "pricing.engine.run_requested"
	TopicRunCompleted = "pricing.engine.run_completed"
	TopicPriceApplied = "pricing.engine.price_applied"
)

// Aggregate type constants.
const (
	AggregateTypeProduct   = "product"
	AggregateTypeEngineRun = "engine_run"
)

// Source identifier for events originating from the pricing engine.
const SourcePricingEngine = "pricing-engine"

// RunRequestedData is the payload for a run_requested event. Now is optional;
// when absent the engine evaluates against the current wall clock.
type RunRequestedData struct {
	Now         *time.Time `json:"now,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
}

// PriceAppliedData is the payload for a price_applied event.
type PriceAppliedData struct {
	ProductID     string          `json:"product_id"`
	RuleID        string          `json:"rule_id"`
	RuleName      string          `json:"rule_name"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	CampaignStart time.Time       `json:"campaign_start"`
	CampaignEnd   time.Time       `json:"campaign_end"`
}

// RunCompletedData is the payload for a run_completed event.
type RunCompletedData struct {
	RunID          string    `json:"run_id"`
	Success        bool      `json:"success"`
	RulesProcessed int       `json:"rules_processed"`
	ItemsUpdated   int       `json:"items_updated"`
	ItemsCleared   int64     `json:"items_cleared"`
	Errors         []string  `json:"errors"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

// Producer publishes pricing engine events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the pricing engine.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishPriceApplied publishes a price_applied event for one committed
// campaign price.
func (p *Producer) PublishPriceApplied(ctx context.Context, rule *domain.Rule, change *domain.PriceChange) error {
	data := PriceAppliedData{
		ProductID:     change.ProductID,
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		OldPrice:      change.OldPrice,
		NewPrice:      change.NewPrice,
		CampaignStart: rule.StartDate,
		CampaignEnd:   rule.EndDate,
	}

	event, err := pkgkafka.NewEvent(TopicPriceApplied, change.ProductID, AggregateTypeProduct, SourcePricingEngine, data)
	if err != nil {
		return fmt.Errorf("create price_applied event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPriceApplied, event); err != nil {
		return fmt.Errorf("publish price_applied event: %w", err)
	}

	p.logger.DebugContext(ctx, "published price_applied event",
		slog.String("product_id", change.ProductID),
		slog.String("rule_id", rule.ID),
	)

	return nil
}

// PublishRunCompleted publishes a run_completed event carrying the summary of
// a finished engine run.
func (p *Producer) PublishRunCompleted(ctx context.Context, runID string, now time.Time, summary *domain.RunSummary) error {
	data := RunCompletedData{
		RunID:          runID,
		Success:        summary.Success,
		RulesProcessed: summary.RulesProcessed,
		ItemsUpdated:   summary.ItemsUpdated,
		ItemsCleared:   summary.ItemsCleared,
		Errors:         summary.Errors,
		EvaluatedAt:    now,
	}

	event, err := pkgkafka.NewEvent(TopicRunCompleted, runID, AggregateTypeEngineRun, SourcePricingEngine, data)
	if err != nil {
		return fmt.Errorf("create run_completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRunCompleted, event); err != nil {
		return fmt.Errorf("publish run_completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published run_completed event",
		slog.String("run_id", runID),
		slog.Bool("success", summary.Success),
	)

	return nil
}
