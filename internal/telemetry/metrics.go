package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics covers the two instrumented surfaces: LLM client calls
// (gen_ai.* semconv names) and the order-chat domain (chatbot.* names).
type Metrics struct {
	TokenUsage        metric.Float64Histogram
	OperationDuration metric.Float64Histogram
	Cost              metric.Float64Counter
	RetryCount        metric.Int64Counter
	FallbackCount     metric.Int64Counter
	ErrorCount        metric.Int64Counter

	ChatDuration    metric.Float64Histogram
	ParseTier       metric.Int64Counter
	ConfirmOutcomes metric.Int64Counter
}

func NewMetrics(m metric.Meter) (*Metrics, error) {
	tokenUsage, err := m.Float64Histogram("gen_ai.client.token.usage",
		metric.WithUnit("{token}"),
		metric.WithDescription("Number of tokens used per LLM call"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := m.Float64Histogram("gen_ai.client.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Wall-clock duration of LLM API call"),
	)
	if err != nil {
		return nil, err
	}

	cost, err := m.Float64Counter("gen_ai.client.cost",
		metric.WithUnit("usd"),
		metric.WithDescription("Cumulative cost of LLM calls in USD"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := m.Int64Counter("gen_ai.client.retry.count",
		metric.WithUnit("{retry}"),
		metric.WithDescription("Number of retry attempts"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCount, err := m.Int64Counter("gen_ai.client.fallback.count",
		metric.WithUnit("{fallback}"),
		metric.WithDescription("Number of fallback provider triggers"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := m.Int64Counter("gen_ai.client.error.count",
		metric.WithUnit("{error}"),
		metric.WithDescription("Number of LLM call errors"),
	)
	if err != nil {
		return nil, err
	}

	chatDuration, err := m.Float64Histogram("chatbot.chat.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Total chat message-to-reply duration"),
	)
	if err != nil {
		return nil, err
	}

	parseTier, err := m.Int64Counter("chatbot.confirm.parse_tier",
		metric.WithUnit("1"),
		metric.WithDescription("Which parsing tier produced the order record"),
	)
	if err != nil {
		return nil, err
	}

	confirmOutcomes, err := m.Int64Counter("chatbot.order.confirm",
		metric.WithUnit("1"),
		metric.WithDescription("Order confirmation outcomes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TokenUsage:        tokenUsage,
		OperationDuration: operationDuration,
		Cost:              cost,
		RetryCount:        retryCount,
		FallbackCount:     fallbackCount,
		ErrorCount:        errorCount,
		ChatDuration:      chatDuration,
		ParseTier:         parseTier,
		ConfirmOutcomes:   confirmOutcomes,
	}, nil
}

type RecordParams struct {
	Provider     string
	Model        string
	Stage        string
	InputTokens  int
	OutputTokens int
	DurationSec  float64
	CostUSD      float64
}

func (g *Metrics) RecordGenAIMetrics(ctx context.Context, p RecordParams) {
	baseAttrs := []attribute.KeyValue{
		attribute.String("gen_ai.operation.name", "chat"),
		attribute.String("gen_ai.provider.name", p.Provider),
		attribute.String("gen_ai.request.model", p.Model),
	}
	if p.Stage != "" {
		baseAttrs = append(baseAttrs, attribute.String("chatbot.stage", p.Stage))
	}
	attrs := metric.WithAttributes(baseAttrs...)

	g.TokenUsage.Record(ctx, float64(p.InputTokens),
		attrs,
		metric.WithAttributes(attribute.String("gen_ai.token.type", "input")),
	)
	g.TokenUsage.Record(ctx, float64(p.OutputTokens),
		attrs,
		metric.WithAttributes(attribute.String("gen_ai.token.type", "output")),
	)
	g.OperationDuration.Record(ctx, p.DurationSec, attrs)
	g.Cost.Add(ctx, p.CostUSD, attrs)
}

func WithProviderModel(provider, model string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("gen_ai.provider.name", provider),
		attribute.String("gen_ai.request.model", model),
	)
}

func WithIntent(intent string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("chatbot.intent", intent))
}

func WithTier(tier string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("chatbot.parse_tier", tier))
}

func WithOutcome(outcome string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("chatbot.outcome", outcome))
}
