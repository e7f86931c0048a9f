package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"orderagent"
)

// InstrumentedExtractor wraps an extraction backend with traces and
// metrics per extraction call.
type InstrumentedExtractor struct {
	inner  orderagent.Extractor
	tracer trace.Tracer

	callsCounter     metric.Int64Counter
	failuresCounter  metric.Int64Counter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	latencyHist      metric.Float64Histogram
}

// NewInstrumentedExtractor initializes an instrumented wrapper around an
// extraction backend.
func NewInstrumentedExtractor(inner orderagent.Extractor, tracer trace.Tracer, meter metric.Meter) *InstrumentedExtractor {
	callsCounter, _ := meter.Int64Counter("extraction_calls_total",
		metric.WithDescription("Total number of extraction calls made"))
	failuresCounter, _ := meter.Int64Counter("extraction_failures_total",
		metric.WithDescription("Total number of extraction calls that failed"))
	promptTokens, _ := meter.Int64Counter("extraction_prompt_tokens_total",
		metric.WithDescription("Total prompt tokens consumed by extraction calls"))
	completionTokens, _ := meter.Int64Counter("extraction_completion_tokens_total",
		metric.WithDescription("Total completion tokens produced by extraction calls"))
	latencyHist, _ := meter.Float64Histogram("extraction_duration_seconds",
		metric.WithDescription("Duration of extraction calls in seconds"))

	return &InstrumentedExtractor{
		inner:            inner,
		tracer:           tracer,
		callsCounter:     callsCounter,
		failuresCounter:  failuresCounter,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		latencyHist:      latencyHist,
	}
}

func (e *InstrumentedExtractor) Extract(ctx context.Context, req orderagent.ExtractionRequest) (orderagent.Candidate, orderagent.Usage, error) {
	ctx, span := e.tracer.Start(ctx, "Extractor.Extract",
		trace.WithAttributes(
			attribute.String("extraction.schema", string(req.Schema)),
			attribute.Int("extraction.messages", len(req.Messages)),
		),
	)
	defer span.End()

	schemaAttr := metric.WithAttributes(attribute.String("schema", string(req.Schema)))
	e.callsCounter.Add(ctx, 1, schemaAttr)

	start := time.Now()
	cand, usage, err := e.inner.Extract(ctx, req)
	e.latencyHist.Record(ctx, time.Since(start).Seconds(), schemaAttr)

	e.promptTokens.Add(ctx, int64(usage.PromptTokens), schemaAttr)
	e.completionTokens.Add(ctx, int64(usage.CompletionTokens), schemaAttr)

	if err != nil {
		e.failuresCounter.Add(ctx, 1, schemaAttr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return cand, usage, err
	}

	span.SetAttributes(
		attribute.Int("extraction.menu_items", len(cand.MenuItems)),
		attribute.Int("extraction.unrecognized_items", len(cand.UnrecognizedItems)),
		attribute.Bool("extraction.is_completed", cand.IsCompleted),
		attribute.Bool("extraction.is_finalized", cand.IsFinalized),
	)
	return cand, usage, nil
}
