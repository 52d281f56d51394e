package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("livescore-crawler/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startUsecaseSpan only opens child spans; without an inbound request span the
// helper returns a noop span.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func teamAttributes(team match.TeamReference, count int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("team.slug", team.Slug),
		attribute.String("team.id", team.ID),
		attribute.Int("games.count", count),
	}
}

// recordFetchStep marks a state machine transition on the span.
func recordFetchStep(span trace.Span, step fetchStep, buildID string) {
	if !span.IsRecording() {
		return
	}
	span.AddEvent("fetch."+string(step), trace.WithAttributes(attribute.String("build_id", buildID)))
}
