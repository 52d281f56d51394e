package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("livescore-crawler/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// Filtered routes such as /healthz carry no parent; helpers stay silent there.
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

func annotateTeams(span trace.Span, count int, teams ...match.TeamReference) {
	if !span.IsRecording() {
		return
	}
	refs := make([]string, 0, len(teams))
	for _, team := range teams {
		refs = append(refs, team.String())
	}
	span.SetAttributes(
		attribute.StringSlice("teams", refs),
		attribute.Int("games.count", count),
	)
}
