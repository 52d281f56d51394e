package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/livescore-crawler/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, usecase.NewFetchError(usecase.FetchInvalidInput, 0, errors.New("count must be between 1 and 50")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
	if got, _ := errorObj["message"].(string); got != usecase.UserMessage(usecase.NewFetchError(usecase.FetchInvalidInput, 0, nil)) {
		t.Fatalf("expected user facing message, got %q", got)
	}
}

func TestMapError_ByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{name: "invalid input", err: usecase.NewFetchError(usecase.FetchInvalidInput, 0, nil), status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "stale identifier", err: usecase.NewFetchError(usecase.FetchStaleIdentifier, 404, nil), status: http.StatusBadGateway, reason: "staleIdentifier"},
		{name: "invalid response", err: usecase.NewFetchError(usecase.FetchInvalidResponse, 200, nil), status: http.StatusBadGateway, reason: "invalidResponse"},
		{name: "fetch network", err: usecase.NewFetchError(usecase.FetchNetworkFailure, 503, nil), status: http.StatusServiceUnavailable, reason: "providerUnreachable"},
		{name: "build id missing", err: usecase.NewResolutionError(usecase.ResolutionNotFound, 200, nil), status: http.StatusBadGateway, reason: "buildIdNotFound"},
		{name: "resolution network", err: usecase.NewResolutionError(usecase.ResolutionNetworkFailure, 0, nil), status: http.StatusServiceUnavailable, reason: "providerUnreachable"},
		{name: "wrapped sentinel", err: fmt.Errorf("%w: nope", usecase.ErrDependencyUnavailable), status: http.StatusServiceUnavailable, reason: "dependencyUnavailable"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, reason: "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.status || got.Reason != tt.reason {
				t.Fatalf("mapError(%v)=%+v want status=%d reason=%s", tt.err, got, tt.status, tt.reason)
			}
		})
	}
}
