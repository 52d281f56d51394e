package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/livescore-crawler/internal/config"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:           config.EnvDev,
		ServiceName:      "livescore-crawler",
		HTTPAddr:         ":0",
		ReadTimeout:      time.Second,
		WriteTimeout:     time.Second,
		LiveScoreBaseURL: "http://127.0.0.1:1",
		LiveScoreTimeout: time.Second,
		BatchMaxWorkers:  2,
	}
}

func TestNewHTTPServer_ServesPresets(t *testing.T) {
	srv, err := NewHTTPServer(testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}
	if srv.ReadTimeout != time.Second || srv.WriteTimeout != time.Second {
		t.Fatalf("unexpected timeouts: %v %v", srv.ReadTimeout, srv.WriteTimeout)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams/presets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestNewHTTPServer_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	if _, err := NewHTTPServer(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestNewHTTPServer_RejectsMissingCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.TeamCatalogPath = t.TempDir() + "/missing.yaml"

	if _, err := NewHTTPServer(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}

func TestNewHTTPServer_RejectsBadBuildIDPattern(t *testing.T) {
	cfg := testConfig()
	cfg.LiveScoreBuildIDPattern = "/_next/static/[^/]+/"

	if _, err := NewHTTPServer(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for pattern without capture group")
	}
}
