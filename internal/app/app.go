package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/livescore-crawler/external/livescore"
	"github.com/riskibarqy/livescore-crawler/internal/catalog"
	"github.com/riskibarqy/livescore-crawler/internal/config"
	"github.com/riskibarqy/livescore-crawler/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/livescore-crawler/internal/platform/id"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
	"github.com/riskibarqy/livescore-crawler/internal/platform/resilience"
	"github.com/riskibarqy/livescore-crawler/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	presets, err := catalog.Load(cfg.TeamCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load team catalog: %w", err)
	}

	providerCfg := livescore.Config{
		BaseURL:        cfg.LiveScoreBaseURL,
		Timeout:        cfg.LiveScoreTimeout,
		UserAgent:      cfg.LiveScoreUserAgent,
		BuildIDPattern: cfg.LiveScoreBuildIDPattern,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LiveScoreCircuitEnabled,
			FailureThreshold: cfg.LiveScoreCircuitFailureCount,
			OpenTimeout:      cfg.LiveScoreCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LiveScoreCircuitHalfOpenMaxReq,
		},
	}
	resolver, err := livescore.NewResolver(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("build id resolver: %w", err)
	}
	client := livescore.NewClient(providerCfg)

	teamGamesSvc := usecase.NewTeamGamesService(resolver, client, logger, usecase.TeamGamesServiceConfig{
		CacheEnabled:    cfg.CacheEnabled,
		CacheTTL:        cfg.CacheTTL,
		BatchMaxWorkers: cfg.BatchMaxWorkers,
	})

	handler := httpapi.NewHandler(teamGamesSvc, presets, logger)
	router := httpapi.NewRouter(handler, logger, idgen.NewUUIDGenerator(), cfg.CORSAllowedOrigins)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
