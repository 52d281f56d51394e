package livescore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
	"github.com/riskibarqy/livescore-crawler/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL     = "https://www.livescore.com"
	defaultTimeout     = 8 * time.Second
	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
	defaultLanguage    = "en-GB,en;q=0.9"
	maxResponseBytes   = 6 << 20
	maxLoggedBodyBytes = 240
)

var errLiveScoreTransient = crerr.New("livescore transient failure")

// Config is shared by the resolver and the results client.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	// BuildIDPattern overrides the script path pattern. It must hold one capture group.
	BuildIDPattern string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type upstreamResponse struct {
	status int
	body   []byte
}

func (r upstreamResponse) ok() bool {
	return r.status >= 200 && r.status < 300
}

type transport struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func newTransport(cfg Config) *transport {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("livescore circuit breaker state changed", "from", from, "to", to, "base_url", baseURL)
		}
	}
	return &transport{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// get issues exactly one GET. Transport failures, 429 and 5xx come back as errors
// marked transient; every other status is returned for the caller to classify.
func (t *transport) get(ctx context.Context, rawURL string, header http.Header) (upstreamResponse, error) {
	var out upstreamResponse
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return crerr.Wrap(err, "build request")
		}
		req.Header = header.Clone()

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return crerr.Mark(crerr.Wrap(err, "send request"), errLiveScoreTransient)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return crerr.Mark(crerr.Wrap(err, "read response body"), errLiveScoreTransient)
		}
		out = upstreamResponse{status: resp.StatusCode, body: raw}

		if isRetryableStatus(resp.StatusCode) {
			return crerr.Mark(crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errLiveScoreTransient)
		}
		return nil
	}

	var err error
	if t.circuitEnabled {
		err = t.breaker.Execute(call, isTransientFailure)
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			t.logger.WarnContext(ctx, "livescore circuit breaker rejected request", "state", t.breaker.State(), "url", rawURL)
		}
	} else {
		err = call()
	}
	if err != nil {
		t.logger.WarnContext(ctx, "livescore request failed", "url", rawURL, "status", out.status, "error", err)
	}
	return out, err
}

func (t *transport) pageHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", t.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", defaultLanguage)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	return h
}

func (t *transport) dataHeaders(referer string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", t.userAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", defaultLanguage)
	h.Set("Referer", referer)
	h.Set("x-nextjs-data", "1")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	return h
}

func isTransientFailure(err error) bool {
	return crerr.Is(err, errLiveScoreTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxLoggedBodyBytes {
		return text
	}
	return text[:maxLoggedBodyBytes] + "..."
}

func statusError(resp upstreamResponse) error {
	return fmt.Errorf("provider status=%d body=%s", resp.status, abbreviateBody(resp.body))
}
