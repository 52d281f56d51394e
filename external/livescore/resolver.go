package livescore

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/livescore-crawler/internal/platform/resilience"
	"github.com/riskibarqy/livescore-crawler/internal/usecase"
)

const buildIDFlightKey = "build-id"

// DefaultBuildIDPattern matches the Next.js static asset prefix, /_next/static/<build id>/.
const DefaultBuildIDPattern = `/_next/static/([^/]+)/`

var nextDataBuildIDRegex = regexp.MustCompile(`"buildId"\s*:\s*"([^"]+)"`)

// Asset folders that share the /_next/static/ prefix with the build id.
var reservedStaticSegments = map[string]struct{}{
	"chunks":  {},
	"css":     {},
	"media":   {},
	"webpack": {},
}

// Resolver discovers the build id LiveScore embeds in its landing page and keeps the
// last one that worked.
type Resolver struct {
	transport *transport
	pattern   *regexp.Regexp

	mu      sync.RWMutex
	buildID string
	flight  resilience.SingleFlight[string]
}

func NewResolver(cfg Config) (*Resolver, error) {
	raw := strings.TrimSpace(cfg.BuildIDPattern)
	if raw == "" {
		raw = DefaultBuildIDPattern
	}
	pattern, err := regexp.Compile(raw)
	if err != nil {
		return nil, crerr.Wrapf(err, "compile build id pattern %q", raw)
	}
	if pattern.NumSubexp() < 1 {
		return nil, crerr.Newf("build id pattern %q needs a capture group", raw)
	}

	return &Resolver{
		transport: newTransport(cfg),
		pattern:   pattern,
	}, nil
}

// Current returns the cached build id without touching the network.
func (r *Resolver) Current() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buildID, r.buildID != ""
}

// Resolve returns the cached build id, or loads it from the landing page when nothing
// is cached or forceRefresh is set. Concurrent loads share one request.
func (r *Resolver) Resolve(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		if id, ok := r.Current(); ok {
			return id, nil
		}
	}

	id, err, _ := r.flight.Do(ctx, buildIDFlightKey, func(loadCtx context.Context) (string, error) {
		if !forceRefresh {
			if cached, ok := r.Current(); ok {
				return cached, nil
			}
		}
		return r.load(loadCtx)
	})
	if err != nil {
		if _, ok := usecase.AsResolutionError(err); !ok {
			return "", usecase.NewResolutionError(usecase.ResolutionNetworkFailure, 0, err)
		}
		return "", err
	}
	return id, nil
}

// Refresh replaces a build id the provider rejected. When another caller already
// swapped it out, the newer value is returned without a request.
func (r *Resolver) Refresh(ctx context.Context, stale string) (string, error) {
	if id, ok := r.Current(); ok && id != stale {
		return id, nil
	}
	return r.Resolve(ctx, true)
}

func (r *Resolver) load(ctx context.Context) (string, error) {
	landingURL := r.transport.baseURL + "/"
	resp, err := r.transport.get(ctx, landingURL, r.transport.pageHeaders())
	if err != nil {
		return "", usecase.NewResolutionError(usecase.ResolutionNetworkFailure, resp.status, err)
	}
	if !resp.ok() {
		return "", usecase.NewResolutionError(usecase.ResolutionNetworkFailure, resp.status, statusError(resp))
	}

	id, err := extractBuildID(resp.body, r.pattern)
	if err != nil {
		return "", usecase.NewResolutionError(usecase.ResolutionNotFound, resp.status, err)
	}

	r.mu.Lock()
	previous := r.buildID
	r.buildID = id
	r.mu.Unlock()

	if previous != id {
		r.transport.logger.InfoContext(ctx, "livescore build id resolved", "build_id", id, "previous_build_id", previous)
	}
	return id, nil
}

var errBuildIDMissing = crerr.New("no build id in landing page")

// extractBuildID scans asset references first, then the __NEXT_DATA__ blob.
func extractBuildID(page []byte, pattern *regexp.Regexp) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", crerr.Wrap(err, "parse landing page")
	}

	found := ""
	doc.Find("script[src], link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		ref, ok := s.Attr("src")
		if !ok {
			ref, _ = s.Attr("href")
		}
		if candidate := matchBuildID(pattern, ref); candidate != "" {
			found = candidate
			return false
		}
		return true
	})
	if found != "" {
		return found, nil
	}

	doc.Find("script#__NEXT_DATA__").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if candidate := matchBuildID(nextDataBuildIDRegex, s.Text()); candidate != "" {
			found = candidate
			return false
		}
		return true
	})
	if found != "" {
		return found, nil
	}

	return "", errBuildIDMissing
}

func matchBuildID(pattern *regexp.Regexp, text string) string {
	for _, groups := range pattern.FindAllStringSubmatch(text, -1) {
		if len(groups) < 2 {
			continue
		}
		candidate := strings.TrimSpace(groups[1])
		if candidate == "" {
			continue
		}
		if _, reserved := reservedStaticSegments[candidate]; reserved {
			continue
		}
		return candidate
	}
	return ""
}
