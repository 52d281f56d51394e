package livescore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"github.com/riskibarqy/livescore-crawler/internal/platform/resilience"
	"github.com/riskibarqy/livescore-crawler/internal/usecase"
)

const (
	MinGames = 1
	MaxGames = 50
)

// Client fetches the results page data of one team for a given build id.
type Client struct {
	transport *transport
	flight    resilience.SingleFlight[upstreamResponse]
}

func NewClient(cfg Config) *Client {
	return &Client{transport: newTransport(cfg)}
}

// FetchTeamGames issues one request against the versioned data route and maps the
// payload. A 404 or an error envelope means the build id is stale.
func (c *Client) FetchTeamGames(ctx context.Context, team match.TeamReference, count int, buildID string) (match.Batch, error) {
	if err := team.Validate(); err != nil {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchInvalidInput, 0, err)
	}
	if count < MinGames || count > MaxGames {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchInvalidInput, 0, fmt.Errorf("count must be between %d and %d, got %d", MinGames, MaxGames, count))
	}
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchStaleIdentifier, 0, crerr.New("empty build id"))
	}

	fullURL := c.resultsURL(team, count, buildID)
	resp, err, shared := c.flight.Do(ctx, fullURL, func(callCtx context.Context) (upstreamResponse, error) {
		return c.transport.get(callCtx, fullURL, c.transport.dataHeaders(c.refererURL(team)))
	})
	if err != nil {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchNetworkFailure, resp.status, err)
	}
	if shared {
		c.transport.logger.DebugContext(ctx, "livescore results request shared", "team", team.String())
	}

	switch {
	case resp.status == http.StatusNotFound:
		return match.Batch{}, usecase.NewFetchError(usecase.FetchStaleIdentifier, resp.status, statusError(resp))
	case !resp.ok():
		return match.Batch{}, usecase.NewFetchError(usecase.FetchNetworkFailure, resp.status, statusError(resp))
	}

	var payload resultsPayload
	if err := sonic.Unmarshal(resp.body, &payload); err != nil {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchInvalidResponse, resp.status, crerr.Wrap(err, "decode provider payload"))
	}
	if payload.isErrorEnvelope() {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchStaleIdentifier, resp.status, crerr.Newf("provider error envelope: %s", abbreviateBody(resp.body)))
	}
	groups, ok := payload.groups()
	if !ok {
		return match.Batch{}, usecase.NewFetchError(usecase.FetchInvalidResponse, resp.status, crerr.New("payload has no pageProps.initialData.eventsByMatchType"))
	}

	batch := mapBatch(groups, count)
	if batch.Skipped > 0 {
		c.transport.logger.WarnContext(ctx, "skipped malformed livescore events",
			"team", team.String(),
			"skipped", batch.Skipped,
			"kept", len(batch.Records),
		)
	}
	return batch, nil
}

func (c *Client) resultsURL(team match.TeamReference, count int, buildID string) string {
	slug := strings.TrimSpace(team.Slug)
	id := strings.TrimSpace(team.ID)

	path := fmt.Sprintf("/_next/data/%s/en/football/team/%s/%s/results.json",
		url.PathEscape(buildID),
		url.PathEscape(slug),
		url.PathEscape(id),
	)

	values := url.Values{}
	values.Set("sport", "football")
	values.Set("teamName", slug)
	values.Set("teamId", id)
	values.Set("count", strconv.Itoa(count))

	return c.transport.baseURL + path + "?" + values.Encode()
}

func (c *Client) refererURL(team match.TeamReference) string {
	return fmt.Sprintf("%s/en/football/team/%s/%s/results/",
		c.transport.baseURL,
		url.PathEscape(strings.TrimSpace(team.Slug)),
		url.PathEscape(strings.TrimSpace(team.ID)),
	)
}
