package usecase

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"github.com/riskibarqy/livescore-crawler/internal/platform/cache"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultBatchWorkers = 4

// BuildIDResolver hands out the provider build id and replaces it once it goes stale.
type BuildIDResolver interface {
	Resolve(ctx context.Context, forceRefresh bool) (string, error)
	Refresh(ctx context.Context, stale string) (string, error)
}

// TeamGamesFetcher retrieves one team's recent games for a given build id.
type TeamGamesFetcher interface {
	FetchTeamGames(ctx context.Context, team match.TeamReference, count int, buildID string) (match.Batch, error)
}

type TeamGamesServiceConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	BatchMaxWorkers int
}

type TeamGamesService struct {
	resolver   BuildIDResolver
	fetcher    TeamGamesFetcher
	logger     *logging.Logger
	validate   *validator.Validate
	results    *cache.Store[[]match.Record]
	maxWorkers int
}

type teamGamesInput struct {
	Slug   string `validate:"required"`
	TeamID string `validate:"required,number"`
	Count  int    `validate:"min=1,max=50"`
}

// TeamGamesResult is one entry of a batch lookup. Err carries the typed failure of
// that team only.
type TeamGamesResult struct {
	Team    match.TeamReference
	Records []match.Record
	Err     error
}

func NewTeamGamesService(resolver BuildIDResolver, fetcher TeamGamesFetcher, logger *logging.Logger, cfg TeamGamesServiceConfig) *TeamGamesService {
	if logger == nil {
		logger = logging.Default()
	}

	svc := &TeamGamesService{
		resolver:   resolver,
		fetcher:    fetcher,
		logger:     logger,
		validate:   validator.New(),
		maxWorkers: cfg.BatchMaxWorkers,
	}
	if svc.maxWorkers <= 0 {
		svc.maxWorkers = defaultBatchWorkers
	}
	if cfg.CacheEnabled && cfg.CacheTTL > 0 {
		svc.results = cache.NewStore[[]match.Record](cfg.CacheTTL)
	}
	return svc
}

// GetTeamGames returns up to count recent games of the team, most recent first.
// Failures are always a *FetchError or a *ResolutionError.
func (s *TeamGamesService) GetTeamGames(ctx context.Context, teamSlug, teamID string, count int) ([]match.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamGamesService.GetTeamGames")
	defer span.End()

	input := teamGamesInput{
		Slug:   strings.TrimSpace(teamSlug),
		TeamID: strings.TrimSpace(teamID),
		Count:  count,
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, NewFetchError(FetchInvalidInput, 0, err)
	}
	team := match.TeamReference{Slug: input.Slug, ID: input.TeamID}
	span.SetAttributes(teamAttributes(team, count)...)

	if s.results == nil {
		return s.fetch(ctx, team, count)
	}

	records, err := s.results.GetOrLoad(ctx, cacheKey(team, count), func(ctx context.Context) ([]match.Record, error) {
		return s.fetch(ctx, team, count)
	})
	if err != nil {
		if _, ok := AsResolutionError(err); ok {
			return nil, err
		}
		return nil, asFetchFailure(err)
	}
	return slices.Clone(records), nil
}

// GetManyTeamGames runs GetTeamGames for each team on a bounded worker pool. Results
// keep the order of teams.
func (s *TeamGamesService) GetManyTeamGames(ctx context.Context, teams []match.TeamReference, count int) ([]TeamGamesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamGamesService.GetManyTeamGames",
		attribute.Int("teams", len(teams)),
		attribute.Int("games.count", count),
	)
	defer span.End()

	if len(teams) == 0 {
		return nil, NewFetchError(FetchInvalidInput, 0, crerr.New("at least one team is required"))
	}

	workerCount := min(s.maxWorkers, len(teams))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, crerr.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	results := make([]TeamGamesResult, len(teams))
	var workers sync.WaitGroup
	var submitErr error
	for i, team := range teams {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			records, err := s.GetTeamGames(ctx, team.Slug, team.ID, count)
			results[i] = TeamGamesResult{Team: team, Records: records, Err: err}
		}); err != nil {
			workers.Done()
			submitErr = crerr.Wrap(err, "submit team lookup to worker pool")
			break
		}
	}
	workers.Wait()

	if submitErr != nil {
		return nil, submitErr
	}
	return results, nil
}

type fetchStep string

const (
	stepResolve fetchStep = "resolve"
	stepRequest fetchStep = "request"
	stepRefresh fetchStep = "refresh"
)

// fetch walks resolve -> request, and on a stale build id refresh -> request once.
// A second stale answer is returned to the caller as is.
func (s *TeamGamesService) fetch(ctx context.Context, team match.TeamReference, count int) ([]match.Record, error) {
	span := trace.SpanFromContext(ctx)
	step := stepResolve
	buildID := ""
	refreshed := false

	for {
		recordFetchStep(span, step, buildID)
		switch step {
		case stepResolve:
			id, err := s.resolver.Resolve(ctx, false)
			if err != nil {
				return nil, asResolutionFailure(err)
			}
			buildID = id
			step = stepRequest

		case stepRequest:
			batch, err := s.fetcher.FetchTeamGames(ctx, team, count, buildID)
			if err == nil {
				s.logger.InfoContext(ctx, "team games fetched",
					"team", team.String(),
					"count", count,
					"records", len(batch.Records),
					"skipped", batch.Skipped,
					"refreshed_build_id", refreshed,
				)
				return batch.Records, nil
			}

			fetchErr := asFetchFailure(err)
			if fetchErr.Kind != FetchStaleIdentifier || refreshed {
				s.logger.WarnContext(ctx, "team games fetch failed",
					"team", team.String(),
					"kind", string(fetchErr.Kind),
					"refreshed_build_id", refreshed,
					"error", fetchErr,
				)
				return nil, fetchErr
			}
			s.logger.WarnContext(ctx, "build id rejected by provider, refreshing", "team", team.String(), "build_id", buildID)
			step = stepRefresh

		case stepRefresh:
			refreshed = true
			id, err := s.resolver.Refresh(ctx, buildID)
			if err != nil {
				return nil, asResolutionFailure(err)
			}
			buildID = id
			s.forgetTeam(ctx, team)
			step = stepRequest

		default:
			return nil, NewFetchError(FetchNetworkFailure, 0, fmt.Errorf("unknown fetch step %q", step))
		}
	}
}

func asResolutionFailure(err error) error {
	if resErr, ok := AsResolutionError(err); ok {
		return resErr
	}
	return NewResolutionError(ResolutionNetworkFailure, 0, err)
}

func asFetchFailure(err error) *FetchError {
	if fetchErr, ok := AsFetchError(err); ok {
		return fetchErr
	}
	return NewFetchError(FetchNetworkFailure, 0, err)
}

// forgetTeam drops every cached count of team once the provider rotated its build, so
// results from the previous deployment are not served next to fresh ones.
func (s *TeamGamesService) forgetTeam(ctx context.Context, team match.TeamReference) {
	if s.results == nil {
		return
	}
	s.results.DeletePrefix(ctx, teamCachePrefix(team))
}

func teamCachePrefix(team match.TeamReference) string {
	return "games:" + team.ID + ":" + team.Slug + ":"
}

func cacheKey(team match.TeamReference, count int) string {
	return teamCachePrefix(team) + strconv.Itoa(count)
}
