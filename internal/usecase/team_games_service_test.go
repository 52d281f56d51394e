package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	usecasemock "github.com/riskibarqy/livescore-crawler/internal/mocks/usecase"
	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var westHam = match.TeamReference{Slug: "west-ham-united", ID: "252"}

func sampleBatch(n int) match.Batch {
	records := make([]match.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, match.Record{
			Kickoff:      time.Date(2024, 5, 19-i, 15, 0, 0, 0, time.UTC),
			KickoffKnown: true,
			HomeTeam:     "West Ham United",
			AwayTeam:     "Opponent",
			Score:        match.PlayedScore(i, 1),
			Competition:  "Premier League",
			Stage:        "Regular Season",
			Status:       match.StatusFinished,
		})
	}
	return match.Batch{Records: records}
}

func newTestService(resolver BuildIDResolver, fetcher TeamGamesFetcher, cfg TeamGamesServiceConfig) *TeamGamesService {
	return NewTeamGamesService(resolver, fetcher, logging.NewNop(), cfg)
}

func TestTeamGamesService_GetTeamGames_InvalidInputMakesNoCalls(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		slug  string
		id    string
		count int
	}{
		{name: "empty slug", slug: "  ", id: "252", count: 5},
		{name: "empty id", slug: "west-ham-united", id: "", count: 5},
		{name: "non numeric id", slug: "west-ham-united", id: "abc", count: 5},
		{name: "negative id", slug: "west-ham-united", id: "-252", count: 5},
		{name: "zero count", slug: "west-ham-united", id: "252", count: 0},
		{name: "count above max", slug: "west-ham-united", id: "252", count: 51},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resolver := usecasemock.NewBuildIDResolver(t)
			fetcher := usecasemock.NewTeamGamesFetcher(t)
			svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

			_, err := svc.GetTeamGames(context.Background(), tc.slug, tc.id, tc.count)
			fetchErr, ok := AsFetchError(err)
			require.True(t, ok, "expected FetchError, got %v", err)
			require.Equal(t, FetchInvalidInput, fetchErr.Kind)
			require.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestTeamGamesService_GetTeamGames_Success(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 5, "build-a").Return(sampleBatch(5), nil).Once()

	got, err := svc.GetTeamGames(context.Background(), " west-ham-united ", "252", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, "West Ham United", got[0].HomeTeam)
}

func TestTeamGamesService_GetTeamGames_StaleThenSuccessRetriesOnce(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).Return("old-build", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 3, "old-build").
		Return(match.Batch{}, NewFetchError(FetchStaleIdentifier, 404, errors.New("not found"))).
		Once()
	resolver.On("Refresh", mock.Anything, "old-build").Return("new-build", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 3, "new-build").Return(sampleBatch(3), nil).Once()

	got, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestTeamGamesService_GetTeamGames_SecondStaleIsSurfaced(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	stale := NewFetchError(FetchStaleIdentifier, 404, errors.New("not found"))
	resolver.On("Resolve", mock.Anything, false).Return("old-build", nil).Once()
	resolver.On("Refresh", mock.Anything, "old-build").Return("new-build", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 5, mock.AnythingOfType("string")).
		Return(match.Batch{}, stale).
		Twice()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 5)
	fetchErr, ok := AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, FetchStaleIdentifier, fetchErr.Kind)
	fetcher.AssertNumberOfCalls(t, "FetchTeamGames", 2)
}

func TestTeamGamesService_GetTeamGames_NetworkFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 5, "build-a").
		Return(match.Batch{}, NewFetchError(FetchNetworkFailure, 503, errors.New("unavailable"))).
		Once()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 5)
	fetchErr, ok := AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, FetchNetworkFailure, fetchErr.Kind)
	require.Equal(t, 503, fetchErr.StatusCode)
	require.True(t, errors.Is(err, ErrDependencyUnavailable))
}

func TestTeamGamesService_GetTeamGames_ResolutionFailureSkipsFetch(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).
		Return("", NewResolutionError(ResolutionNotFound, 0, errors.New("no build id"))).
		Once()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 5)
	resErr, ok := AsResolutionError(err)
	require.True(t, ok)
	require.Equal(t, ResolutionNotFound, resErr.Kind)
	fetcher.AssertNotCalled(t, "FetchTeamGames", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTeamGamesService_GetTeamGames_RefreshFailureIsResolutionError(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).Return("old-build", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 5, "old-build").
		Return(match.Batch{}, NewFetchError(FetchStaleIdentifier, 404, nil)).
		Once()
	resolver.On("Refresh", mock.Anything, "old-build").
		Return("", errors.New("dial tcp: connection refused")).
		Once()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 5)
	resErr, ok := AsResolutionError(err)
	require.True(t, ok)
	require.Equal(t, ResolutionNetworkFailure, resErr.Kind)
}

func TestTeamGamesService_GetTeamGames_UntypedFetchErrorBecomesNetworkFailure(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{})

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 5, "build-a").
		Return(match.Batch{}, context.DeadlineExceeded).
		Once()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 5)
	fetchErr, ok := AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, FetchNetworkFailure, fetchErr.Kind)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTeamGamesService_GetTeamGames_CacheServesRepeatLookups(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{CacheEnabled: true, CacheTTL: time.Minute})

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 2, "build-a").Return(sampleBatch(2), nil).Once()

	first, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 2)
	require.NoError(t, err)
	first[0].HomeTeam = "mutated"

	second, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 2)
	require.NoError(t, err)
	require.Equal(t, "West Ham United", second[0].HomeTeam)
}

func TestTeamGamesService_GetTeamGames_RefreshDropsCachedTeamResults(t *testing.T) {
	t.Parallel()

	arsenal := match.TeamReference{Slug: "arsenal", ID: "675"}
	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{CacheEnabled: true, CacheTTL: time.Minute})

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Times(4)
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 2, "build-a").Return(sampleBatch(2), nil).Twice()
	fetcher.On("FetchTeamGames", mock.Anything, arsenal, 2, "build-a").Return(sampleBatch(2), nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 3, "build-a").
		Return(match.Batch{}, NewFetchError(FetchStaleIdentifier, 404, nil)).
		Once()
	resolver.On("Refresh", mock.Anything, "build-a").Return("build-b", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 3, "build-b").Return(sampleBatch(3), nil).Once()

	_, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 2)
	require.NoError(t, err)
	_, err = svc.GetTeamGames(context.Background(), arsenal.Slug, arsenal.ID, 2)
	require.NoError(t, err)

	records, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// West Ham's cached count=2 went with the old build; Arsenal's entry stays.
	_, err = svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 2)
	require.NoError(t, err)
	_, err = svc.GetTeamGames(context.Background(), arsenal.Slug, arsenal.ID, 2)
	require.NoError(t, err)

	fetcher.AssertNumberOfCalls(t, "FetchTeamGames", 5)
}

func TestTeamGamesService_GetTeamGames_CachedCallerCancelIsTyped(t *testing.T) {
	t.Parallel()

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{CacheEnabled: true, CacheTTL: time.Minute})

	release := make(chan struct{})
	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Once()
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 2, "build-a").
		Return(func(context.Context, match.TeamReference, int, string) (match.Batch, error) {
			<-release
			return sampleBatch(2), nil
		}).
		Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetTeamGames(ctx, westHam.Slug, westHam.ID, 2)
	fetchErr, ok := AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, FetchNetworkFailure, fetchErr.Kind)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		records, err := svc.GetTeamGames(context.Background(), westHam.Slug, westHam.ID, 2)
		return err == nil && len(records) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTeamGamesService_GetManyTeamGames_KeepsOrderAndPerTeamErrors(t *testing.T) {
	t.Parallel()

	arsenal := match.TeamReference{Slug: "arsenal", ID: "675"}
	liverpool := match.TeamReference{Slug: "liverpool", ID: "24"}

	resolver := usecasemock.NewBuildIDResolver(t)
	fetcher := usecasemock.NewTeamGamesFetcher(t)
	svc := newTestService(resolver, fetcher, TeamGamesServiceConfig{BatchMaxWorkers: 2})

	var inFlight, peak atomic.Int32
	track := func(batch match.Batch, err error) func(context.Context, match.TeamReference, int, string) (match.Batch, error) {
		return func(context.Context, match.TeamReference, int, string) (match.Batch, error) {
			current := inFlight.Add(1)
			for {
				seen := peak.Load()
				if current <= seen || peak.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return batch, err
		}
	}

	resolver.On("Resolve", mock.Anything, false).Return("build-a", nil).Times(3)
	fetcher.On("FetchTeamGames", mock.Anything, westHam, 2, "build-a").Return(track(sampleBatch(2), nil)).Once()
	fetcher.On("FetchTeamGames", mock.Anything, arsenal, 2, "build-a").
		Return(track(match.Batch{}, NewFetchError(FetchInvalidResponse, 200, errors.New("bad payload")))).
		Once()
	fetcher.On("FetchTeamGames", mock.Anything, liverpool, 2, "build-a").Return(track(sampleBatch(1), nil)).Once()

	results, err := svc.GetManyTeamGames(context.Background(), []match.TeamReference{westHam, arsenal, liverpool}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, westHam, results[0].Team)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Records, 2)

	require.Equal(t, arsenal, results[1].Team)
	fetchErr, ok := AsFetchError(results[1].Err)
	require.True(t, ok)
	require.Equal(t, FetchInvalidResponse, fetchErr.Kind)

	require.Equal(t, liverpool, results[2].Team)
	require.Len(t, results[2].Records, 1)

	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTeamGamesService_GetManyTeamGames_RequiresTeams(t *testing.T) {
	t.Parallel()

	svc := newTestService(usecasemock.NewBuildIDResolver(t), usecasemock.NewTeamGamesFetcher(t), TeamGamesServiceConfig{})

	_, err := svc.GetManyTeamGames(context.Background(), nil, 5)
	require.ErrorIs(t, err, ErrInvalidInput)
}
