package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const (
	syncStatusSuccess = "success"
	syncStatusFailed  = "failed"
	syncStatusSkipped = "skipped"

	defaultSyncWorkers = 3
)

type FixtureService struct {
	feed   fixture.Feed
	cache  fixture.Repository
	logger *logging.Logger
}

func NewFixtureService(feed fixture.Feed, cache fixture.Repository, logger *logging.Logger) *FixtureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureService{
		feed:   feed,
		cache:  cache,
		logger: logger,
	}
}

// ListLive returns the live set written by the last successful poll.
func (s *FixtureService) ListLive(ctx context.Context) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ListLive")
	defer span.End()

	items, err := s.cache.ListLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list live fixtures: %w", err)
	}
	return items, nil
}

// ListFixtures reads from the backend and refreshes the cache. When the
// backend is unreachable the cached fixtures are served instead.
func (s *FixtureService) ListFixtures(ctx context.Context, query fixture.Query) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ListFixtures")
	defer span.End()

	query, err := normalizeFixtureQuery(query)
	if err != nil {
		return nil, err
	}

	items, err := s.feed.ListFixtures(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrTransport) && !errors.Is(err, ErrDependencyUnavailable) {
			return nil, fmt.Errorf("list fixtures: %w", err)
		}
		cached, cacheErr := s.cache.List(ctx, query)
		if cacheErr != nil || len(cached) == 0 {
			return nil, fmt.Errorf("list fixtures: %w", err)
		}
		s.logger.WarnContext(ctx, "serving cached fixtures, backend unavailable", "error", err, "count", len(cached))
		return cached, nil
	}

	if err := s.cache.Upsert(ctx, items); err != nil {
		s.logger.WarnContext(ctx, "cache fixtures failed", "error", err)
	}
	return items, nil
}

// GetFixture reads one fixture from the cache.
func (s *FixtureService) GetFixture(ctx context.Context, fixtureID int64) (fixture.Fixture, error) {
	if fixtureID <= 0 {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}
	item, ok, err := s.cache.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%d", ErrNotFound, fixtureID)
	}
	return item, nil
}

type SyncFixturesInput struct {
	Leagues    []string
	Season     string
	From       time.Time
	To         time.Time
	MaxWorkers int
}

type SyncLeagueResult struct {
	League     string
	Records    int
	Status     string
	Message    string
	DurationMs int64
}

type SyncFixturesResult struct {
	WorkerCount  int
	SuccessCount int
	FailedCount  int
	SkippedCount int
	Leagues      []SyncLeagueResult
}

// SyncLeagues pulls fixtures for each league in parallel and stores them in
// the cache. One failing league does not stop the others.
func (s *FixtureService) SyncLeagues(ctx context.Context, input SyncFixturesInput) (SyncFixturesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.SyncLeagues")
	defer span.End()

	leagues := make([]string, 0, len(input.Leagues))
	seen := make(map[string]struct{}, len(input.Leagues))
	for _, raw := range input.Leagues {
		name, ok := group.NormalizeLeague(raw)
		if !ok {
			return SyncFixturesResult{}, fmt.Errorf("%w: unknown league %q", ErrInvalidInput, raw)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		leagues = append(leagues, name)
	}
	if len(leagues) == 0 {
		for _, name := range group.Leagues {
			leagues = append(leagues, name)
		}
	}

	workerCount := normalizeSyncWorkerCount(input.MaxWorkers, len(leagues))
	result := SyncFixturesResult{
		WorkerCount: workerCount,
		Leagues:     make([]SyncLeagueResult, 0, len(leagues)),
	}

	results := make(chan SyncLeagueResult, len(leagues))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SyncFixturesResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, league := range leagues {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := SyncLeagueResult{League: league}
			row.Records, row.Status, row.Message = s.syncLeague(ctx, fixture.Query{
				League: league,
				Season: input.Season,
				From:   input.From,
				To:     input.To,
			})
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case syncStatusSuccess:
				successCount.Add(1)
			case syncStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return SyncFixturesResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Leagues = append(result.Leagues, row)
	}
	sort.SliceStable(result.Leagues, func(i, j int) bool {
		return result.Leagues[i].League < result.Leagues[j].League
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func (s *FixtureService) syncLeague(ctx context.Context, query fixture.Query) (int, string, string) {
	items, err := s.feed.ListFixtures(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "sync league fixtures failed", "league", query.League, "error", err)
		return 0, syncStatusFailed, err.Error()
	}
	if len(items) == 0 {
		return 0, syncStatusSkipped, "no fixtures matched selected criteria"
	}
	if err := s.cache.Upsert(ctx, items); err != nil {
		return 0, syncStatusFailed, err.Error()
	}
	return len(items), syncStatusSuccess, ""
}

func normalizeFixtureQuery(query fixture.Query) (fixture.Query, error) {
	if strings.TrimSpace(query.League) != "" {
		name, ok := group.NormalizeLeague(query.League)
		if !ok {
			return fixture.Query{}, fmt.Errorf("%w: unknown league %q", ErrInvalidInput, query.League)
		}
		query.League = name
	}
	if query.Status != "" {
		query.Status = fixture.NormalizeStatus(string(query.Status))
		if !query.Status.Valid() {
			return fixture.Query{}, fmt.Errorf("%w: unknown fixture status", ErrInvalidInput)
		}
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return fixture.Query{}, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	query.Season = strings.TrimSpace(query.Season)
	return query, nil
}

func normalizeSyncWorkerCount(requested, tasks int) int {
	if requested <= 0 {
		requested = defaultSyncWorkers
	}
	if tasks > 0 && requested > tasks {
		requested = tasks
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
