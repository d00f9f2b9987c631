package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
)

// FixtureRepository is the process-local fixture cache.
type FixtureRepository struct {
	mu       sync.RWMutex
	fixtures map[int64]fixture.Fixture
	live     map[int64]struct{}
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	r := &FixtureRepository{
		fixtures: make(map[int64]fixture.Fixture, len(fixtures)),
		live:     make(map[int64]struct{}),
	}
	for _, item := range fixtures {
		r.fixtures[item.ID] = item
	}
	return r
}

func (r *FixtureRepository) GetByID(_ context.Context, id int64) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.fixtures[id]
	return item, ok, nil
}

func (r *FixtureRepository) List(_ context.Context, query fixture.Query) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.fixtures))
	for _, item := range r.fixtures {
		if query.Matches(item) {
			out = append(out, item)
		}
	}
	fixture.SortByKickoff(out)
	return out, nil
}

func (r *FixtureRepository) Upsert(_ context.Context, fixtures []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range fixtures {
		if item.ID <= 0 {
			continue
		}
		r.fixtures[item.ID] = item
	}
	return nil
}

func (r *FixtureRepository) ReplaceLive(_ context.Context, live []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]struct{}, len(live))
	for _, item := range live {
		if item.ID <= 0 {
			continue
		}
		r.fixtures[item.ID] = item
		next[item.ID] = struct{}{}
	}
	r.live = next
	return nil
}

func (r *FixtureRepository) ListLive(_ context.Context) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.live))
	for fixtureID := range r.live {
		out = append(out, r.fixtures[fixtureID])
	}
	fixture.SortByKickoff(out)
	return out, nil
}
