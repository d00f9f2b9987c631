package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (b *Backend) ListLiveMatches(_ context.Context) ([]fixture.Fixture, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range b.fixtures {
		if item.Status.IsLive() {
			out = append(out, item)
		}
	}
	fixture.SortByKickoff(out)
	return out, nil
}

func (b *Backend) ListFixtures(_ context.Context, query fixture.Query) ([]fixture.Fixture, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range b.fixtures {
		if !query.Matches(item) {
			continue
		}
		out = append(out, item)
	}
	fixture.SortByKickoff(out)
	return out, nil
}

func (b *Backend) ListByLeague(_ context.Context, league string) ([]team.Team, error) {
	name, ok := group.NormalizeLeague(league)
	if !ok {
		return nil, fmt.Errorf("%w: Invalid league", usecase.ErrNotFound)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	teams := b.teams[name]
	out := make([]team.Team, 0, len(teams))
	out = append(out, teams...)
	return out, nil
}
