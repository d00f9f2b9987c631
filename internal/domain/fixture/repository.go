package fixture

import "context"

// Repository is the local fixture cache.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Fixture, bool, error)
	List(ctx context.Context, query Query) ([]Fixture, error)
	Upsert(ctx context.Context, fixtures []Fixture) error
	// ReplaceLive upserts the given fixtures and makes them the whole live subset.
	ReplaceLive(ctx context.Context, live []Fixture) error
	ListLive(ctx context.Context) ([]Fixture, error)
}

// Feed reads fixtures from the authoritative backend.
type Feed interface {
	ListLiveMatches(ctx context.Context) ([]Fixture, error)
	ListFixtures(ctx context.Context, query Query) ([]Fixture, error)
}
