package fixture

import (
	"context"
	"time"
)

// LiveUpdate is the outcome of one live poll. Error is set when the fetch
// failed; Fixtures then holds nothing and the cached live set is unchanged.
type LiveUpdate struct {
	Fixtures  []Fixture
	Error     string
	FetchedAt time.Time
}

func (u LiveUpdate) Failed() bool {
	return u.Error != ""
}

// LivePublisher fans live updates out to subscribers.
type LivePublisher interface {
	PublishLive(ctx context.Context, update LiveUpdate) error
}
