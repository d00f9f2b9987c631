package events

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
)

// Fanout publishes every update to each target. A failing target does not
// stop the others; their errors are combined.
type Fanout struct {
	targets []fixture.LivePublisher
}

func NewFanout(targets ...fixture.LivePublisher) *Fanout {
	out := make([]fixture.LivePublisher, 0, len(targets))
	for _, target := range targets {
		if target != nil {
			out = append(out, target)
		}
	}
	return &Fanout{targets: out}
}

func (f *Fanout) PublishLive(ctx context.Context, update fixture.LiveUpdate) error {
	var combined error
	for _, target := range f.targets {
		if err := target.PublishLive(ctx, update); err != nil {
			combined = crerr.CombineErrors(combined, err)
		}
	}
	return combined
}
