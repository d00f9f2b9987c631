package team

import "context"

// Repository lists clubs known to the backend for one league.
type Repository interface {
	ListByLeague(ctx context.Context, league string) ([]Team, error)
}
