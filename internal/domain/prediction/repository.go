package prediction

import "context"

// Repository is the backend side of the prediction lifecycle. Calls act on
// behalf of the principal carried by ctx.
type Repository interface {
	Submit(ctx context.Context, fixtureID int64, homeScore, awayScore int) (Prediction, error)
	Reset(ctx context.Context, predictionID int64) error
	ListMine(ctx context.Context, filter Filter) ([]Prediction, error)
}
