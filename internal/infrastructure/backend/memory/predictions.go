package memory

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

func (b *Backend) Submit(ctx context.Context, fixtureID int64, homeScore, awayScore int) (prediction.Prediction, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return prediction.Prediction{}, err
	}
	if fixtureID <= 0 || homeScore < 0 || awayScore < 0 {
		return prediction.Prediction{}, fmt.Errorf("%w: Missing required fields", usecase.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.fixtures[fixtureID]
	if !ok {
		return prediction.Prediction{}, fmt.Errorf("%w: Fixture not found", usecase.ErrNotFound)
	}
	now := b.now()
	if item.Status != fixture.StatusNotStarted || !now.Before(item.KickoffAt) {
		return prediction.Prediction{}, rejected("Cannot predict after match has started")
	}
	if !b.tracksLeagueLocked(principal.UserID, item.League) {
		return prediction.Prediction{}, &usecase.ApplicationError{
			StatusCode: http.StatusForbidden,
			Message:    "Join a group for this league before predicting",
		}
	}
	var id int64
	for _, existing := range b.predictions {
		if existing.UserID != principal.UserID || existing.FixtureID != fixtureID {
			continue
		}
		if existing.Active() {
			return prediction.Prediction{}, rejected("You have already made a prediction for this match")
		}
		// A reset prediction keeps its row and is filled in again.
		id = existing.ID
	}
	if id == 0 {
		b.nextPredictionID++
		id = b.nextPredictionID
	}

	week, _ := item.Week()
	created := prediction.Prediction{
		ID:          id,
		UserID:      principal.UserID,
		FixtureID:   fixtureID,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		Status:      prediction.StatusSubmitted,
		Season:      item.Season,
		Week:        week,
		SubmittedAt: now.UTC(),
	}
	b.predictions[created.ID] = created
	return created, nil
}

func (b *Backend) Reset(ctx context.Context, predictionID int64) error {
	principal, err := b.caller(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.predictions[predictionID]
	if !ok {
		return fmt.Errorf("%w: Prediction not found", usecase.ErrNotFound)
	}
	if existing.UserID != principal.UserID {
		return fmt.Errorf("%w: Unauthorized access", usecase.ErrUnauthorized)
	}
	item := b.fixtures[existing.FixtureID]
	if existing.Status != prediction.StatusSubmitted || item.Window(b.now()) != fixture.WindowOpen {
		return rejected("Cannot reset prediction after match has started")
	}

	existing.Status = prediction.StatusEditable
	b.predictions[predictionID] = existing
	return nil
}

func (b *Backend) ListMine(ctx context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	now := b.now()
	out := make([]prediction.Prediction, 0)
	for _, item := range b.predictions {
		if item.UserID != principal.UserID {
			continue
		}
		window := b.fixtures[item.FixtureID].Window(now)
		if !filter.Match(item, item.EffectiveStatus(window)) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetPredictionStatus moves a prediction along its lifecycle, e.g. when the
// scoring job marks it PROCESSED with awarded points.
func (b *Backend) SetPredictionStatus(predictionID int64, status prediction.Status, points *int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.predictions[predictionID]
	if !ok {
		return false
	}
	item.Status = status
	item.Points = points
	b.predictions[predictionID] = item
	return true
}

func (b *Backend) tracksLeagueLocked(userID, league string) bool {
	for _, record := range b.groups {
		if record.group.League != league {
			continue
		}
		if member, ok := record.member(userID); ok && member.Status == group.MembershipApproved {
			return true
		}
	}
	return false
}
