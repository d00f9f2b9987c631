package events

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
)

const TypeLiveUpdate = "live_update"

// TeamPayload is the wire form of a club inside a fixture.
type TeamPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// FixturePayload is the wire form of a fixture shared by the live stream,
// the NATS subject and the gateway HTTP responses.
type FixturePayload struct {
	ID        int64       `json:"fixture_id"`
	League    string      `json:"league"`
	Season    string      `json:"season,omitempty"`
	Round     string      `json:"round,omitempty"`
	Home      TeamPayload `json:"home"`
	Away      TeamPayload `json:"away"`
	KickoffAt time.Time   `json:"kickoff_at"`
	Status    string      `json:"status"`
	HomeScore *int        `json:"home_score"`
	AwayScore *int        `json:"away_score"`
	Window    string      `json:"window,omitempty"`
}

// LiveMessage is one published live poll outcome.
type LiveMessage struct {
	Type      string           `json:"type"`
	FetchedAt time.Time        `json:"fetched_at"`
	Error     string           `json:"error,omitempty"`
	Fixtures  []FixturePayload `json:"fixtures"`
}

// NewFixturePayload converts f; now is used to stamp the prediction window.
func NewFixturePayload(f fixture.Fixture, now time.Time) FixturePayload {
	return FixturePayload{
		ID:        f.ID,
		League:    f.League,
		Season:    f.Season,
		Round:     f.Round,
		Home:      TeamPayload{ID: f.Home.ID, Name: f.Home.Name, LogoURL: f.Home.LogoURL},
		Away:      TeamPayload{ID: f.Away.ID, Name: f.Away.Name, LogoURL: f.Away.LogoURL},
		KickoffAt: f.KickoffAt.UTC(),
		Status:    string(f.Status),
		HomeScore: f.HomeScore,
		AwayScore: f.AwayScore,
		Window:    string(f.Window(now)),
	}
}

func NewFixturePayloads(items []fixture.Fixture, now time.Time) []FixturePayload {
	out := make([]FixturePayload, 0, len(items))
	for _, item := range items {
		out = append(out, NewFixturePayload(item, now))
	}
	return out
}

func NewLiveMessage(update fixture.LiveUpdate) LiveMessage {
	return LiveMessage{
		Type:      TypeLiveUpdate,
		FetchedAt: update.FetchedAt.UTC(),
		Error:     update.Error,
		Fixtures:  NewFixturePayloads(update.Fixtures, update.FetchedAt),
	}
}

// EncodeLiveUpdate serializes update as a LiveMessage.
func EncodeLiveUpdate(update fixture.LiveUpdate) ([]byte, error) {
	return sonic.Marshal(NewLiveMessage(update))
}
