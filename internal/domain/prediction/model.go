package prediction

import (
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
)

type Status string

const (
	// StatusEditable is what the backend leaves behind after a reset. It does
	// not count as a prediction for the fixture.
	StatusEditable  Status = "EDITABLE"
	StatusSubmitted Status = "SUBMITTED"
	StatusLocked    Status = "LOCKED"
	StatusProcessed Status = "PROCESSED"
)

// Prediction is a user's guessed final score for one fixture.
type Prediction struct {
	ID          int64
	UserID      string
	FixtureID   int64
	HomeScore   int
	AwayScore   int
	Status      Status
	Points      *int
	Season      string
	Week        int
	SubmittedAt time.Time
}

// Filter narrows a prediction listing. Zero values are ignored.
type Filter struct {
	Season string
	Week   int
	Status Status
}

func NormalizeStatus(value string) Status {
	switch status := Status(strings.ToUpper(strings.TrimSpace(value))); status {
	case StatusEditable, StatusLocked, StatusProcessed:
		return status
	default:
		return StatusSubmitted
	}
}

// Active reports whether the prediction blocks a new submission for its fixture.
func (p Prediction) Active() bool {
	switch p.Status {
	case StatusSubmitted, StatusLocked, StatusProcessed:
		return true
	default:
		return false
	}
}

// EffectiveStatus derives LOCKED from the fixture window; it is never stored.
func (p Prediction) EffectiveStatus(window fixture.Window) Status {
	if p.Status == StatusSubmitted && window != fixture.WindowOpen {
		return StatusLocked
	}
	return p.Status
}

// Match applies f against a prediction whose effective status is already resolved.
func (f Filter) Match(p Prediction, effective Status) bool {
	if f.Season != "" && f.Season != p.Season {
		return false
	}
	if f.Week > 0 && f.Week != p.Week {
		return false
	}
	if f.Status != "" && f.Status != effective {
		return false
	}
	return true
}
