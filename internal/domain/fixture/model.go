package fixture

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/team"
)

type Status string

const (
	StatusNotStarted  Status = "NOT_STARTED"
	StatusFirstHalf   Status = "FIRST_HALF"
	StatusHalftime    Status = "HALFTIME"
	StatusSecondHalf  Status = "SECOND_HALF"
	StatusExtraTime   Status = "EXTRA_TIME"
	StatusPenalty     Status = "PENALTY"
	StatusFinished    Status = "FINISHED"
	StatusFinishedAET Status = "FINISHED_AET"
	StatusFinishedPen Status = "FINISHED_PEN"
	StatusPostponed   Status = "POSTPONED"
	StatusCancelled   Status = "CANCELLED"
)

// Fixture represents one scheduled or in-progress match.
type Fixture struct {
	ID        int64
	League    string
	Season    string
	Round     string
	Home      team.Team
	Away      team.Team
	KickoffAt time.Time
	Status    Status
	HomeScore *int
	AwayScore *int
	UpdatedAt time.Time
}

// Query narrows a fixture listing. Zero values are ignored.
type Query struct {
	League string
	Season string
	Status Status
	From   time.Time
	To     time.Time
}

// NormalizeStatus maps provider short codes and loose spellings onto Status.
func NormalizeStatus(value string) Status {
	raw := strings.ToUpper(strings.TrimSpace(value))
	raw = strings.NewReplacer(" ", "_", "-", "_").Replace(raw)
	switch raw {
	case "", "NS", "TBD", "SCHEDULED", "NOT_STARTED":
		return StatusNotStarted
	case "1H", "FIRST_HALF", "LIVE", "IN_PLAY":
		return StatusFirstHalf
	case "HT", "HALFTIME", "HALF_TIME":
		return StatusHalftime
	case "2H", "SECOND_HALF":
		return StatusSecondHalf
	case "ET", "BT", "BREAK_TIME", "EXTRA_TIME":
		return StatusExtraTime
	case "P", "PEN_LIVE", "PENALTY":
		return StatusPenalty
	case "FT", "FINISHED", "MATCH_FINISHED", "AWD", "TECHNICAL_LOSS", "WO", "WALKOVER":
		return StatusFinished
	case "AET", "FINISHED_AET":
		return StatusFinishedAET
	case "PEN", "FINISHED_PEN":
		return StatusFinishedPen
	case "PST", "POSTPONED", "SUSP", "SUSPENDED", "INT", "INTERRUPTED":
		return StatusPostponed
	case "CANC", "CANCELLED", "ABD", "ABANDONED":
		return StatusCancelled
	default:
		return Status(raw)
	}
}

// IsTerminal reports whether no further predictions or live updates are expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusFinishedAET, StatusFinishedPen, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsLive() bool {
	switch s {
	case StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime, StatusPenalty:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime,
		StatusPenalty, StatusFinished, StatusFinishedAET, StatusFinishedPen, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Window classifies the fixture against now.
func (f Fixture) Window(now time.Time) Window {
	return Classify(f.KickoffAt, f.Status, now)
}

// Week parses the gameweek from round labels such as "Regular Season - 12".
func (f Fixture) Week() (int, bool) {
	fields := strings.FieldsFunc(f.Round, func(r rune) bool {
		return r == ' ' || r == '-'
	})
	if len(fields) == 0 {
		return 0, false
	}
	week, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || week <= 0 {
		return 0, false
	}
	return week, true
}

// Matches reports whether the fixture satisfies every set field of q.
func (q Query) Matches(f Fixture) bool {
	if q.League != "" && !strings.EqualFold(q.League, f.League) {
		return false
	}
	if q.Season != "" && q.Season != f.Season {
		return false
	}
	if q.Status != "" && q.Status != f.Status {
		return false
	}
	if !q.From.IsZero() && f.KickoffAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && f.KickoffAt.After(q.To) {
		return false
	}
	return true
}

// SortByKickoff orders fixtures by kickoff, then id.
func SortByKickoff(items []Fixture) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].KickoffAt.Before(items[j].KickoffAt)
	})
}
