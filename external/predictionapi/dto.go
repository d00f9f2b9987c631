package predictionapi

import (
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
)

// predictionDTO reads the backend's prediction_id/submission_time names and
// still accepts id/created_at from older payloads.
type predictionDTO struct {
	PredictionID   int64  `json:"prediction_id"`
	ID             int64  `json:"id"`
	UserID         string `json:"user_id"`
	FixtureID      int64  `json:"fixture_id"`
	Score1         int    `json:"score1"`
	Score2         int    `json:"score2"`
	Status         string `json:"status"`
	Points         *int   `json:"points"`
	Season         string `json:"season"`
	Week           int    `json:"week"`
	SubmissionTime string `json:"submission_time"`
	CreatedAt      string `json:"created_at"`
}

type submitPredictionRequest struct {
	FixtureID int64 `json:"fixture_id"`
	Score1    int   `json:"score1"`
	Score2    int   `json:"score2"`
}

type goalsDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type fixtureDTO struct {
	FixtureID    int64    `json:"fixture_id"`
	League       string   `json:"league"`
	Season       string   `json:"season"`
	Round        string   `json:"round"`
	HomeTeamID   int64    `json:"home_team_id"`
	HomeTeam     string   `json:"home_team"`
	HomeTeamLogo string   `json:"home_team_logo"`
	AwayTeamID   int64    `json:"away_team_id"`
	AwayTeam     string   `json:"away_team"`
	AwayTeamLogo string   `json:"away_team_logo"`
	Date         string   `json:"date"`
	Status       string   `json:"status"`
	HomeScore    *int     `json:"home_score"`
	AwayScore    *int     `json:"away_score"`
	Goals        goalsDTO `json:"goals"`
	UpdatedAt    string   `json:"updated_at"`
}

type teamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type groupDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	League       string  `json:"league"`
	PrivacyType  string  `json:"privacy_type"`
	InviteCode   string  `json:"invite_code"`
	Description  string  `json:"description"`
	TrackedTeams []int64 `json:"tracked_teams"`
	CreatedAt    string  `json:"created_at"`
}

type createGroupRequest struct {
	Name         string  `json:"name"`
	League       string  `json:"league"`
	PrivacyType  string  `json:"privacy_type"`
	TrackedTeams []int64 `json:"tracked_teams"`
	Description  string  `json:"description,omitempty"`
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

type joinResultDTO struct {
	GroupID int64  `json:"group_id"`
	Status  string `json:"status"`
}

type memberDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

type manageMemberRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

type inviteCodeDTO struct {
	InviteCode string `json:"invite_code"`
}

type authStatusDTO struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
}

func (d predictionDTO) toDomain() prediction.Prediction {
	id := d.PredictionID
	if id == 0 {
		id = d.ID
	}
	submitted := d.SubmissionTime
	if strings.TrimSpace(submitted) == "" {
		submitted = d.CreatedAt
	}
	return prediction.Prediction{
		ID:          id,
		UserID:      d.UserID,
		FixtureID:   d.FixtureID,
		HomeScore:   d.Score1,
		AwayScore:   d.Score2,
		Status:      prediction.NormalizeStatus(d.Status),
		Points:      d.Points,
		Season:      d.Season,
		Week:        d.Week,
		SubmittedAt: parseTime(submitted),
	}
}

func (d fixtureDTO) toDomain() fixture.Fixture {
	home, away := d.HomeScore, d.AwayScore
	if home == nil && away == nil {
		home, away = d.Goals.Home, d.Goals.Away
	}
	return fixture.Fixture{
		ID:        d.FixtureID,
		League:    d.League,
		Season:    d.Season,
		Round:     d.Round,
		Home:      team.Team{ID: d.HomeTeamID, League: d.League, Name: d.HomeTeam, LogoURL: d.HomeTeamLogo},
		Away:      team.Team{ID: d.AwayTeamID, League: d.League, Name: d.AwayTeam, LogoURL: d.AwayTeamLogo},
		KickoffAt: parseTime(d.Date),
		Status:    fixture.NormalizeStatus(d.Status),
		HomeScore: home,
		AwayScore: away,
		UpdatedAt: parseTime(d.UpdatedAt),
	}
}

func (d teamDTO) toDomain(league string) team.Team {
	return team.Team{ID: d.ID, League: league, Name: d.Name, LogoURL: d.Logo}
}

func (d groupDTO) toDomain() group.Group {
	privacy, ok := group.NormalizePrivacyType(d.PrivacyType)
	if !ok {
		privacy = group.PrivacyType(d.PrivacyType)
	}
	return group.Group{
		ID:           d.ID,
		Name:         d.Name,
		League:       d.League,
		PrivacyType:  privacy,
		InviteCode:   d.InviteCode,
		Description:  d.Description,
		TrackedTeams: d.TrackedTeams,
		CreatedAt:    parseTime(d.CreatedAt),
	}
}

func (d memberDTO) toDomain() group.Member {
	return group.Member{
		UserID:   d.UserID,
		Username: d.Username,
		Role:     group.Role(strings.ToUpper(d.Role)),
		Status:   group.MembershipStatus(strings.ToUpper(d.Status)),
		JoinedAt: parseTime(d.JoinedAt),
	}
}

func mapSlice[S any, D any](items []S, fn func(S) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
