package httpapi

import (
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

type createGroupRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	League       string  `json:"league" validate:"required"`
	PrivacyType  string  `json:"privacy_type"`
	TrackedTeams []int64 `json:"tracked_teams" validate:"omitempty,dive,gt=0"`
	Description  string  `json:"description" validate:"max=500"`
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type manageMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Action string `json:"action" validate:"required"`
}

type submitPredictionRequest struct {
	FixtureID int64 `json:"fixture_id" validate:"required,gt=0"`
	Score1    *int  `json:"score1" validate:"required,gte=0,lte=99"`
	Score2    *int  `json:"score2" validate:"required,gte=0,lte=99"`
}

type livePollerIntervalRequest struct {
	Interval string `json:"interval" validate:"required"`
}

type syncFixturesRequest struct {
	Leagues    []string `json:"leagues"`
	Season     string   `json:"season"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	MaxWorkers int      `json:"max_workers" validate:"gte=0,lte=16"`
}

type groupDTO struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	League            string  `json:"league"`
	PrivacyType       string  `json:"privacy_type"`
	InviteCode        string  `json:"invite_code,omitempty"`
	InviteCodeDisplay string  `json:"invite_code_display,omitempty"`
	Description       string  `json:"description,omitempty"`
	TrackedTeams      []int64 `json:"tracked_teams"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

type memberDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at,omitempty"`
}

type joinResultDTO struct {
	GroupID int64  `json:"group_id"`
	Status  string `json:"status"`
}

type teamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type groupOverviewDTO struct {
	Group   groupDTO    `json:"group"`
	Members []memberDTO `json:"members"`
	Teams   []teamDTO   `json:"teams"`
}

type predictionDTO struct {
	ID          int64  `json:"id"`
	FixtureID   int64  `json:"fixture_id"`
	Score1      int    `json:"score1"`
	Score2      int    `json:"score2"`
	Status      string `json:"status"`
	Points      *int   `json:"points"`
	Season      string `json:"season,omitempty"`
	Week        int    `json:"week,omitempty"`
	SubmittedAt string `json:"submitted_at,omitempty"`
}

type availabilityDTO struct {
	FixtureID  int64          `json:"fixture_id"`
	Window     string         `json:"window"`
	CanSubmit  bool           `json:"can_submit"`
	CanReset   bool           `json:"can_reset"`
	Prediction *predictionDTO `json:"prediction"`
}

type inviteCodeDTO struct {
	InviteCode        string `json:"invite_code"`
	InviteCodeDisplay string `json:"invite_code_display"`
}

type livePollerStatusDTO struct {
	Running     bool   `json:"running"`
	Interval    string `json:"interval"`
	Ticks       int64  `json:"ticks"`
	Skipped     int64  `json:"skipped"`
	LastSuccess string `json:"last_success,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	LiveCount   int    `json:"live_count"`
	Subscribers int    `json:"subscribers"`
}

type syncLeagueResultDTO struct {
	League     string `json:"league"`
	Records    int    `json:"records"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type syncFixturesResultDTO struct {
	WorkerCount  int                   `json:"worker_count"`
	SuccessCount int                   `json:"success_count"`
	FailedCount  int                   `json:"failed_count"`
	SkippedCount int                   `json:"skipped_count"`
	Leagues      []syncLeagueResultDTO `json:"leagues"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func groupToDTO(v group.Group) groupDTO {
	tracked := v.TrackedTeams
	if tracked == nil {
		tracked = []int64{}
	}
	out := groupDTO{
		ID:           v.ID,
		Name:         v.Name,
		League:       v.League,
		PrivacyType:  string(v.PrivacyType),
		InviteCode:   v.InviteCode,
		Description:  v.Description,
		TrackedTeams: tracked,
		CreatedAt:    formatTimestamp(v.CreatedAt),
	}
	if v.InviteCode != "" {
		out.InviteCodeDisplay = group.FormatInviteCode(v.InviteCode)
	}
	return out
}

func memberToDTO(v group.Member) memberDTO {
	return memberDTO{
		UserID:   v.UserID,
		Username: v.Username,
		Role:     string(v.Role),
		Status:   string(v.Status),
		JoinedAt: formatTimestamp(v.JoinedAt),
	}
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{ID: v.ID, Name: v.Name, Logo: v.LogoURL}
}

func overviewToDTO(v usecase.GroupOverview) groupOverviewDTO {
	return groupOverviewDTO{
		Group:   groupToDTO(v.Group),
		Members: mapSlice(v.Members, memberToDTO),
		Teams:   mapSlice(v.Teams, teamToDTO),
	}
}

func predictionToDTO(v prediction.Prediction) predictionDTO {
	return predictionDTO{
		ID:          v.ID,
		FixtureID:   v.FixtureID,
		Score1:      v.HomeScore,
		Score2:      v.AwayScore,
		Status:      string(v.Status),
		Points:      v.Points,
		Season:      v.Season,
		Week:        v.Week,
		SubmittedAt: formatTimestamp(v.SubmittedAt),
	}
}

func availabilityToDTO(v usecase.Availability) availabilityDTO {
	out := availabilityDTO{
		FixtureID: v.FixtureID,
		Window:    string(v.Window),
		CanSubmit: v.CanSubmit,
		CanReset:  v.CanReset,
	}
	if v.Prediction != nil {
		item := predictionToDTO(*v.Prediction)
		out.Prediction = &item
	}
	return out
}

func pollerStatusToDTO(v usecase.LivePollerStatus, subscribers int) livePollerStatusDTO {
	return livePollerStatusDTO{
		Running:     v.Running,
		Interval:    v.Interval.String(),
		Ticks:       v.Ticks,
		Skipped:     v.Skipped,
		LastSuccess: formatTimestamp(v.LastSuccess),
		LastError:   v.LastError,
		LiveCount:   v.LiveCount,
		Subscribers: subscribers,
	}
}

func syncResultToDTO(v usecase.SyncFixturesResult) syncFixturesResultDTO {
	return syncFixturesResultDTO{
		WorkerCount:  v.WorkerCount,
		SuccessCount: v.SuccessCount,
		FailedCount:  v.FailedCount,
		SkippedCount: v.SkippedCount,
		Leagues: mapSlice(v.Leagues, func(row usecase.SyncLeagueResult) syncLeagueResultDTO {
			return syncLeagueResultDTO{
				League:     row.League,
				Records:    row.Records,
				Status:     row.Status,
				Message:    row.Message,
				DurationMs: row.DurationMs,
			}
		}),
	}
}

func mapSlice[S any, D any](items []S, fn func(S) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
