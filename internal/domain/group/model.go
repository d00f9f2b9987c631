package group

import (
	"strings"
	"time"
)

type PrivacyType string

const (
	PrivacyPrivate     PrivacyType = "PRIVATE"
	PrivacySemiPrivate PrivacyType = "SEMI_PRIVATE"
)

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleMember    Role = "MEMBER"
)

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipApproved MembershipStatus = "APPROVED"
)

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionRemove  Action = "REMOVE"
	ActionPromote Action = "PROMOTE"
)

// Group is a prediction league scoped to one football league.
type Group struct {
	ID           int64
	Name         string
	League       string
	PrivacyType  PrivacyType
	InviteCode   string
	Description  string
	TrackedTeams []int64
	CreatedAt    time.Time
}

type Member struct {
	UserID   string
	Username string
	Role     Role
	Status   MembershipStatus
	JoinedAt time.Time
}

// CreateRequest is what the backend needs to create a group.
type CreateRequest struct {
	Name         string
	League       string
	PrivacyType  PrivacyType
	TrackedTeams []int64
	Description  string
}

// JoinResult reports the membership produced by a join request.
type JoinResult struct {
	GroupID int64
	Status  MembershipStatus
	Message string
}

// Leagues supported by the backend, keyed by short code.
var Leagues = map[string]string{
	"PL":  "Premier League",
	"LL":  "La Liga",
	"UCL": "UEFA Champions League",
}

// NormalizeLeague accepts a league code or its full name and returns the full name.
func NormalizeLeague(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if name, ok := Leagues[strings.ToUpper(trimmed)]; ok {
		return name, true
	}
	for _, name := range Leagues {
		if strings.EqualFold(name, trimmed) {
			return name, true
		}
	}
	return "", false
}

func NormalizePrivacyType(value string) (PrivacyType, bool) {
	switch PrivacyType(strings.ToUpper(strings.TrimSpace(value))) {
	case "":
		return PrivacyPrivate, true
	case PrivacyPrivate:
		return PrivacyPrivate, true
	case PrivacySemiPrivate:
		return PrivacySemiPrivate, true
	default:
		return "", false
	}
}

func NormalizeAction(value string) (Action, bool) {
	action := Action(strings.ToUpper(strings.TrimSpace(value)))
	switch action {
	case ActionApprove, ActionReject, ActionRemove, ActionPromote:
		return action, true
	default:
		return "", false
	}
}
