package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/platform/cache"
	"github.com/sourcegraph/conc/pool"
)

const maxGroupNameLength = 100

// GroupOverview is a group with its members and tracked team details.
type GroupOverview struct {
	Group   group.Group
	Members []group.Member
	Teams   []team.Team
}

type GroupService struct {
	groups group.Repository
	teams  team.Repository
	cache  *cache.Store[[]team.Team]
}

func NewGroupService(groups group.Repository, teams team.Repository, teamCacheTTL time.Duration) *GroupService {
	return &GroupService{
		groups: groups,
		teams:  teams,
		cache:  cache.NewStore[[]team.Team](teamCacheTTL),
	}
}

type CreateGroupInput struct {
	Name         string
	League       string
	PrivacyType  string
	TrackedTeams []int64
	Description  string
}

func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.CreateGroup")
	defer span.End()

	req, err := validateCreateGroup(input)
	if err != nil {
		return group.Group{}, err
	}

	created, err := s.groups.Create(ctx, req)
	if err != nil {
		return group.Group{}, fmt.Errorf("create group: %w", err)
	}
	return created, nil
}

func (s *GroupService) ListMyGroups(ctx context.Context) ([]group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ListMyGroups")
	defer span.End()

	items, err := s.groups.ListMyGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return items, nil
}

func (s *GroupService) JoinGroup(ctx context.Context, inviteCode string) (group.JoinResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.JoinGroup")
	defer span.End()

	code, err := group.NormalizeInviteCode(inviteCode)
	if err != nil {
		return group.JoinResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.groups.Join(ctx, code)
	if err != nil {
		return group.JoinResult{}, fmt.Errorf("join group: %w", err)
	}
	return result, nil
}

func (s *GroupService) ListTeams(ctx context.Context, league string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ListTeams")
	defer span.End()

	name, ok := group.NormalizeLeague(league)
	if !ok {
		return nil, fmt.Errorf("%w: unknown league %q", ErrInvalidInput, league)
	}

	items, err := s.cache.GetOrLoad(ctx, "teams:"+name, func(ctx context.Context) ([]team.Team, error) {
		return s.teams.ListByLeague(ctx, name)
	})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return items, nil
}

func (s *GroupService) ListMembers(ctx context.Context, groupID int64) ([]group.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ListMembers")
	defer span.End()

	if groupID <= 0 {
		return nil, fmt.Errorf("%w: group id must be positive", ErrInvalidInput)
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (s *GroupService) ManageMember(ctx context.Context, groupID int64, userID, action string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ManageMember")
	defer span.End()

	if groupID <= 0 {
		return fmt.Errorf("%w: group id must be positive", ErrInvalidInput)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	normalized, ok := group.NormalizeAction(action)
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	if err := s.groups.ManageMember(ctx, groupID, userID, normalized); err != nil {
		return fmt.Errorf("manage member: %w", err)
	}
	return nil
}

func (s *GroupService) RegenerateInviteCode(ctx context.Context, groupID int64) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.RegenerateInviteCode")
	defer span.End()

	if groupID <= 0 {
		return "", fmt.Errorf("%w: group id must be positive", ErrInvalidInput)
	}

	code, err := s.groups.RegenerateInviteCode(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("regenerate invite code: %w", err)
	}
	return code, nil
}

// GetOverview loads the group, then its members and tracked teams concurrently.
func (s *GroupService) GetOverview(ctx context.Context, groupID int64) (GroupOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.GetOverview")
	defer span.End()

	if groupID <= 0 {
		return GroupOverview{}, fmt.Errorf("%w: group id must be positive", ErrInvalidInput)
	}

	groups, err := s.groups.ListMyGroups(ctx)
	if err != nil {
		return GroupOverview{}, fmt.Errorf("list groups: %w", err)
	}

	out := GroupOverview{}
	found := false
	for _, item := range groups {
		if item.ID == groupID {
			out.Group = item
			found = true
			break
		}
	}
	if !found {
		return GroupOverview{}, fmt.Errorf("%w: group=%d", ErrNotFound, groupID)
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		members, err := s.groups.ListMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		out.Members = members
		return nil
	})
	p.Go(func(ctx context.Context) error {
		if len(out.Group.TrackedTeams) == 0 {
			return nil
		}
		teams, err := s.ListTeams(ctx, out.Group.League)
		if err != nil {
			return err
		}
		out.Teams = pickTeams(teams, out.Group.TrackedTeams)
		return nil
	})
	if err := p.Wait(); err != nil {
		return GroupOverview{}, err
	}

	return out, nil
}

func validateCreateGroup(input CreateGroupInput) (group.CreateRequest, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return group.CreateRequest{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	if len(name) > maxGroupNameLength {
		return group.CreateRequest{}, fmt.Errorf("%w: group name must be at most %d characters", ErrInvalidInput, maxGroupNameLength)
	}
	if strings.TrimSpace(input.League) == "" {
		return group.CreateRequest{}, fmt.Errorf("%w: league is required", ErrInvalidInput)
	}
	league, ok := group.NormalizeLeague(input.League)
	if !ok {
		return group.CreateRequest{}, fmt.Errorf("%w: unknown league %q", ErrInvalidInput, input.League)
	}
	privacy, ok := group.NormalizePrivacyType(input.PrivacyType)
	if !ok {
		return group.CreateRequest{}, fmt.Errorf("%w: unknown privacy type %q", ErrInvalidInput, input.PrivacyType)
	}

	seen := make(map[int64]struct{}, len(input.TrackedTeams))
	tracked := make([]int64, 0, len(input.TrackedTeams))
	for _, teamID := range input.TrackedTeams {
		if teamID <= 0 {
			return group.CreateRequest{}, fmt.Errorf("%w: tracked team id must be positive", ErrInvalidInput)
		}
		if _, dup := seen[teamID]; dup {
			return group.CreateRequest{}, fmt.Errorf("%w: tracked team %d listed twice", ErrInvalidInput, teamID)
		}
		seen[teamID] = struct{}{}
		tracked = append(tracked, teamID)
	}

	return group.CreateRequest{
		Name:         name,
		League:       league,
		PrivacyType:  privacy,
		TrackedTeams: tracked,
		Description:  strings.TrimSpace(input.Description),
	}, nil
}

func pickTeams(all []team.Team, ids []int64) []team.Team {
	byID := make(map[int64]team.Team, len(all))
	for _, item := range all {
		byID[item.ID] = item
	}
	out := make([]team.Team, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}
