package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/prediction-league/internal/domain/group"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

type groupRecord struct {
	group   group.Group
	members []group.Member
}

func (r *groupRecord) member(userID string) (group.Member, bool) {
	for _, item := range r.members {
		if item.UserID == userID {
			return item, true
		}
	}
	return group.Member{}, false
}

func (r *groupRecord) setMember(updated group.Member) {
	for idx := range r.members {
		if r.members[idx].UserID == updated.UserID {
			r.members[idx] = updated
			return
		}
	}
	r.members = append(r.members, updated)
}

func (r *groupRecord) removeMember(userID string) {
	for idx := range r.members {
		if r.members[idx].UserID == userID {
			r.members = append(r.members[:idx], r.members[idx+1:]...)
			return
		}
	}
}

func (b *Backend) Create(ctx context.Context, req group.CreateRequest) (group.Group, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return group.Group{}, err
	}
	league, ok := group.NormalizeLeague(req.League)
	if !ok || req.Name == "" {
		return group.Group{}, fmt.Errorf("%w: name and a valid league are required", usecase.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	code, err := b.newInviteCodeLocked()
	if err != nil {
		return group.Group{}, err
	}

	now := b.now().UTC()
	b.nextGroupID++
	record := &groupRecord{
		group: group.Group{
			ID:           b.nextGroupID,
			Name:         req.Name,
			League:       league,
			PrivacyType:  req.PrivacyType,
			InviteCode:   code,
			Description:  req.Description,
			TrackedTeams: append([]int64(nil), req.TrackedTeams...),
			CreatedAt:    now,
		},
	}
	record.setMember(group.Member{
		UserID:   principal.UserID,
		Username: b.usernameLocked(principal.UserID),
		Role:     group.RoleAdmin,
		Status:   group.MembershipApproved,
		JoinedAt: now,
	})
	b.groups[record.group.ID] = record
	b.inviteIndex[code] = record.group.ID

	return record.group, nil
}

func (b *Backend) ListMyGroups(ctx context.Context) ([]group.Group, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]group.Group, 0)
	for _, record := range b.groups {
		if member, ok := record.member(principal.UserID); ok && member.Status == group.MembershipApproved {
			out = append(out, record.group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) Join(ctx context.Context, inviteCode string) (group.JoinResult, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return group.JoinResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	groupID, ok := b.inviteIndex[inviteCode]
	if !ok {
		return group.JoinResult{}, rejected("Invalid invite code")
	}
	record := b.groups[groupID]
	if existing, ok := record.member(principal.UserID); ok {
		if existing.Status == group.MembershipPending {
			return group.JoinResult{}, rejected("Join request already pending")
		}
		return group.JoinResult{}, rejected("Already a member of this group")
	}

	member := group.Member{
		UserID:   principal.UserID,
		Username: b.usernameLocked(principal.UserID),
		Role:     group.RoleMember,
		Status:   group.MembershipApproved,
		JoinedAt: b.now().UTC(),
	}
	message := "Successfully joined group"
	if record.group.PrivacyType == group.PrivacySemiPrivate {
		member.Status = group.MembershipPending
		message = "Join request sent to group admin"
	}
	record.setMember(member)

	return group.JoinResult{GroupID: groupID, Status: member.Status, Message: message}, nil
}

func (b *Backend) ListMembers(ctx context.Context, groupID int64) ([]group.Member, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	record, caller, err := b.groupForMemberLocked(groupID, principal.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]group.Member, 0, len(record.members))
	for _, item := range record.members {
		if item.Status == group.MembershipPending && caller.Role == group.RoleMember {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// ManageMember applies an admin action. APPROVE and REJECT act on pending
// join requests; REMOVE and PROMOTE act on approved members.
func (b *Backend) ManageMember(ctx context.Context, groupID int64, userID string, action group.Action) error {
	principal, err := b.caller(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	record, caller, err := b.groupForMemberLocked(groupID, principal.UserID)
	if err != nil {
		return err
	}
	if caller.Role != group.RoleAdmin {
		return fmt.Errorf("%w: admin role required", usecase.ErrUnauthorized)
	}

	target, ok := record.member(userID)
	if !ok {
		return rejected("Not a member")
	}

	switch action {
	case group.ActionApprove, group.ActionReject:
		if target.Status != group.MembershipPending {
			return rejected("Invalid request")
		}
		if action == group.ActionReject {
			record.removeMember(userID)
			return nil
		}
		target.Status = group.MembershipApproved
		target.JoinedAt = b.now().UTC()
		record.setMember(target)
	case group.ActionRemove:
		if target.Status != group.MembershipApproved {
			return rejected("Not a member")
		}
		if target.Role == group.RoleAdmin {
			return rejected("Cannot remove admin")
		}
		record.removeMember(userID)
	case group.ActionPromote:
		if target.Status != group.MembershipApproved || target.Role != group.RoleMember {
			return rejected("Member cannot be promoted")
		}
		target.Role = group.RoleModerator
		record.setMember(target)
	default:
		return fmt.Errorf("%w: unknown action %q", usecase.ErrInvalidInput, action)
	}
	return nil
}

// RegenerateInviteCode replaces the group's code; the previous code stops
// resolving immediately.
func (b *Backend) RegenerateInviteCode(ctx context.Context, groupID int64) (string, error) {
	principal, err := b.caller(ctx)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	record, caller, err := b.groupForMemberLocked(groupID, principal.UserID)
	if err != nil {
		return "", err
	}
	if caller.Role != group.RoleAdmin {
		return "", fmt.Errorf("%w: admin role required", usecase.ErrUnauthorized)
	}

	code, err := b.newInviteCodeLocked()
	if err != nil {
		return "", err
	}
	delete(b.inviteIndex, record.group.InviteCode)
	record.group.InviteCode = code
	b.inviteIndex[code] = groupID
	return code, nil
}

func (b *Backend) groupForMemberLocked(groupID int64, userID string) (*groupRecord, group.Member, error) {
	record, ok := b.groups[groupID]
	if !ok {
		return nil, group.Member{}, fmt.Errorf("%w: Group not found", usecase.ErrNotFound)
	}
	caller, ok := record.member(userID)
	if !ok || caller.Status != group.MembershipApproved {
		return nil, group.Member{}, fmt.Errorf("%w: not a member of this group", usecase.ErrUnauthorized)
	}
	return record, caller, nil
}

func (b *Backend) newInviteCodeLocked() (string, error) {
	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := b.codes.NewID()
		if err != nil {
			return "", err
		}
		if _, taken := b.inviteIndex[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate invite code: no unique code after %d attempts", maxInviteCodeAttempts)
}
