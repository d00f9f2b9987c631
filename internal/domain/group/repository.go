package group

import "context"

// Repository is the backend side of group management. Calls act on behalf
// of the principal carried by ctx.
type Repository interface {
	Create(ctx context.Context, req CreateRequest) (Group, error)
	ListMyGroups(ctx context.Context) ([]Group, error)
	Join(ctx context.Context, inviteCode string) (JoinResult, error)
	ListMembers(ctx context.Context, groupID int64) ([]Member, error)
	ManageMember(ctx context.Context, groupID int64, userID string, action Action) error
	RegenerateInviteCode(ctx context.Context, groupID int64) (string, error)
}
