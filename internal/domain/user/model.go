package user

import "context"

// Principal is the authenticated caller. AccessToken is forwarded to the backend.
type Principal struct {
	UserID      string
	Username    string
	AccessToken string
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// ServiceUserID identifies the gateway itself when it calls the backend
// outside of a user request.
const ServiceUserID = "service"

// ServicePrincipal returns the gateway's own identity for background work.
func ServicePrincipal(token string) Principal {
	return Principal{UserID: ServiceUserID, Username: ServiceUserID, AccessToken: token}
}
