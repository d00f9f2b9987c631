package httpapi

import (
	"context"

	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

func init() {
	logging.AddContextExtractor(func(ctx context.Context) (string, string, bool) {
		id := requestIDFromContext(ctx)
		return "request_id", id, id != ""
	})
}

func withRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDContextKey).(string)
	return v
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	return user.PrincipalFromContext(ctx)
}
