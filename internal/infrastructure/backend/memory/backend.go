package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/domain/team"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/platform/id"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

const maxInviteCodeAttempts = 8

// Backend is an in-process stand-in for the prediction backend. It enforces
// the same rules the real service does and is used for local runs and
// scenario tests.
type Backend struct {
	mu sync.RWMutex

	codes id.Generator
	now   func() time.Time

	tokens    map[string]user.Principal
	usernames map[string]string

	fixtures map[int64]fixture.Fixture
	teams    map[string][]team.Team

	predictions      map[int64]prediction.Prediction
	nextPredictionID int64

	groups      map[int64]*groupRecord
	inviteIndex map[string]int64
	nextGroupID int64
}

func NewBackend(seed Seed, codes id.Generator) *Backend {
	if codes == nil {
		codes = id.NewInviteCodeGenerator()
	}

	b := &Backend{
		codes:       codes,
		now:         time.Now,
		tokens:      make(map[string]user.Principal, len(seed.Users)),
		usernames:   make(map[string]string, len(seed.Users)),
		fixtures:    make(map[int64]fixture.Fixture, len(seed.Fixtures)),
		teams:       make(map[string][]team.Team),
		predictions: make(map[int64]prediction.Prediction),
		groups:      make(map[int64]*groupRecord),
		inviteIndex: make(map[string]int64),
	}
	for _, item := range seed.Users {
		b.tokens[item.AccessToken] = item
		b.usernames[item.UserID] = item.Username
	}
	for _, item := range seed.Fixtures {
		b.fixtures[item.ID] = item
	}
	for _, item := range seed.Teams {
		b.teams[item.League] = append(b.teams[item.League], item)
	}

	return b
}

// VerifyAccessToken resolves a seeded bearer token.
func (b *Backend) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	principal, ok := b.tokens[strings.TrimSpace(token)]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown access token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// SetFixture inserts or replaces a fixture, e.g. to simulate a live update.
func (b *Backend) SetFixture(item fixture.Fixture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item.UpdatedAt = b.now().UTC()
	b.fixtures[item.ID] = item
}

func (b *Backend) caller(ctx context.Context) (user.Principal, error) {
	principal, ok := user.PrincipalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: authentication required", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func (b *Backend) usernameLocked(userID string) string {
	if name, ok := b.usernames[userID]; ok {
		return name
	}
	return userID
}

func rejected(message string) error {
	return &usecase.ApplicationError{StatusCode: http.StatusBadRequest, Message: message}
}
