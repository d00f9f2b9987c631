package predictionapi

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/usecase"
)

type countingVerifier struct {
	calls atomic.Int32
	err   error
}

func (v *countingVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	v.calls.Add(1)
	if v.err != nil {
		return user.Principal{}, v.err
	}
	return user.Principal{UserID: "u-" + token, Username: "alice", AccessToken: token}, nil
}

func TestSessionCache_HitsWithinTTL(t *testing.T) {
	t.Parallel()

	verifier := &countingVerifier{}
	cache := NewSessionCache(verifier, time.Minute, 10)
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		principal, err := cache.VerifyAccessToken(context.Background(), "tok")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if principal.UserID != "u-tok" || principal.AccessToken != "tok" {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	}
	if got := verifier.calls.Load(); got != 1 {
		t.Fatalf("expected one backend verification, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.VerifyAccessToken(context.Background(), "tok"); err != nil {
		t.Fatalf("verify after expiry: %v", err)
	}
	if got := verifier.calls.Load(); got != 2 {
		t.Fatalf("expected re-verification after expiry, got %d calls", got)
	}
}

func TestSessionCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	verifier := &countingVerifier{err: usecase.ErrUnauthorized}
	cache := NewSessionCache(verifier, time.Minute, 10)

	for i := 0; i < 2; i++ {
		if _, err := cache.VerifyAccessToken(context.Background(), "bad"); !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if got := verifier.calls.Load(); got != 2 {
		t.Fatalf("expected every failure to reach the backend, got %d", got)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}

func TestSessionCache_ForgetAndEviction(t *testing.T) {
	t.Parallel()

	verifier := &countingVerifier{}
	cache := NewSessionCache(verifier, time.Minute, 2)
	ctx := context.Background()

	_, _ = cache.VerifyAccessToken(ctx, "a")
	_, _ = cache.VerifyAccessToken(ctx, "b")
	_, _ = cache.VerifyAccessToken(ctx, "c")
	if cache.Len() != 2 {
		t.Fatalf("expected cache bounded at 2 entries, got %d", cache.Len())
	}

	cache.Forget("c")
	_, _ = cache.VerifyAccessToken(ctx, "c")
	if got := verifier.calls.Load(); got != 4 {
		t.Fatalf("expected forgotten token to be verified again, got %d calls", got)
	}
}
