package predictionapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

const (
	DefaultSessionCacheTTL        = 30 * time.Second
	DefaultSessionCacheMaxEntries = 10000
)

// TokenVerifier resolves an access token into a principal.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (user.Principal, error)
}

type sessionEntry struct {
	principal user.Principal
	expiresAt time.Time
}

// SessionCache remembers verified tokens for a short TTL so every gateway
// request does not cost a backend /auth/status round trip. Tokens are keyed
// by their SHA-256 digest.
type SessionCache struct {
	verifier   TokenVerifier
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	flight     resilience.SingleFlight[user.Principal]

	mu      sync.RWMutex
	entries map[string]sessionEntry
}

func NewSessionCache(verifier TokenVerifier, ttl time.Duration, maxEntries int) *SessionCache {
	if maxEntries <= 0 {
		maxEntries = DefaultSessionCacheMaxEntries
	}
	return &SessionCache{
		verifier:   verifier,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]sessionEntry),
	}
}

func (c *SessionCache) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	key := hashToken(token)
	if principal, ok := c.get(key); ok {
		principal.AccessToken = token
		return principal, nil
	}

	principal, err := c.flight.DoContext(ctx, key, func() (user.Principal, error) {
		return c.verifier.VerifyAccessToken(context.WithoutCancel(ctx), token)
	})
	if err != nil {
		return user.Principal{}, err
	}

	c.set(key, principal)
	principal.AccessToken = token
	return principal, nil
}

// Forget drops a token, typically after the backend reported the session expired.
func (c *SessionCache) Forget(token string) {
	key := hashToken(token)
	c.flight.Forget(key)
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SessionCache) get(key string) (user.Principal, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return user.Principal{}, false
	}
	if !entry.expiresAt.After(now) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return user.Principal{}, false
	}

	return entry.principal, true
}

func (c *SessionCache) set(key string, principal user.Principal) {
	if c.ttl <= 0 {
		return
	}

	now := c.now()
	principal.AccessToken = ""

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictExpired(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOne()
		}
	}

	c.entries[key] = sessionEntry{
		principal: principal,
		expiresAt: now.Add(c.ttl),
	}
}

func (c *SessionCache) evictExpired(now time.Time) {
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}

func (c *SessionCache) evictOne() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
