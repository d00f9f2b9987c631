package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

type storeSlot struct {
	store    *PredictionStore
	refs     int
	lastUsed time.Time
}

// PredictionStores hands out one PredictionStore per user and closes stores
// that have been idle longer than the configured TTL.
type PredictionStores struct {
	repo     prediction.Repository
	fixtures fixture.Repository
	logger   *logging.Logger
	idleTTL  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	slots map[string]*storeSlot
}

func NewPredictionStores(repo prediction.Repository, fixtures fixture.Repository, idleTTL time.Duration, logger *logging.Logger) *PredictionStores {
	if logger == nil {
		logger = logging.Default()
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}

	return &PredictionStores{
		repo:     repo,
		fixtures: fixtures,
		logger:   logger.Named("prediction_stores"),
		idleTTL:  idleTTL,
		now:      time.Now,
		slots:    make(map[string]*storeSlot),
	}
}

// Acquire returns the user's store, loading it from the backend on first use.
// The caller must invoke release when done.
func (r *PredictionStores) Acquire(ctx context.Context, userID string) (*PredictionStore, func(), error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	r.mu.Lock()
	slot, ok := r.slots[userID]
	if !ok {
		store := NewPredictionStore(userID, r.repo, r.fixtures, r.logger)
		store.now = r.now
		slot = &storeSlot{store: store}
		r.slots[userID] = slot
	}
	slot.refs++
	slot.lastUsed = r.now()
	store := slot.store
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			slot.refs--
			slot.lastUsed = r.now()
			r.mu.Unlock()
		})
	}

	if !store.Loaded() {
		if err := store.Refresh(ctx, prediction.Filter{}); err != nil {
			r.logger.WarnContext(ctx, "initial prediction load failed", "user_id", userID, "error", err)
		}
	}

	return store, release, nil
}

// Evict closes stores with no holders that were last used before the idle TTL.
func (r *PredictionStores) Evict() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*PredictionStore
	for userID, slot := range r.slots {
		if slot.refs > 0 || slot.lastUsed.After(cutoff) {
			continue
		}
		evicted = append(evicted, slot.store)
		delete(r.slots, userID)
	}
	r.mu.Unlock()

	for _, store := range evicted {
		store.Close()
	}
	return len(evicted)
}

// Run evicts idle stores every interval until ctx is done.
func (r *PredictionStores) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Debug("evicted idle prediction stores", "count", n)
			}
		}
	}
}

func (r *PredictionStores) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Close closes every store.
func (r *PredictionStores) Close() {
	r.mu.Lock()
	slots := r.slots
	r.slots = make(map[string]*storeSlot)
	r.mu.Unlock()

	for _, slot := range slots {
		slot.store.Close()
	}
}
