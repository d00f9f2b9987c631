package usecase

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/domain/prediction"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// Availability is the per-fixture view a client uses to enable or disable
// its prediction controls.
type Availability struct {
	FixtureID  int64
	Window     fixture.Window
	CanSubmit  bool
	CanReset   bool
	Prediction *prediction.Prediction
}

// PredictionStore owns one user's predictions. Mutations on the same fixture
// run one at a time in request order; responses are applied only when they are
// newer than the last applied one and the store has not been closed.
type PredictionStore struct {
	userID   string
	repo     prediction.Repository
	fixtures fixture.Repository
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[int64]prediction.Prediction
	issued  map[int64]uint64
	applied map[int64]uint64
	tails   map[int64]chan struct{}
	epoch   uint64
	closed  bool
	loaded  bool
}

func NewPredictionStore(userID string, repo prediction.Repository, fixtures fixture.Repository, logger *logging.Logger) *PredictionStore {
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionStore{
		userID:   userID,
		repo:     repo,
		fixtures: fixtures,
		logger:   logger,
		now:      time.Now,
		entries:  make(map[int64]prediction.Prediction),
		issued:   make(map[int64]uint64),
		applied:  make(map[int64]uint64),
		tails:    make(map[int64]chan struct{}),
	}
}

func (s *PredictionStore) UserID() string {
	return s.userID
}

func (s *PredictionStore) Submit(ctx context.Context, fixtureID int64, homeScore, awayScore int) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionStore.Submit", attribute.Int64("fixture.id", fixtureID))
	defer span.End()

	if fixtureID <= 0 {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}
	if homeScore < 0 || awayScore < 0 {
		return prediction.Prediction{}, fmt.Errorf("%w: scores must be non-negative", ErrInvalidInput)
	}

	item, err := s.lookupFixture(ctx, fixtureID)
	if err != nil {
		return prediction.Prediction{}, err
	}

	release, err := s.acquire(ctx, fixtureID)
	if err != nil {
		return prediction.Prediction{}, err
	}
	defer release()

	// Checked again after queueing: an earlier mutation may have changed the answer.
	if s.window(item) != fixture.WindowOpen {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture=%d", ErrPredictionLocked, fixtureID)
	}

	s.mu.Lock()
	if existing, ok := s.entries[fixtureID]; ok && existing.Active() {
		s.mu.Unlock()
		return prediction.Prediction{}, fmt.Errorf("%w: fixture=%d prediction=%d", ErrAlreadyPredicted, fixtureID, existing.ID)
	}
	gen, epoch := s.issueLocked(fixtureID)
	s.mu.Unlock()

	created, err := s.repo.Submit(ctx, fixtureID, homeScore, awayScore)
	if err != nil {
		s.settle(fixtureID, gen)
		return prediction.Prediction{}, fmt.Errorf("submit prediction: %w", err)
	}

	created.FixtureID = fixtureID
	created.UserID = s.userID
	created.Status = prediction.StatusSubmitted
	if created.Season == "" {
		created.Season = item.Season
	}
	if created.Week == 0 {
		created.Week, _ = item.Week()
	}
	if created.SubmittedAt.IsZero() {
		created.SubmittedAt = s.now().UTC()
	}

	s.mu.Lock()
	if s.acceptLocked(fixtureID, gen, epoch) {
		s.entries[fixtureID] = created
	} else {
		s.logger.DebugContext(ctx, "discard stale submit response", "user_id", s.userID, "fixture_id", fixtureID, "generation", gen)
	}
	s.mu.Unlock()

	return created, nil
}

func (s *PredictionStore) Reset(ctx context.Context, predictionID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionStore.Reset")
	defer span.End()

	if predictionID <= 0 {
		return fmt.Errorf("%w: prediction id must be positive", ErrInvalidInput)
	}

	fixtureID, ok := s.fixtureOf(predictionID)
	if !ok {
		return fmt.Errorf("%w: prediction=%d", ErrNotFound, predictionID)
	}

	release, err := s.acquire(ctx, fixtureID)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	current, ok := s.entries[fixtureID]
	s.mu.Unlock()
	if !ok || current.ID != predictionID {
		return fmt.Errorf("%w: prediction=%d", ErrNotFound, predictionID)
	}
	if current.Status != prediction.StatusSubmitted {
		return fmt.Errorf("%w: prediction=%d status=%s", ErrPredictionNotResettable, predictionID, current.Status)
	}

	item, err := s.lookupFixture(ctx, fixtureID)
	if err != nil {
		return err
	}
	if s.window(item) != fixture.WindowOpen {
		return fmt.Errorf("%w: fixture=%d", ErrPredictionLocked, fixtureID)
	}

	s.mu.Lock()
	gen, epoch := s.issueLocked(fixtureID)
	s.mu.Unlock()

	if err := s.repo.Reset(ctx, predictionID); err != nil {
		s.settle(fixtureID, gen)
		return fmt.Errorf("reset prediction: %w", err)
	}

	s.mu.Lock()
	if s.acceptLocked(fixtureID, gen, epoch) {
		delete(s.entries, fixtureID)
	}
	s.mu.Unlock()

	return nil
}

// List yields the predictions matching filter with LOCKED derived from the
// current fixture window. Every range re-reads the store.
func (s *PredictionStore) List(ctx context.Context, filter prediction.Filter) iter.Seq[prediction.Prediction] {
	return func(yield func(prediction.Prediction) bool) {
		for _, item := range s.snapshot() {
			effective := item.Status
			if fx, ok, err := s.fixtures.GetByID(ctx, item.FixtureID); err == nil && ok {
				effective = item.EffectiveStatus(s.window(fx))
			}
			if !filter.Match(item, effective) {
				continue
			}
			item.Status = effective
			if !yield(item) {
				return
			}
		}
	}
}

func (s *PredictionStore) Availability(ctx context.Context, fixtureID int64) (Availability, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionStore.Availability")
	defer span.End()

	if fixtureID <= 0 {
		return Availability{}, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}

	item, err := s.lookupFixture(ctx, fixtureID)
	if err != nil {
		return Availability{}, err
	}
	window := s.window(item)

	s.mu.Lock()
	current, exists := s.entries[fixtureID]
	_, busy := s.tails[fixtureID]
	s.mu.Unlock()

	out := Availability{
		FixtureID: fixtureID,
		Window:    window,
		CanSubmit: window == fixture.WindowOpen && !exists && !busy,
	}
	if exists {
		current.Status = current.EffectiveStatus(window)
		out.Prediction = &current
		out.CanReset = window == fixture.WindowOpen && current.Status == prediction.StatusSubmitted && !busy
	}

	return out, nil
}

// Refresh reloads predictions from the backend. Fixtures with a mutation
// issued or pending since the refresh started keep their local entry.
func (s *PredictionStore) Refresh(ctx context.Context, filter prediction.Filter) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionStore.Refresh")
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	epoch := s.epoch
	startIssued := make(map[int64]uint64, len(s.issued))
	for fixtureID, gen := range s.issued {
		if gen != s.applied[fixtureID] {
			continue
		}
		startIssued[fixtureID] = gen
	}
	s.mu.Unlock()

	items, err := s.repo.ListMine(ctx, filter)
	if err != nil {
		return fmt.Errorf("list predictions: %w", err)
	}

	fresh := make(map[int64]prediction.Prediction, len(items))
	for _, item := range items {
		// A reset prediction comes back as EDITABLE; locally it no longer exists.
		if item.FixtureID <= 0 || !item.Active() {
			continue
		}
		item.UserID = s.userID
		fresh[item.FixtureID] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}

	untouched := func(fixtureID int64) bool {
		gen, seen := startIssued[fixtureID]
		if !seen {
			return s.issued[fixtureID] == 0
		}
		return s.issued[fixtureID] == gen
	}

	for fixtureID, current := range s.entries {
		if _, ok := fresh[fixtureID]; ok || !untouched(fixtureID) {
			continue
		}
		if refreshCovers(filter, current) {
			delete(s.entries, fixtureID)
		}
	}
	for fixtureID, item := range fresh {
		if !untouched(fixtureID) {
			continue
		}
		s.entries[fixtureID] = item
	}
	s.loaded = true

	return nil
}

// Loaded reports whether at least one refresh has completed.
func (s *PredictionStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Close detaches the store from its owner. Responses still in flight are
// discarded when they arrive.
func (s *PredictionStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.mu.Unlock()
}

func (s *PredictionStore) acquire(ctx context.Context, fixtureID int64) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	prev := s.tails[fixtureID]
	done := make(chan struct{})
	s.tails[fixtureID] = done
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if s.tails[fixtureID] == done {
			delete(s.tails, fixtureID)
		}
		s.mu.Unlock()
		close(done)
	}

	if prev == nil {
		return release, nil
	}

	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		// Hand our slot on only after the predecessor finishes.
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}

func (s *PredictionStore) issueLocked(fixtureID int64) (uint64, uint64) {
	s.issued[fixtureID]++
	return s.issued[fixtureID], s.epoch
}

func (s *PredictionStore) acceptLocked(fixtureID int64, gen, epoch uint64) bool {
	if s.epoch != epoch || gen <= s.applied[fixtureID] {
		return false
	}
	s.applied[fixtureID] = gen
	return true
}

// settle marks a failed mutation as done without touching the entry.
func (s *PredictionStore) settle(fixtureID int64, gen uint64) {
	s.mu.Lock()
	if gen > s.applied[fixtureID] {
		s.applied[fixtureID] = gen
	}
	s.mu.Unlock()
}

func (s *PredictionStore) fixtureOf(predictionID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fixtureID, item := range s.entries {
		if item.ID == predictionID {
			return fixtureID, true
		}
	}
	return 0, false
}

func (s *PredictionStore) snapshot() []prediction.Prediction {
	s.mu.Lock()
	out := make([]prediction.Prediction, 0, len(s.entries))
	for _, item := range s.entries {
		out = append(out, item)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b prediction.Prediction) int {
		if a.FixtureID < b.FixtureID {
			return -1
		}
		if a.FixtureID > b.FixtureID {
			return 1
		}
		return 0
	})
	return out
}

func (s *PredictionStore) lookupFixture(ctx context.Context, fixtureID int64) (fixture.Fixture, error) {
	item, ok, err := s.fixtures.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%d", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *PredictionStore) window(item fixture.Fixture) fixture.Window {
	return item.Window(s.now())
}

func refreshCovers(filter prediction.Filter, item prediction.Prediction) bool {
	if filter.Season != "" && !strings.EqualFold(filter.Season, item.Season) {
		return false
	}
	if filter.Week > 0 && filter.Week != item.Week {
		return false
	}
	if filter.Status != "" && filter.Status != item.Status {
		return false
	}
	return true
}
