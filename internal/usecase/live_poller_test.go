package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	fixturemock "github.com/riskibarqy/prediction-league/internal/mocks/domain/fixture"
	predictionmock "github.com/riskibarqy/prediction-league/internal/mocks/domain/prediction"
	"github.com/stretchr/testify/mock"
)

type gatedFeed struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	result  []fixture.Fixture
	err     error
}

func newGatedFeed() *gatedFeed {
	return &gatedFeed{
		entered: make(chan struct{}, 256),
		release: make(chan struct{}),
	}
}

func (f *gatedFeed) ListLiveMatches(ctx context.Context) ([]fixture.Fixture, error) {
	f.calls.Add(1)
	f.entered <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func (f *gatedFeed) ListFixtures(context.Context, fixture.Query) ([]fixture.Fixture, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []fixture.LiveUpdate
	notify  chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{notify: make(chan struct{}, 16)}
}

func (p *recordingPublisher) PublishLive(_ context.Context, update fixture.LiveUpdate) error {
	p.mu.Lock()
	p.updates = append(p.updates, update)
	p.mu.Unlock()
	p.notify <- struct{}{}
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLivePoller_SkipsTickWhileFetchInFlight(t *testing.T) {
	t.Parallel()

	feed := newGatedFeed()
	feed.result = []fixture.Fixture{{ID: 1, Status: fixture.StatusFirstHalf}}
	publisher := newRecordingPublisher()
	poller := NewLivePoller(feed, newFixtureCacheStub(), publisher, LivePollerConfig{Interval: time.Hour}, nil)

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer poller.Stop()

	<-feed.entered
	if err := poller.Trigger(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitFor(t, "skipped tick", func() bool { return poller.Status().Skipped == 1 })
	if got := feed.calls.Load(); got != 1 {
		t.Fatalf("expected one fetch in flight, got %d", got)
	}

	close(feed.release)
	<-publisher.notify

	status := poller.Status()
	if status.Ticks != 1 || status.LiveCount != 1 || status.LastSuccess.IsZero() {
		t.Fatalf("unexpected status after tick: %+v", status)
	}
}

func TestLivePoller_FailureKeepsCacheAndLoopRunning(t *testing.T) {
	t.Parallel()

	feed := fixturemock.NewFeed(t)
	cache := fixturemock.NewRepository(t)
	publisher := fixturemock.NewLivePublisher(t)

	fetchErr := errors.New("backend unreachable")
	feed.On("ListLiveMatches", mock.Anything).Return(nil, fetchErr).Once()
	feed.On("ListLiveMatches", mock.Anything).Return([]fixture.Fixture{{ID: 5}}, nil)
	cache.On("ListLive", mock.Anything).Return(nil, nil)
	cache.On("ReplaceLive", mock.Anything, []fixture.Fixture{{ID: 5}}).Return(nil)

	published := make(chan fixture.LiveUpdate, 8)
	publisher.On("PublishLive", mock.Anything, mock.AnythingOfType("fixture.LiveUpdate")).
		Run(func(args mock.Arguments) { published <- args.Get(1).(fixture.LiveUpdate) }).
		Return(nil)

	poller := NewLivePoller(feed, cache, publisher, LivePollerConfig{Interval: time.Hour}, nil)
	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer poller.Stop()

	first := <-published
	if !first.Failed() {
		t.Fatalf("expected failed update, got %+v", first)
	}
	if poller.Status().LastError == "" {
		t.Fatalf("expected last error to be recorded")
	}
	cache.AssertNotCalled(t, "ReplaceLive", mock.Anything, mock.Anything)

	waitFor(t, "in-flight flag cleared", func() bool { return !poller.inFlight.Load() })
	if err := poller.Trigger(); err != nil {
		t.Fatalf("trigger after failure: %v", err)
	}
	second := <-published
	if second.Failed() || len(second.Fixtures) != 1 {
		t.Fatalf("expected successful update, got %+v", second)
	}
}

func TestLivePoller_StopDiscardsLateResult(t *testing.T) {
	t.Parallel()

	feed := newGatedFeed()
	feed.result = []fixture.Fixture{{ID: 9, Status: fixture.StatusSecondHalf}}
	cache := newFixtureCacheStub()
	publisher := newRecordingPublisher()
	poller := NewLivePoller(feed, cache, publisher, LivePollerConfig{Interval: time.Hour}, nil)

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-feed.entered
	poller.Stop()
	close(feed.release)

	waitFor(t, "late fetch to finish", func() bool { return !poller.inFlight.Load() })
	if publisher.count() != 0 {
		t.Fatalf("late result was published after stop")
	}
	if live, _ := cache.ListLive(context.Background()); len(live) != 0 {
		t.Fatalf("late result was written to cache: %+v", live)
	}
	if err := poller.Trigger(); !errors.Is(err, ErrPollerStopped) {
		t.Fatalf("expected ErrPollerStopped, got %v", err)
	}
}

func TestLivePoller_StartTwiceAndRestart(t *testing.T) {
	t.Parallel()

	feed := newGatedFeed()
	close(feed.release)
	poller := NewLivePoller(feed, newFixtureCacheStub(), nil, LivePollerConfig{Interval: time.Hour}, nil)

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := poller.Start(context.Background()); !errors.Is(err, ErrPollerRunning) {
		t.Fatalf("expected ErrPollerRunning, got %v", err)
	}
	poller.Stop()
	poller.Stop()

	waitFor(t, "first fetch to finish", func() bool { return !poller.inFlight.Load() })
	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer poller.Stop()
	if !poller.Status().Running {
		t.Fatalf("expected poller to run after restart")
	}
}

func TestLivePoller_SetIntervalAndWatch(t *testing.T) {
	t.Parallel()

	feed := newGatedFeed()
	close(feed.release)
	poller := NewLivePoller(feed, newFixtureCacheStub(), nil, LivePollerConfig{}, nil)

	if got := poller.Status().Interval; got != DefaultLivePollInterval {
		t.Fatalf("unexpected default interval: %s", got)
	}
	if err := poller.SetInterval(0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := poller.Watch(make(chan struct{})); !errors.Is(err, ErrPollerStopped) {
		t.Fatalf("expected ErrPollerStopped, got %v", err)
	}

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-feed.entered
	if err := poller.SetInterval(20 * time.Millisecond); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	waitFor(t, "ticks at new interval", func() bool { return feed.calls.Load() >= 3 })

	if err := poller.SetInterval(time.Hour); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	waitFor(t, "in-flight flag cleared", func() bool { return !poller.inFlight.Load() })
	before := feed.calls.Load()

	signals := make(chan struct{}, 1)
	if err := poller.Watch(signals); err != nil {
		t.Fatalf("watch: %v", err)
	}
	signals <- struct{}{}
	waitFor(t, "watched trigger", func() bool { return feed.calls.Load() > before })

	poller.Stop()
}

func TestLivePoller_FinishedFixtureLeavesLiveWithFinalStatus(t *testing.T) {
	t.Parallel()

	kickoff := storeNow.Add(-2 * time.Hour)
	playing := fixture.Fixture{ID: 1, League: "Premier League", KickoffAt: kickoff, Status: fixture.StatusSecondHalf}
	finished := playing
	finished.Status = fixture.StatusFinished

	feed := fixturemock.NewFeed(t)
	feed.On("ListLiveMatches", mock.Anything).Return([]fixture.Fixture{playing}, nil).Once()
	feed.On("ListLiveMatches", mock.Anything).Return([]fixture.Fixture{}, nil)
	feed.On("ListFixtures", mock.Anything, mock.MatchedBy(func(q fixture.Query) bool {
		return q.League == playing.League && !q.From.After(kickoff) && !q.To.Before(kickoff)
	})).Return([]fixture.Fixture{finished}, nil).Once()

	cache := newFixtureCacheStub()
	publisher := newRecordingPublisher()
	poller := NewLivePoller(feed, cache, publisher, LivePollerConfig{Interval: time.Hour}, nil)
	poller.now = func() time.Time { return storeNow }

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer poller.Stop()
	<-publisher.notify

	waitFor(t, "in-flight flag cleared", func() bool { return !poller.inFlight.Load() })
	if err := poller.Trigger(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	<-publisher.notify

	cached, ok, _ := cache.GetByID(context.Background(), 1)
	if !ok || cached.Status != fixture.StatusFinished {
		t.Fatalf("expected cached fixture to end FINISHED, got %+v", cached)
	}

	store := NewPredictionStore("user-1", predictionmock.NewRepository(t), cache, nil)
	store.now = func() time.Time { return storeNow }
	availability, err := store.Availability(context.Background(), 1)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if availability.Window != fixture.WindowFinished {
		t.Fatalf("expected FINISHED window, got %s", availability.Window)
	}
}
