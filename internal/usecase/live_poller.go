package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

const (
	DefaultLivePollInterval     = 60 * time.Second
	DefaultLivePollFetchTimeout = 15 * time.Second

	departedLookupWindow = time.Hour
	departedGiveUpAfter  = 12 * time.Hour
)

type LivePollerConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

// LivePollerStatus is a point-in-time view of the poller.
type LivePollerStatus struct {
	Running     bool
	Interval    time.Duration
	Ticks       int64
	Skipped     int64
	LastSuccess time.Time
	LastError   string
	LiveCount   int
}

// LivePoller refreshes the live fixture cache on an interval. At most one
// fetch is in flight; ticks that fire meanwhile are skipped.
type LivePoller struct {
	feed         fixture.Feed
	cache        fixture.Repository
	publisher    fixture.LivePublisher
	logger       *logging.Logger
	now          func() time.Time
	fetchTimeout time.Duration

	inFlight atomic.Bool
	ticks    atomic.Int64
	skipped  atomic.Int64

	mu          sync.Mutex
	interval    time.Duration
	running     bool
	epoch       uint64
	baseCtx     context.Context
	cancel      context.CancelFunc
	loopDone    chan struct{}
	watchers    *conc.WaitGroup
	lastSuccess time.Time
	lastErr     string
	liveCount   int

	// departed holds fixtures that left the live feed and are not yet seen
	// with a final status.
	departed map[int64]fixture.Fixture

	intervalChanged chan struct{}
	trigger         chan struct{}
}

func NewLivePoller(feed fixture.Feed, cache fixture.Repository, publisher fixture.LivePublisher, cfg LivePollerConfig, logger *logging.Logger) *LivePoller {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultLivePollInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultLivePollFetchTimeout
	}

	return &LivePoller{
		feed:            feed,
		cache:           cache,
		publisher:       publisher,
		logger:          logger.Named("live_poller"),
		now:             time.Now,
		fetchTimeout:    cfg.FetchTimeout,
		interval:        cfg.Interval,
		departed:        make(map[int64]fixture.Fixture),
		intervalChanged: make(chan struct{}, 1),
		trigger:         make(chan struct{}, 1),
	}
}

// Start begins polling with an immediate first fetch. The poller keeps the
// values of ctx but not its cancellation for in-flight fetches.
func (p *LivePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerRunning
	}

	p.epoch++
	p.running = true
	p.baseCtx = context.WithoutCancel(ctx)
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.loopDone = make(chan struct{})
	p.watchers = &conc.WaitGroup{}

	go p.loop(loopCtx, p.epoch, p.interval, p.loopDone)

	p.logger.InfoContext(ctx, "live poller started", "interval", p.interval.String())
	return nil
}

// Stop releases the ticker and every watcher. A fetch still in flight runs to
// its timeout but its result is discarded.
func (p *LivePoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.epoch++
	cancel := p.cancel
	loopDone := p.loopDone
	watchers := p.watchers
	p.mu.Unlock()

	cancel()
	<-loopDone
	watchers.Wait()

	p.logger.Info("live poller stopped")
}

// SetInterval changes the polling interval, taking effect on the next tick.
func (p *LivePoller) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be > 0", ErrInvalidInput)
	}

	p.mu.Lock()
	p.interval = interval
	p.mu.Unlock()

	select {
	case p.intervalChanged <- struct{}{}:
	default:
	}
	return nil
}

// Trigger asks for an immediate refresh. It obeys the same overlap rule as
// the ticker.
func (p *LivePoller) Trigger() error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return ErrPollerStopped
	}

	select {
	case p.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Watch triggers a refresh for every signal on ch until ch closes or the
// poller stops.
func (p *LivePoller) Watch(ch <-chan struct{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ErrPollerStopped
	}

	loopDone := p.loopDone
	p.watchers.Go(func() {
		for {
			select {
			case <-loopDone:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				_ = p.Trigger()
			}
		}
	})
	return nil
}

func (p *LivePoller) Status() LivePollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return LivePollerStatus{
		Running:     p.running,
		Interval:    p.interval,
		Ticks:       p.ticks.Load(),
		Skipped:     p.skipped.Load(),
		LastSuccess: p.lastSuccess,
		LastError:   p.lastErr,
		LiveCount:   p.liveCount,
	}
}

func (p *LivePoller) loop(ctx context.Context, epoch uint64, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.fire(epoch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.intervalChanged:
			p.mu.Lock()
			next := p.interval
			p.mu.Unlock()
			ticker.Reset(next)
		case <-p.trigger:
			p.fire(epoch)
		case <-ticker.C:
			p.fire(epoch)
		}
	}
}

func (p *LivePoller) fire(epoch uint64) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.logger.Debug("live poll skipped, previous fetch still in flight")
		return
	}
	p.ticks.Add(1)
	go p.tick(epoch)
}

func (p *LivePoller) tick(epoch uint64) {
	defer p.inFlight.Store(false)

	p.mu.Lock()
	base := p.baseCtx
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, p.fetchTimeout)
	defer cancel()
	ctx, span := startWorkerSpan(ctx, "usecase.LivePoller.tick")
	var err error
	defer func() { finishSpan(span, err) }()

	live, err := p.feed.ListLiveMatches(ctx)
	if !p.current(epoch) {
		p.logger.DebugContext(ctx, "discard live poll result after stop")
		return
	}

	update := fixture.LiveUpdate{FetchedAt: p.now().UTC()}
	if err == nil {
		previous, listErr := p.cache.ListLive(ctx)
		if listErr != nil {
			p.logger.WarnContext(ctx, "read cached live fixtures failed", "error", listErr)
		}
		if err = p.cache.ReplaceLive(ctx, live); err == nil {
			p.settleDeparted(ctx, previous, live)
		}
	}
	if err != nil {
		update.Error = err.Error()
		p.mu.Lock()
		p.lastErr = update.Error
		p.mu.Unlock()
		p.logger.WarnContext(ctx, "live poll failed", "error", err)
	} else {
		update.Fixtures = live
		p.mu.Lock()
		p.lastSuccess = update.FetchedAt
		p.lastErr = ""
		p.liveCount = len(live)
		p.mu.Unlock()
	}

	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishLive(ctx, update); err != nil {
		p.logger.WarnContext(ctx, "publish live update failed", "error", err)
	}
}

// settleDeparted re-reads fixtures that dropped out of the live feed so the
// cache ends on their final status rather than the last live snapshot.
func (p *LivePoller) settleDeparted(ctx context.Context, previous, live []fixture.Fixture) {
	current := make(map[int64]struct{}, len(live))
	for _, item := range live {
		current[item.ID] = struct{}{}
	}

	p.mu.Lock()
	for _, item := range previous {
		if _, ok := current[item.ID]; !ok {
			p.departed[item.ID] = item
		}
	}
	pending := make([]fixture.Fixture, 0, len(p.departed))
	for id, item := range p.departed {
		if _, ok := current[id]; ok {
			delete(p.departed, id)
			continue
		}
		pending = append(pending, item)
	}
	p.mu.Unlock()

	now := p.now()
	for _, item := range pending {
		settled, err := p.refreshDeparted(ctx, item)
		if err != nil {
			p.logger.WarnContext(ctx, "refresh departed live fixture failed", "fixture_id", item.ID, "error", err)
		}
		if settled || now.Sub(item.KickoffAt) > departedGiveUpAfter {
			p.mu.Lock()
			delete(p.departed, item.ID)
			p.mu.Unlock()
		}
	}
}

func (p *LivePoller) refreshDeparted(ctx context.Context, item fixture.Fixture) (bool, error) {
	query := fixture.Query{League: item.League}
	if !item.KickoffAt.IsZero() {
		query.From = item.KickoffAt.Add(-departedLookupWindow)
		query.To = item.KickoffAt.Add(departedLookupWindow)
	}

	found, err := p.feed.ListFixtures(ctx, query)
	if err != nil {
		return false, err
	}
	for _, candidate := range found {
		if candidate.ID != item.ID {
			continue
		}
		if err := p.cache.Upsert(ctx, []fixture.Fixture{candidate}); err != nil {
			return false, err
		}
		return !candidate.Status.IsLive(), nil
	}
	return false, nil
}

func (p *LivePoller) current(epoch uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.epoch == epoch
}
