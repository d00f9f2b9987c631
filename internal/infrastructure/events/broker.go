package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/prediction-league/internal/domain/fixture"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
)

const defaultSubscriberBuffer = 16

// Broker is an in-process pub/sub for encoded live updates. A new
// subscriber first receives the latest message so it does not wait a full
// poll interval for data.
type Broker struct {
	logger *logging.Logger
	buffer int

	mu      sync.RWMutex
	subs    map[chan []byte]struct{}
	last    []byte
	dropped atomic.Int64
}

func NewBroker(buffer int, logger *logging.Logger) *Broker {
	if logger == nil {
		logger = logging.Default()
	}
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broker{
		logger: logger.Named("live_broker"),
		buffer: buffer,
		subs:   make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel of JSON-encoded LiveMessages and a cancel
// function that closes it.
func (b *Broker) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	if b.last != nil {
		ch <- b.last
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// PublishLive encodes update and hands it to every subscriber. Slow
// subscribers miss the message instead of blocking the poller.
func (b *Broker) PublishLive(ctx context.Context, update fixture.LiveUpdate) error {
	data, err := EncodeLiveUpdate(update)
	if err != nil {
		return fmt.Errorf("encode live update: %w", err)
	}
	b.Broadcast(ctx, data)
	return nil
}

// Broadcast delivers an already encoded message.
func (b *Broker) Broadcast(ctx context.Context, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = data
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			b.dropped.Add(1)
			b.logger.DebugContext(ctx, "dropping live update for slow subscriber")
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
