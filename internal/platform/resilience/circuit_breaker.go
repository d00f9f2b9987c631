package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after consecutive failures, rejects calls while open,
// then lets a few trials through before closing again.
// A nil breaker allows everything.
type CircuitBreaker struct {
	failureThreshold int
	openTimeout      time.Duration
	trialLimit       int
	now              func() time.Time
	onChange         func(from, to CircuitState)

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openedAt  time.Time
	trials    int
	succeeded int
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: max(failureThreshold, 1),
		openTimeout:      cmpOr(openTimeout, 15*time.Second),
		trialLimit:       max(halfOpenMaxReq, 1),
		now:              time.Now,
		state:            CircuitStateClosed,
	}
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Allow reports whether a call may proceed. In half-open state it reserves
// one of the trial slots.
func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	from := b.state
	err := b.allowLocked()
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

func (b *CircuitBreaker) allowLocked() error {
	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.setLocked(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.trials >= b.trialLimit {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

// Execute runs fn when the breaker allows it and records the outcome.
// isFailure decides which errors count against the dependency; nil counts every error.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err != nil && (isFailure == nil || isFailure(err)))
	return err
}

func (b *CircuitBreaker) RecordSuccess() { b.Record(false) }

func (b *CircuitBreaker) RecordFailure() { b.Record(true) }

// Record feeds one call outcome into the state machine.
func (b *CircuitBreaker) Record(failed bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	from := b.state
	switch {
	case b.state == CircuitStateClosed && failed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.setLocked(CircuitStateOpen)
		}
	case b.state == CircuitStateClosed:
		b.failures = 0
	case b.state == CircuitStateHalfOpen && failed:
		b.setLocked(CircuitStateOpen)
	case b.state == CircuitStateHalfOpen:
		b.trials = max(b.trials-1, 0)
		b.succeeded++
		if b.succeeded >= b.trialLimit && b.trials == 0 {
			b.setLocked(CircuitStateClosed)
		}
	case failed:
		// A straggler failing while open restarts the cool-down.
		b.openedAt = b.now()
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State is the current state; an open breaker past its timeout reads as half-open.
func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) setLocked(to CircuitState) {
	b.state = to
	b.trials = 0
	b.succeeded = 0
	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
}

func (b *CircuitBreaker) notify(from, to CircuitState) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
