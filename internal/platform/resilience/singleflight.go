package resilience

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// SingleFlight is a typed singleflight.Group: concurrent calls for one key
// share a single execution of fn.
type SingleFlight[V any] struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers. shared reports whether
// the result was handed to more than one caller.
func (g *SingleFlight[V]) Do(key string, fn func() (V, error)) (val V, err error, shared bool) {
	v, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	val, _ = v.(V)
	return val, err, shared
}

// DoContext is Do for callers that may give up early. The shared execution
// keeps running for the remaining callers when ctx ends.
func (g *SingleFlight[V]) DoContext(ctx context.Context, key string, fn func() (V, error)) (V, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		return fn()
	})
	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		val, _ := res.Val.(V)
		return val, res.Err
	}
}

// Forget makes the next call for key start a fresh execution.
func (g *SingleFlight[V]) Forget(key string) {
	g.group.Forget(key)
}
