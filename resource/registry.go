package resource

import (
	"context"
	"slices"
	"sync"

	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

const (
	KindSession       = "session"
	KindEngineContext = "engine_context"
	KindBuffer        = "buffer"
)

// Registry counts live instances per kind. It is injected into the
// components that create instances, so tests can assert that everything
// created by them was released. A nil *Registry counts nothing.
type Registry struct {
	locker   xsync.Mutex
	counters map[string]*atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{
		counters: map[string]*atomic.Int64{},
	}
}

func (r *Registry) counter(kind string) *atomic.Int64 {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &r.locker, func() *atomic.Int64 {
		c := r.counters[kind]
		if c == nil {
			c = atomic.NewInt64(0)
			r.counters[kind] = c
		}
		return c
	})
}

// Track registers one live instance of the kind and returns the function
// unregistering it; calling the returned function more than once has no
// additional effect.
func (r *Registry) Track(kind string) (untrack func()) {
	if r == nil {
		return func() {}
	}
	c := r.counter(kind)
	c.Inc()
	var once sync.Once
	return func() {
		once.Do(func() { c.Dec() })
	}
}

func (r *Registry) Active(kind string) int64 {
	if r == nil {
		return 0
	}
	return r.counter(kind).Load()
}

func (r *Registry) Snapshot() map[string]int64 {
	if r == nil {
		return nil
	}
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &r.locker, func() map[string]int64 {
		result := make(map[string]int64, len(r.counters))
		for kind, c := range r.counters {
			result[kind] = c.Load()
		}
		return result
	})
}

// Leaked returns the kinds which still have live instances.
func (r *Registry) Leaked() []string {
	var kinds []string
	for kind, count := range r.Snapshot() {
		if count != 0 {
			kinds = append(kinds, kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}
