// pool.go implements a generic object pool with optional finalizers.

// Package pool provides a generic object pool for natively-backed and
// plain objects.
package pool

import (
	"runtime"
	"sync"
)

type Pool[T any] struct {
	sync.Pool
	ResetFunc func(*T)

	// DisableReuse makes Put drop the items instead of recycling them,
	// which is handy when hunting use-after-release bugs.
	DisableReuse bool
}

// NewPool returns a pool allocating items with allocFunc. If freeFunc is
// not nil, it is attached as a finalizer to every allocated item, so
// native memory is returned even for items the pool decided to drop.
func NewPool[T any](
	allocFunc func() *T,
	resetFunc func(*T),
	freeFunc func(*T),
) *Pool[T] {
	return &Pool[T]{
		Pool: sync.Pool{
			New: func() any {
				v := allocFunc()
				if freeFunc != nil {
					runtime.SetFinalizer(v, freeFunc)
				}
				return v
			},
		},
		ResetFunc: resetFunc,
	}
}

func (p *Pool[T]) Get() *T {
	return p.Pool.Get().(*T)
}

func (p *Pool[T]) Put(items ...*T) {
	if p.DisableReuse {
		return
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		if p.ResetFunc != nil {
			p.ResetFunc(item)
		}
		p.Pool.Put(item)
	}
}
