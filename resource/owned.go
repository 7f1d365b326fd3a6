package resource

import (
	"fmt"

	"go.uber.org/atomic"
)

// Owned is a single-owner handle over a value that must be freed exactly
// once (a codec context, a conversion context, an I/O handle, ...).
type Owned[T any] struct {
	value T
	free  func(T) error
	done  atomic.Bool
}

func Own[T any](value T, free func(T) error) *Owned[T] {
	return &Owned[T]{
		value: value,
		free:  free,
	}
}

// Get returns the owned value; the second result is false if the handle
// was already released or moved.
func (o *Owned[T]) Get() (T, bool) {
	if o == nil || o.done.Load() {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Move transfers the ownership to a new handle. The old handle becomes
// empty: releasing it is a no-op. Returns nil if there was nothing to move.
func (o *Owned[T]) Move() *Owned[T] {
	if o == nil || !o.done.CompareAndSwap(false, true) {
		return nil
	}
	moved := Own(o.value, o.free)
	var zero T
	o.value = zero
	return moved
}

func (o *Owned[T]) IsReleased() bool {
	return o == nil || o.done.Load()
}

func (o *Owned[T]) Release() error {
	if o == nil || !o.done.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	value := o.value
	var zero T
	o.value = zero
	if o.free == nil {
		return nil
	}
	if err := o.free(value); err != nil {
		return fmt.Errorf("unable to free %T: %w", value, err)
	}
	return nil
}
