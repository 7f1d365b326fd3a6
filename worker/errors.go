package worker

import (
	"errors"
	"fmt"
)

var (
	ErrStopped = errors.New("the worker is stopped")
)

// ErrSequencing is reported for a unit dropped because the decoder
// awaits a sync unit (after configure or reset).
type ErrSequencing struct {
	Timestamp int64
}

func (e ErrSequencing) Error() string {
	return fmt.Sprintf("the unit (ts:%d) is not a sync unit, while a sync unit is required after configure/reset; dropped", e.Timestamp)
}

// ErrPanic is reported when the engine panicked; it is always fatal.
type ErrPanic struct {
	Value any
}

func (e ErrPanic) Error() string {
	return fmt.Sprintf("the codec engine panicked: %v", e.Value)
}
