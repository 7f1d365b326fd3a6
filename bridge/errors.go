package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned by AwaitDrained when the wait is cut by a
	// reset or a close.
	ErrAborted = errors.New("aborted")

	// ErrReentrant is returned when AwaitDrained is called from within a
	// callback of the same bridge, which would wait for itself forever.
	ErrReentrant = errors.New("cannot wait for the callbacks to drain from within a callback")
)

// ErrCallbackPanic is reported when a callback panicked.
type ErrCallbackPanic struct {
	Kind  ItemKind
	Value any
}

func (e ErrCallbackPanic) Error() string {
	return fmt.Sprintf("the %s callback panicked: %v", e.Kind, e.Value)
}

// ErrCallback is reported when the output callback returned an error.
type ErrCallback struct {
	Err error
}

func (e ErrCallback) Error() string {
	return fmt.Sprintf("the output callback returned an error: %v", e.Err)
}

func (e ErrCallback) Unwrap() error {
	return e.Err
}
