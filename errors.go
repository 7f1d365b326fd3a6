package codecsession

import (
	"fmt"

	"github.com/xaionaro-go/codecsession/bridge"
	"github.com/xaionaro-go/codecsession/worker"
)

var (
	// ErrAborted resolves a flush which was cut by Reset or Close.
	ErrAborted = bridge.ErrAborted

	// ErrReentrant is returned by Flush called from within a callback.
	ErrReentrant = bridge.ErrReentrant
)

type ErrSequencing = worker.ErrSequencing
type ErrCallbackPanic = bridge.ErrCallbackPanic
type ErrCallback = bridge.ErrCallback

// ErrInvalidState is returned when the operation is not allowed in the
// current state; the operation has no effect.
type ErrInvalidState struct {
	Op    string
	State State
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("operation '%s' is not allowed in state '%s'", e.Op, e.State)
}
