package codecsession

import (
	"context"

	"github.com/xaionaro-go/codecsession/types"
)

// Handlers are the callbacks of a session. They are called one at a time
// on a goroutine of the session, in the order the results were produced.
//
// The output payload is released after OnOutput returns, unless the
// callback takes it with Output.TakePayload.
type Handlers struct {
	OnOutput func(ctx context.Context, output *types.Output) error
	OnError  func(ctx context.Context, err error)
}
