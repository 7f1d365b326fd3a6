// engine.go defines the contract of an external codec engine.

package codec

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/codecsession/types"
)

// Engine is an opaque codec implementation (e.g. libavcodec). Open
// allocates a context configured with the params or reports that the
// engine does not support them.
type Engine interface {
	fmt.Stringer
	Open(ctx context.Context, params Params) (EngineContext, error)
}

// EngineContext is the mutable state of one configured codec. It is never
// used concurrently: the worker calls it from a single goroutine.
//
// Push and Drain must return promptly relative to one unit; an engine
// which is asynchronous inside must block on the calling goroutine
// instead of returning early.
type EngineContext interface {
	// Push feeds one unit and returns the outputs ready so far (possibly
	// none, if the engine buffers internally).
	Push(ctx context.Context, unit types.Unit, opts types.SubmitOptions) ([]RawOutput, error)

	// Drain signals the end of stream and returns everything still
	// buffered, in emission order.
	Drain(ctx context.Context) ([]RawOutput, error)

	types.Closer
}

// RawOutput is an output as produced by the engine. Data belongs to the
// engine and is only valid until the next call to the engine context.
type RawOutput struct {
	Timestamp int64
	Duration  int64
	Flags     types.UnitFlags
	Data      []byte
}
