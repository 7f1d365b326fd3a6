package bridge

import (
	"context"

	"github.com/phuslu/goid"
)

type ctxKeyCallback struct{}

func ctxWithCallbackMarker(ctx context.Context, b *Bridge) context.Context {
	return context.WithValue(ctx, ctxKeyCallback{}, b)
}

// IsInCallback reports whether the caller runs inside a callback invoked
// by this bridge: either the context was derived from the callback one,
// or the call happens on the consumer goroutine.
func (b *Bridge) IsInCallback(ctx context.Context) bool {
	if marked, _ := ctx.Value(ctxKeyCallback{}).(*Bridge); marked == b {
		return true
	}
	return b.consumerGoID.Load() == goid.Goid()
}
