package bridge

import (
	"context"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/codecsession/logger"
)

// DrainStater is the producer side of the drained condition (the worker).
type DrainStater interface {
	IsDrained() bool
	DrainedChangeChan() <-chan struct{}
	StopChan() <-chan struct{}
}

func (b *Bridge) notifyDrained(ctx context.Context) {
	logger.Tracef(ctx, "notifyDrained")
	close(*xatomic.SwapPointer(&b.changeChanDrained, ptr(make(chan struct{}))))
}

// DrainedChangeChan returns a channel closed the next time the pending
// counter drops to zero.
func (b *Bridge) DrainedChangeChan() <-chan struct{} {
	return *xatomic.LoadPointer(&b.changeChanDrained)
}

// AwaitDrained waits until every delivered item was handled and the
// producer has nothing left to deliver. It fails with ErrAborted if the
// bridge gets closed or the producer stops, and with ErrReentrant if
// called from within a callback.
func (b *Bridge) AwaitDrained(
	ctx context.Context,
	producer DrainStater,
) (_err error) {
	logger.Debugf(ctx, "AwaitDrained")
	defer func() { logger.Debugf(ctx, "/AwaitDrained: %v", _err) }()
	if b.IsInCallback(ctx) {
		return ErrReentrant
	}
	for {
		// the channels are taken before checking the condition, so a change
		// between the check and the select is not missed
		bridgeCh := b.DrainedChangeChan()
		producerCh := producer.DrainedChangeChan()
		select {
		case <-b.closed.CloseChan():
			return ErrAborted
		case <-producer.StopChan():
			return ErrAborted
		default:
		}
		// the producer increments pending before it becomes drained, so
		// it has to be checked first
		isDrained := producer.IsDrained()
		pending := b.pending.Load()
		logger.Tracef(ctx, "pending: %d, producer drained: %t", pending, isDrained)
		if pending == 0 && isDrained {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closed.CloseChan():
			return ErrAborted
		case <-producer.StopChan():
			return ErrAborted
		case <-bridgeCh:
		case <-producerCh:
		}
	}
}
