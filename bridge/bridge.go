// Package bridge delivers the results of the worker goroutine to the
// caller side without ever blocking the worker, in the order the worker
// produced them.
package bridge

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/phuslu/goid"
	"github.com/xaionaro-go/codecsession/helpers/closuresignaler"
	"github.com/xaionaro-go/codecsession/internal"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Handler receives the items. All the methods are called from a single
// goroutine, one at a time, in the delivery order.
type Handler interface {
	OnOutput(ctx context.Context, epoch uint64, output *types.Output) error
	OnError(ctx context.Context, err error, fatal bool)
	OnAck(ctx context.Context, epoch uint64, timestamp int64, dropped bool)
}

type Bridge struct {
	Handler Handler

	locker   xsync.Mutex
	queue    []Item
	isClosed bool
	wakeCh   chan struct{}

	pending           atomic.Int64
	epoch             atomic.Uint64
	changeChanDrained *chan struct{}
	consumerGoID      atomic.Int64

	closed       *closuresignaler.ClosureSignaler
	consumerDone chan struct{}
}

func New(
	ctx context.Context,
	handler Handler,
) *Bridge {
	b := &Bridge{
		Handler:           handler,
		wakeCh:            make(chan struct{}, 1),
		changeChanDrained: ptr(make(chan struct{})),
		closed:            closuresignaler.New(),
		consumerDone:      make(chan struct{}),
	}
	b.startConsumer(ctx)
	return b
}

func (b *Bridge) String() string {
	return fmt.Sprintf("Bridge(pending:%d)", b.pending.Load())
}

// Pending is the amount of delivered items whose callback has not
// returned yet.
func (b *Bridge) Pending() int64 {
	return b.pending.Load()
}

func (b *Bridge) Epoch() uint64 {
	return b.epoch.Load()
}

// Deliver hands the item over to the consumer goroutine. It never blocks
// on the consumer. Items of an outdated epoch and items delivered after
// Close are released right away.
func (b *Bridge) Deliver(
	ctx context.Context,
	item Item,
) {
	logger.Tracef(ctx, "Deliver(%s)", &item)
	accepted := xsync.DoR1(xsync.WithNoLogging(ctx, true), &b.locker, func() bool {
		if b.isClosed || item.isStale(b.epoch.Load()) {
			return false
		}
		b.pending.Inc()
		b.queue = append(b.queue, item)
		return true
	})
	if !accepted {
		logger.Tracef(ctx, "dropping %s", &item)
		item.release()
		return
	}
	select {
	case b.wakeCh <- struct{}{}:
	default:
	}
}

// SetEpoch switches the bridge to a new epoch: queued items of the
// previous epochs are dropped (their buffers released) and the ones
// delivered later are dropped on arrival.
func (b *Bridge) SetEpoch(
	ctx context.Context,
	epoch uint64,
) {
	logger.Debugf(ctx, "SetEpoch(%d)", epoch)
	dropped := xsync.DoR1(xsync.WithNoLogging(ctx, true), &b.locker, func() []Item {
		b.epoch.Store(epoch)
		var kept, dropped []Item
		for _, item := range b.queue {
			if item.isStale(epoch) {
				dropped = append(dropped, item)
				continue
			}
			kept = append(kept, item)
		}
		b.queue = kept
		return dropped
	})
	b.forget(ctx, dropped)
}

func (b *Bridge) forget(
	ctx context.Context,
	items []Item,
) {
	if len(items) == 0 {
		return
	}
	logger.Debugf(ctx, "dropping %d items", len(items))
	for idx := range items {
		items[idx].release()
	}
	pending := b.pending.Sub(int64(len(items)))
	internal.Assert(ctx, pending >= 0, "pending", pending)
	if pending == 0 {
		b.notifyDrained(ctx)
	}
}

func (b *Bridge) popItem(ctx context.Context) (Item, bool) {
	return xsync.DoR2(xsync.WithNoLogging(ctx, true), &b.locker, func() (Item, bool) {
		if len(b.queue) == 0 {
			return Item{}, false
		}
		item := b.queue[0]
		b.queue[0] = Item{}
		b.queue = b.queue[1:]
		return item, true
	})
}

func (b *Bridge) startConsumer(ctx context.Context) {
	observability.Go(ctx, func(ctx context.Context) {
		defer close(b.consumerDone)
		b.consumerGoID.Store(goid.Goid())
		defer b.consumerGoID.Store(0)
		logger.Debugf(ctx, "consumer started")
		defer logger.Debugf(ctx, "consumer stopped")
		for {
			item, ok := b.popItem(ctx)
			if ok {
				b.dispatch(ctx, item)
				continue
			}
			select {
			case <-b.wakeCh:
			case <-b.closed.CloseChan():
				return
			}
		}
	})
}

func (b *Bridge) dispatch(
	ctx context.Context,
	item Item,
) {
	ctx = ctxWithCallbackMarker(ctx, b)
	defer func() {
		item.release()
		pending := b.pending.Dec()
		internal.Assert(ctx, pending >= 0, "pending", pending)
		if pending == 0 {
			b.notifyDrained(ctx)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			errmon.ObserveRecoverCtx(ctx, r)
			logger.Errorf(ctx, "the %s callback panicked: %v", item.Kind, r)
			b.reportError(ctx, ErrCallbackPanic{Kind: item.Kind, Value: r}, false)
		}
	}()

	if item.isStale(b.epoch.Load()) {
		logger.Tracef(ctx, "skipping a stale %s", &item)
		return
	}

	switch item.Kind {
	case ItemKindOutput:
		if err := b.Handler.OnOutput(ctx, item.Epoch, item.Output); err != nil {
			b.reportError(ctx, ErrCallback{Err: err}, false)
		}
	case ItemKindError:
		b.Handler.OnError(ctx, item.Err, item.Fatal)
	case ItemKindAck:
		b.Handler.OnAck(ctx, item.Epoch, item.Timestamp, item.Dropped)
	default:
		logger.Errorf(ctx, "unexpected item kind: %s", item.Kind)
	}
}

// reportError calls the error handler; a panic inside of it is only
// logged, there is nobody else to report it to.
func (b *Bridge) reportError(
	ctx context.Context,
	err error,
	fatal bool,
) {
	defer func() {
		if r := recover(); r != nil {
			errmon.ObserveRecoverCtx(ctx, r)
			logger.Errorf(ctx, "the error callback panicked: %v (while reporting: %v)", r, err)
		}
	}()
	b.Handler.OnError(ctx, err, fatal)
}

// Close drops the queued items and stops the consumer goroutine. Unless
// called from within a callback, it waits for the consumer to exit. It
// is idempotent.
func (b *Bridge) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	dropped := xsync.DoR1(xsync.WithNoLogging(ctx, true), &b.locker, func() []Item {
		if b.isClosed {
			return nil
		}
		b.isClosed = true
		dropped := b.queue
		b.queue = nil
		return dropped
	})
	b.forget(ctx, dropped)
	if !b.closed.Close(ctx) {
		logger.Debugf(ctx, "already closed")
	}
	if b.IsInCallback(ctx) {
		logger.Debugf(ctx, "closing from within a callback, not waiting for the consumer")
		return nil
	}
	select {
	case <-b.consumerDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (b *Bridge) IsClosed() bool {
	return b.closed.IsClosed()
}
