package codecsession

import (
	"context"
	"slices"

	"github.com/xaionaro-go/codecsession/internal"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/xsync"
)

type dequeueNotifier struct {
	locker      xsync.Mutex
	subscribers map[uint64]func(ctx context.Context)
	nextID      uint64
}

func (n *dequeueNotifier) subscribe(fn func(ctx context.Context)) uint64 {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &n.locker, func() uint64 {
		if n.subscribers == nil {
			n.subscribers = map[uint64]func(ctx context.Context){}
		}
		id := n.nextID
		n.nextID++
		n.subscribers[id] = fn
		return id
	})
}

func (n *dequeueNotifier) unsubscribe(id uint64) {
	n.locker.Do(xsync.WithNoLogging(context.Background(), true), func() {
		delete(n.subscribers, id)
	})
}

func (n *dequeueNotifier) notify(ctx context.Context) {
	subscribers := xsync.DoR1(xsync.WithNoLogging(ctx, true), &n.locker, func() []uint64 {
		ids := make([]uint64, 0, len(n.subscribers))
		for id := range n.subscribers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return ids
	})
	for _, id := range subscribers {
		fn := xsync.DoR1(xsync.WithNoLogging(ctx, true), &n.locker, func() func(context.Context) {
			return n.subscribers[id]
		})
		if fn != nil {
			fn(ctx)
		}
	}
}

// OnDequeue subscribes to the dequeue event: it fires once each time the
// queue size drops below the saturation threshold after having been at or
// above it. The function is called from the goroutine which changed the
// queue size (the callback goroutine, or the caller of Reset).
func (s *Session) OnDequeue(fn func(ctx context.Context)) (unsubscribe func()) {
	id := s.dequeue.subscribe(fn)
	return func() {
		s.dequeue.unsubscribe(id)
	}
}

// queueSizeInc accounts a submitted unit.
func (s *Session) queueSizeInc(ctx context.Context) {
	s.queueLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		s.queueSize.Inc()
		s.updateSaturationLocked()
	})
}

// queueSizeDec accounts a consumed unit of the given epoch; the units of
// previous epochs were already discarded by the reset. Returns true if
// the dequeue event is due.
func (s *Session) queueSizeDec(ctx context.Context, epoch uint64) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.queueLocker, func() bool {
		if epoch != s.epoch.Load() {
			return false
		}
		size := s.queueSize.Dec()
		internal.Assert(ctx, size >= 0, "queue size", size)
		return s.updateSaturationLocked()
	})
}

// queueSizeReset discards the accounted units and switches to the epoch.
// Returns true if the dequeue event is due.
func (s *Session) queueSizeReset(ctx context.Context, epoch uint64) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.queueLocker, func() bool {
		s.epoch.Store(epoch)
		s.queueSize.Store(0)
		return s.updateSaturationLocked()
	})
}

// updateSaturationLocked recomputes the saturated flag and reports the
// saturated->unsaturated edge.
func (s *Session) updateSaturationLocked() bool {
	saturated := s.queueSize.Load() >= int64(s.config.SaturationThreshold)
	return s.saturated.Swap(saturated) && !saturated
}

func (s *Session) fireDequeue(ctx context.Context, due bool) {
	if !due {
		return
	}
	logger.Tracef(ctx, "dequeue")
	s.dequeue.notify(ctx)
}
