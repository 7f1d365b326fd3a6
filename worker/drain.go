package worker

import (
	"context"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/codecsession/logger"
)

// updateDrainedLocked re-evaluates the drained condition (nothing queued,
// nothing in execution, not stopping) and signals the change channel when
// it flips. A stopping loop is never drained: the tasks it dropped were
// not executed.
func (l *Loop) updateDrainedLocked(ctx context.Context) {
	drained := len(l.queue) == 0 && !l.busy && !l.stopping
	if l.isDrained.Swap(drained) == drained {
		return
	}
	logger.Tracef(ctx, "drained: %t", drained)
	l.resetChangeChanDrainedNow()
}

func (l *Loop) resetChangeChanDrainedNow() {
	close(*xatomic.SwapPointer(&l.changeChanDrained, ptr(make(chan struct{}))))
}

// DrainedChangeChan returns a channel closed the next time the drained
// condition changes.
func (l *Loop) DrainedChangeChan() <-chan struct{} {
	return *xatomic.LoadPointer(&l.changeChanDrained)
}

func (l *Loop) IsDrained() bool {
	return l.isDrained.Load()
}
