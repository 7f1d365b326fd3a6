// Package worker runs the codec on one dedicated goroutine: it pulls the
// tasks from its own queue, feeds them to the codec adapter and forwards
// every result to a sink (the callback bridge).
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/xaionaro-go/codecsession/bridge"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/helpers/closuresignaler"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Sink receives the results of the worker. Deliver must not block.
type Sink interface {
	Deliver(ctx context.Context, item bridge.Item)
}

type Loop struct {
	Adapter *codec.Adapter
	Sink    Sink
	config  config

	locker   xsync.Mutex
	queue    []Task
	busy     bool
	stopping bool
	wakeCh   chan struct{}

	isDrained         atomic.Bool
	isFlushing        atomic.Bool
	changeChanDrained *chan struct{}
	stopped           *closuresignaler.ClosureSignaler
	err               error

	// accessed only from the worker goroutine
	awaitingSync bool
	epoch        uint64
}

var _ bridge.DrainStater = (*Loop)(nil)

// New starts the worker goroutine; the adapter must not be used by anyone
// else afterwards.
func New(
	ctx context.Context,
	adapter *codec.Adapter,
	sink Sink,
	opts ...Option,
) *Loop {
	opts = append([]Option{
		OptionLockOSThread(true),
	}, opts...)
	l := &Loop{
		Adapter:           adapter,
		Sink:              sink,
		config:            Options(opts).config(),
		wakeCh:            make(chan struct{}, 1),
		changeChanDrained: ptr(make(chan struct{})),
		stopped:           closuresignaler.New(),
	}
	l.isDrained.Store(true)
	l.start(ctx)
	return l
}

func (l *Loop) String() string {
	return fmt.Sprintf("Worker(%s)", l.Adapter)
}

func (l *Loop) start(ctx context.Context) {
	observability.Go(ctx, func(ctx context.Context) {
		if l.config.LockOSThread {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		var loopErr error
		defer func() { l.finalize(ctx, loopErr) }()
		logger.Debugf(ctx, "worker loop started")
		loopErr = l.run(ctx)
		logger.Debugf(ctx, "worker loop finished: %v", loopErr)
	})
}

func (l *Loop) run(ctx context.Context) error {
	for {
		task, ok := l.popTask(ctx)
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wakeCh:
			}
			continue
		}
		if task.Kind == TaskKindClose {
			l.finishTask(ctx)
			return nil
		}
		err := l.executeTask(ctx, task)
		l.finishTask(ctx)
		if err != nil {
			return err
		}
	}
}

// popTask marks the loop busy within the same critical section, so the
// drained condition never holds while a task is being executed.
func (l *Loop) popTask(ctx context.Context) (Task, bool) {
	return xsync.DoR2(xsync.WithNoLogging(ctx, true), &l.locker, func() (Task, bool) {
		if len(l.queue) == 0 {
			return Task{}, false
		}
		task := l.queue[0]
		l.queue[0] = Task{}
		l.queue = l.queue[1:]
		l.busy = true
		l.updateDrainedLocked(ctx)
		return task, true
	})
}

func (l *Loop) finishTask(ctx context.Context) {
	l.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		l.busy = false
		l.updateDrainedLocked(ctx)
	})
}

func (l *Loop) executeTask(
	ctx context.Context,
	task Task,
) (_err error) {
	logger.Tracef(ctx, "executeTask(%s)", task)
	defer func() { logger.Tracef(ctx, "/executeTask(%s): %v", task, _err) }()
	defer func() {
		if r := recover(); r != nil {
			errmon.ObserveRecoverCtx(ctx, r)
			_err = ErrPanic{Value: r}
			l.deliverError(ctx, task.Epoch, _err, true)
		}
	}()

	switch task.Kind {
	case TaskKindSubmit, TaskKindFlush:
		if task.Epoch != l.epoch {
			logger.Debugf(ctx, "skipping %s: the current epoch is %d", task, l.epoch)
			return nil
		}
	}

	switch task.Kind {
	case TaskKindConfigure:
		l.epoch = task.Epoch
		if err := l.Adapter.Configure(ctx, task.Params); err != nil {
			l.deliverError(ctx, task.Epoch, err, true)
			return err
		}
		l.awaitingSync = l.config.RequireSyncUnit
	case TaskKindSubmit:
		return l.submit(ctx, task)
	case TaskKindFlush:
		return l.flush(ctx, task)
	case TaskKindReset:
		l.epoch = task.Epoch
		l.awaitingSync = l.config.RequireSyncUnit
		if err := l.Adapter.Reset(ctx); err != nil {
			err = codec.Fatal(fmt.Errorf("unable to reset the codec: %w", err))
			l.deliverError(ctx, task.Epoch, err, true)
			return err
		}
	default:
		logger.Errorf(ctx, "unexpected task kind: %s", task.Kind)
	}
	return nil
}

func (l *Loop) submit(
	ctx context.Context,
	task Task,
) error {
	unit := task.Unit
	if l.awaitingSync {
		if !unit.IsSync() {
			logger.Debugf(ctx, "waiting for a sync unit, dropping %s", unit)
			l.deliverError(ctx, task.Epoch, ErrSequencing{Timestamp: unit.Timestamp}, false)
			l.deliverAck(ctx, task, true)
			return nil
		}
		l.awaitingSync = false
	}

	outputs, err := l.Adapter.Push(ctx, unit, task.Options)
	l.deliverOutputs(ctx, task.Epoch, outputs)
	if err != nil {
		fatal := isFatal(err)
		l.deliverError(ctx, task.Epoch, err, fatal)
		if fatal {
			return err
		}
	}
	l.deliverAck(ctx, task, err != nil)
	return nil
}

func (l *Loop) flush(
	ctx context.Context,
	task Task,
) error {
	l.isFlushing.Store(true)
	defer l.isFlushing.Store(false)

	outputs, err := l.Adapter.Drain(ctx)
	// the engine context is reopened after a drain, so it starts over
	l.awaitingSync = l.config.RequireSyncUnit
	l.deliverOutputs(ctx, task.Epoch, outputs)
	if err != nil {
		fatal := isFatal(err)
		l.deliverError(ctx, task.Epoch, err, fatal)
		if fatal {
			return err
		}
	}
	return nil
}

func isFatal(err error) bool {
	return codec.IsFatal(err) || errors.Is(err, codec.ErrNotConfigured)
}

func (l *Loop) deliverOutputs(
	ctx context.Context,
	epoch uint64,
	outputs []types.Output,
) {
	for idx := range outputs {
		l.Sink.Deliver(ctx, bridge.Item{
			Kind:   bridge.ItemKindOutput,
			Epoch:  epoch,
			Output: &outputs[idx],
		})
	}
}

func (l *Loop) deliverError(
	ctx context.Context,
	epoch uint64,
	err error,
	fatal bool,
) {
	l.Sink.Deliver(ctx, bridge.Item{
		Kind:  bridge.ItemKindError,
		Epoch: epoch,
		Err:   err,
		Fatal: fatal,
	})
}

func (l *Loop) deliverAck(
	ctx context.Context,
	task Task,
	dropped bool,
) {
	l.Sink.Deliver(ctx, bridge.Item{
		Kind:      bridge.ItemKindAck,
		Epoch:     task.Epoch,
		Timestamp: task.Unit.Timestamp,
		Dropped:   dropped,
	})
}

func (l *Loop) finalize(
	ctx context.Context,
	loopErr error,
) {
	logger.Debugf(ctx, "finalize: %v", loopErr)
	defer func() { logger.Debugf(ctx, "/finalize: %v", loopErr) }()
	dropped := xsync.DoR1(xsync.WithNoLogging(ctx, true), &l.locker, func() int {
		l.stopping = true
		dropped := len(l.queue)
		l.queue = nil
		l.busy = false
		l.updateDrainedLocked(ctx)
		return dropped
	})
	if dropped > 0 {
		logger.Debugf(ctx, "dropped %d queued tasks", dropped)
	}
	if err := l.Adapter.Close(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the codec: %v", err)
		errmon.ObserveErrorCtx(ctx, err)
	}
	l.err = loopErr
	l.stopped.Close(ctx)
}

func (l *Loop) wake() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// Enqueue appends the task to the queue. After Stop (or a fatal error)
// it returns ErrStopped.
func (l *Loop) Enqueue(
	ctx context.Context,
	task Task,
) (_err error) {
	logger.Tracef(ctx, "Enqueue(%s)", task)
	defer func() { logger.Tracef(ctx, "/Enqueue(%s): %v", task, _err) }()
	err := xsync.DoR1(xsync.WithNoLogging(ctx, true), &l.locker, func() error {
		if l.stopping {
			return ErrStopped
		}
		l.queue = append(l.queue, task)
		l.updateDrainedLocked(ctx)
		return nil
	})
	if err != nil {
		return err
	}
	l.wake()
	return nil
}

// Clear discards the queued submit and flush tasks; the task being
// executed and the queued configure/reset tasks are not affected. Returns
// the amount of discarded tasks.
func (l *Loop) Clear(ctx context.Context) int {
	cleared := xsync.DoR1(xsync.WithNoLogging(ctx, true), &l.locker, func() int {
		if l.stopping {
			return 0
		}
		kept := l.queue[:0]
		for _, task := range l.queue {
			switch task.Kind {
			case TaskKindSubmit, TaskKindFlush:
				continue
			}
			kept = append(kept, task)
		}
		cleared := len(l.queue) - len(kept)
		clear(l.queue[len(kept):])
		l.queue = kept
		l.updateDrainedLocked(ctx)
		return cleared
	})
	logger.Debugf(ctx, "Clear: %d tasks discarded", cleared)
	return cleared
}

// Stop discards the queued tasks, lets the current task finish and waits
// for the worker goroutine to close the codec and exit.
func (l *Loop) Stop(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Stop")
	defer func() { logger.Debugf(ctx, "/Stop: %v", _err) }()
	requested := xsync.DoR1(xsync.WithNoLogging(ctx, true), &l.locker, func() bool {
		if l.stopping {
			return false
		}
		l.stopping = true
		l.queue = []Task{{Kind: TaskKindClose}}
		l.updateDrainedLocked(ctx)
		return true
	})
	if requested {
		l.wake()
	}
	select {
	case <-l.stopped.CloseChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error the loop stopped with (nil if stopped normally
// or still running).
func (l *Loop) Err() error {
	if !l.stopped.IsClosed() {
		return nil
	}
	return l.err
}

func (l *Loop) IsStopped() bool {
	return l.stopped.IsClosed()
}

func (l *Loop) StopChan() <-chan struct{} {
	return l.stopped.CloseChan()
}

func (l *Loop) IsFlushing() bool {
	return l.isFlushing.Load()
}

func (l *Loop) QueueLen(ctx context.Context) int {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &l.locker, func() int {
		return len(l.queue)
	})
}
