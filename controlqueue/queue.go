// Package controlqueue serializes the operations of a session: messages
// are run one at a time, in FIFO order, on a dedicated goroutine.
package controlqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/xaionaro-go/codecsession/helpers/closuresignaler"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
)

var (
	ErrClosed = errors.New("the control queue is closed")
)

// Message is one operation. Run is executed on the queue goroutine with a
// context which is cancelled by Abort. Done (if set) receives the result
// exactly once: the result of Run, or the abort cause if the message was
// aborted.
type Message struct {
	Name string
	Run  func(ctx context.Context) error
	Done func(err error)
}

func (m *Message) complete(err error) {
	if m.Done != nil {
		m.Done(err)
	}
}

type Queue struct {
	locker       xsync.Mutex
	queue        []*Message
	isClosed     bool
	wakeCh       chan struct{}
	cancelFn     context.CancelCauseFunc
	closed       *closuresignaler.ClosureSignaler
	consumerDone chan struct{}
}

func New(ctx context.Context) *Queue {
	q := &Queue{
		wakeCh:       make(chan struct{}, 1),
		closed:       closuresignaler.New(),
		consumerDone: make(chan struct{}),
	}
	q.start(ctx)
	return q
}

func (q *Queue) String() string {
	return fmt.Sprintf("ControlQueue(len:%d)", q.Len())
}

// Push appends the message. It never blocks.
func (q *Queue) Push(
	ctx context.Context,
	msg Message,
) error {
	logger.Tracef(ctx, "Push(%s)", msg.Name)
	err := xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() error {
		if q.isClosed {
			return ErrClosed
		}
		q.queue = append(q.queue, &msg)
		return nil
	})
	if err != nil {
		return err
	}
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Len is the amount of messages waiting to be run.
func (q *Queue) Len() int {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &q.locker, func() int {
		return len(q.queue)
	})
}

func (q *Queue) pop(ctx context.Context) (*Message, context.Context, context.CancelCauseFunc) {
	lockCtx := xsync.WithNoLogging(ctx, true)
	q.locker.ManualLock(lockCtx)
	defer q.locker.ManualUnlock(lockCtx)
	if len(q.queue) == 0 {
		return nil, nil, nil
	}
	msg := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	msgCtx, cancelFn := context.WithCancelCause(ctx)
	q.cancelFn = cancelFn
	return msg, msgCtx, cancelFn
}

func (q *Queue) start(ctx context.Context) {
	observability.Go(ctx, func(ctx context.Context) {
		defer close(q.consumerDone)
		for {
			msg, msgCtx, cancelFn := q.pop(ctx)
			if msg == nil {
				select {
				case <-q.wakeCh:
					continue
				case <-q.closed.CloseChan():
					return
				case <-ctx.Done():
					q.Abort(ctx, ctx.Err())
					return
				}
			}
			q.run(msgCtx, msg)
			q.locker.Do(xsync.WithNoLogging(ctx, true), func() {
				q.cancelFn = nil
			})
			cancelFn(nil)
		}
	})
}

func (q *Queue) run(
	ctx context.Context,
	msg *Message,
) {
	ctx = belt.WithField(ctx, "control_message", msg.Name)
	logger.Tracef(ctx, "run")
	var err error
	defer func() {
		if r := recover(); r != nil {
			errmon.ObserveRecoverCtx(ctx, r)
			err = fmt.Errorf("the control message '%s' panicked: %v", msg.Name, r)
		}
		if cause := context.Cause(ctx); cause != nil {
			// aborted: the result of Run does not matter anymore
			err = cause
		}
		logger.Tracef(ctx, "/run: %v", err)
		msg.complete(err)
	}()
	if msg.Run != nil {
		err = msg.Run(ctx)
	}
}

// Abort cancels the context of the message being run and completes all
// the queued messages with the cause, without running them.
func (q *Queue) Abort(
	ctx context.Context,
	cause error,
) {
	logger.Debugf(ctx, "Abort(%v)", cause)
	aborted := xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() []*Message {
		if q.cancelFn != nil {
			q.cancelFn(cause)
		}
		aborted := q.queue
		q.queue = nil
		return aborted
	})
	for _, msg := range aborted {
		msg.complete(cause)
	}
}

// Close aborts everything with ErrClosed, stops the goroutine and waits
// for it to exit. It must not be called from within Run or Done.
func (q *Queue) Close(
	ctx context.Context,
) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	q.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		q.isClosed = true
	})
	q.Abort(ctx, ErrClosed)
	q.closed.Close(ctx)
	select {
	case <-q.consumerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
