package codecsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/google/uuid"
	"github.com/xaionaro-go/codecsession/bridge"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/controlqueue"
	"github.com/xaionaro-go/codecsession/helpers/closuresignaler"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/codecsession/types"
	"github.com/xaionaro-go/codecsession/worker"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Session is one encoder or decoder instance.
//
// All the methods are safe for concurrent use and never block on the
// codec engine, except Close, which waits for the unit being processed.
type Session struct {
	Engine   codec.Engine
	Handlers Handlers

	id         uuid.UUID
	ctx        context.Context
	config     config
	bufferPool *resource.BufferPool
	untrack    func()

	locker       xsync.Mutex
	params       codec.Params
	controlQueue *controlqueue.Queue
	worker       *worker.Loop
	bridge       *bridge.Bridge

	state atomic.Int32

	// guards the queueSize/saturated/epoch transitions; the values are
	// read without it
	queueLocker xsync.Mutex
	queueSize   atomic.Int64
	saturated atomic.Bool
	epoch     atomic.Uint64
	fatalErr  atomic.Error
	released  *closuresignaler.ClosureSignaler

	counters types.Counters
	dequeue  dequeueNotifier
}

// NewSession creates an unconfigured session. The context bounds the
// lifetime of the session goroutines and carries the logger.
func NewSession(
	ctx context.Context,
	engine codec.Engine,
	handlers Handlers,
	opts ...Option,
) *Session {
	opts = append([]Option{
		OptionSaturationThreshold(DefaultSaturationThreshold),
		OptionLockOSThread(true),
	}, opts...)
	cfg := Options(opts).config()

	id := uuid.New()
	ctx = belt.WithField(ctx, "session_id", id.String())
	bufferPool := cfg.BufferPool
	if bufferPool == nil {
		bufferPool = resource.NewBufferPool(resource.BufferPoolOptionRegistry{Registry: cfg.Registry})
	}
	s := &Session{
		Engine:     engine,
		Handlers:   handlers,
		id:         id,
		ctx:        ctx,
		config:     cfg,
		bufferPool: bufferPool,
		untrack:    cfg.Registry.Track(resource.KindSession),
		released:   closuresignaler.New(),
	}
	s.state.Store(int32(StateUnconfigured))
	logger.Debugf(ctx, "NewSession(%s)", engine)
	return s
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(%s, %s)", s.id, s.State())
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// QueueSize is the amount of submitted units not yet consumed by the
// engine (acknowledged through the callback goroutine).
func (s *Session) QueueSize() int64 {
	return s.queueSize.Load()
}

// Saturated reports whether QueueSize reached the saturation threshold.
func (s *Session) Saturated() bool {
	return s.saturated.Load()
}

// Err returns the fatal error which closed the session, if any.
func (s *Session) Err() error {
	return s.fatalErr.Load()
}

func (s *Session) Stats() types.Statistics {
	return s.counters.ToStats()
}

func (s *Session) BufferPool() *resource.BufferPool {
	return s.bufferPool
}

func (s *Session) requireSyncUnit(params codec.Params) bool {
	if s.config.RequireSyncUnit.IsSet() {
		return s.config.RequireSyncUnit.Get()
	}
	return params.Kind == types.KindDecoder
}

// Configure validates the params synchronously (returning codec.ErrConfig
// if they are invalid) and starts the worker, which opens the engine
// context. Failing to open the engine context is a fatal error reported
// through OnError.
func (s *Session) Configure(
	ctx context.Context,
	params codec.Params,
) (_err error) {
	logger.Debugf(ctx, "Configure")
	defer func() { logger.Debugf(ctx, "/Configure: %v", _err) }()
	return xsync.DoA2R1(ctx, &s.locker, s.configureLocked, ctx, params)
}

func (s *Session) configureLocked(
	ctx context.Context,
	params codec.Params,
) error {
	if state := s.State(); state != StateUnconfigured {
		return ErrInvalidState{Op: "configure", State: state}
	}
	if err := params.Validate(); err != nil {
		return err
	}
	params = params.Clone()

	sessCtx := belt.WithField(s.ctx, "codec_name", params.CodecName)
	sessCtx = belt.WithField(sessCtx, "kind", params.Kind)
	adapter := codec.NewAdapter(s.Engine, s.bufferPool, s.config.Registry)
	s.params = params
	s.bridge = bridge.New(sessCtx, (*bridgeHandler)(s))
	s.worker = worker.New(
		sessCtx,
		adapter,
		s.bridge,
		worker.OptionLockOSThread(s.config.LockOSThread),
		worker.OptionRequireSyncUnit(s.requireSyncUnit(params)),
	)
	s.controlQueue = controlqueue.New(sessCtx)
	s.state.Store(int32(StateConfigured))

	// the worker is new, so its queue is empty and nothing can overtake
	// the configure task; it goes to the worker directly for a reset not to
	// abort it
	return s.worker.Enqueue(ctx, worker.Task{
		Kind:   worker.TaskKindConfigure,
		Epoch:  s.epoch.Load(),
		Params: params,
	})
}

func (s *Session) logFailure(ctx context.Context, op string) func(error) {
	return func(err error) {
		if err != nil {
			logger.Debugf(ctx, "%s did not reach the worker: %v", op, err)
		}
	}
}

// Submit queues the unit. It never blocks. The session owns the unit
// payload afterwards.
func (s *Session) Submit(
	ctx context.Context,
	unit types.Unit,
	opts types.SubmitOptions,
) (_err error) {
	logger.Tracef(ctx, "Submit(%s)", unit)
	defer func() { logger.Tracef(ctx, "/Submit(%s): %v", unit, _err) }()
	var dequeueDue bool
	defer func() { s.fireDequeue(ctx, dequeueDue) }()
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() error {
		if state := s.State(); state != StateConfigured {
			return ErrInvalidState{Op: "submit", State: state}
		}
		epoch := s.epoch.Load()
		// accounted before the unit is handed over: its ack may arrive
		// before Push returns
		s.queueSizeInc(ctx)
		err := s.controlQueue.Push(ctx, controlqueue.Message{
			Name: "submit",
			Run: func(ctx context.Context) error {
				return s.worker.Enqueue(ctx, worker.Task{
					Kind:    worker.TaskKindSubmit,
					Epoch:   epoch,
					Unit:    unit,
					Options: opts,
				})
			},
			Done: s.logFailure(ctx, "submit"),
		})
		if err != nil {
			dequeueDue = s.queueSizeDec(ctx, epoch)
			return err
		}
		s.counters.Submitted.Increment(uint64(len(unit.Payload)))
		return nil
	})
}

// FlushAsync queues a flush: the engine is drained and the returned
// channel receives nil once every output of the units submitted before
// was delivered and its callback returned. If the session is reset or
// closed meanwhile, it receives ErrAborted.
func (s *Session) FlushAsync(
	ctx context.Context,
) <-chan error {
	logger.Debugf(ctx, "FlushAsync")
	result := make(chan error, 1)
	err := xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() error {
		if state := s.State(); state != StateConfigured {
			return ErrInvalidState{Op: "flush", State: state}
		}
		if s.bridge.IsInCallback(ctx) {
			return ErrReentrant
		}
		epoch := s.epoch.Load()
		return s.controlQueue.Push(ctx, controlqueue.Message{
			Name: "flush",
			Run: func(ctx context.Context) error {
				err := s.worker.Enqueue(ctx, worker.Task{
					Kind:  worker.TaskKindFlush,
					Epoch: epoch,
				})
				if err != nil {
					return err
				}
				return s.bridge.AwaitDrained(ctx, s.worker)
			},
			Done: func(err error) {
				err = s.flushResult(err)
				logger.Debugf(ctx, "flush resolved: %v", err)
				result <- err
			},
		})
	})
	if err != nil {
		result <- err
	}
	return result
}

func (s *Session) flushResult(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAborted),
		errors.Is(err, controlqueue.ErrClosed),
		errors.Is(err, worker.ErrStopped),
		errors.Is(err, context.Canceled):
		if fatalErr := s.fatalCause(); fatalErr != nil {
			return fmt.Errorf("%w: %w", ErrAborted, fatalErr)
		}
		return ErrAborted
	default:
		return err
	}
}

// fatalCause is the fatal error, also when the worker stopped on it but
// the error item has not reached the callback goroutine yet.
func (s *Session) fatalCause() error {
	if err := s.Err(); err != nil {
		return err
	}
	if s.worker == nil {
		return nil
	}
	return s.worker.Err()
}

// Flush is FlushAsync waiting for the result.
func (s *Session) Flush(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Flush")
	defer func() { logger.Debugf(ctx, "/Flush: %v", _err) }()
	select {
	case err := <-s.FlushAsync(ctx):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset discards all the queued work and the outputs not yet delivered,
// aborts a pending flush and resets the engine. A decoder session then
// requires a sync unit.
func (s *Session) Reset(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset: %v", _err) }()
	var dequeueDue bool
	// the dequeue subscribers may call back into the session, so they are
	// notified after the lock is released
	defer func() { s.fireDequeue(ctx, dequeueDue) }()
	return xsync.DoR1(ctx, &s.locker, func() error {
		if state := s.State(); state != StateConfigured {
			return ErrInvalidState{Op: "reset", State: state}
		}
		s.controlQueue.Abort(ctx, ErrAborted)
		s.worker.Clear(ctx)
		epoch := s.epoch.Load() + 1
		s.bridge.SetEpoch(ctx, epoch)
		dequeueDue = s.queueSizeReset(ctx, epoch)
		return s.worker.Enqueue(ctx, worker.Task{
			Kind:  worker.TaskKindReset,
			Epoch: epoch,
		})
	})
}

// Close aborts all the queued work (a pending flush resolves with
// ErrAborted), stops the worker, which releases the engine context, and
// stops the callbacks. Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	if !s.setClosed(ctx, nil) {
		return s.waitReleased(ctx)
	}
	return s.release(ctx)
}

// setClosed switches the session to the closed state, returns false if it
// was already closed.
func (s *Session) setClosed(
	ctx context.Context,
	fatalErr error,
) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() bool {
		if s.State() == StateClosed {
			return false
		}
		if fatalErr != nil {
			s.fatalErr.Store(fatalErr)
		}
		s.state.Store(int32(StateClosed))
		return true
	})
}

func (s *Session) release(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "release")
	defer func() { logger.Debugf(ctx, "/release: %v", _err) }()
	defer s.released.Close(ctx)

	var errs []error
	if s.controlQueue != nil {
		if err := s.controlQueue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the control queue: %w", err))
		}
	}
	if s.worker != nil {
		if err := s.worker.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to stop the worker: %w", err))
		}
	}
	if s.bridge != nil {
		if err := s.bridge.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to close the bridge: %w", err))
		}
	}
	s.queueLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		s.queueSize.Store(0)
		s.saturated.Store(false)
	})
	s.untrack()
	return errors.Join(errs...)
}

func (s *Session) waitReleased(ctx context.Context) error {
	if s.bridge != nil && s.bridge.IsInCallback(ctx) {
		return nil
	}
	select {
	case <-s.released.CloseChan():
	case <-ctx.Done():
		return ctx.Err()
	}
	if s.bridge == nil {
		return nil
	}
	// the first Close might have been called from a callback, which does
	// not wait for the callback goroutine to exit
	return s.bridge.Close(ctx)
}
