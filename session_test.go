package codecsession_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/codecsession"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/codec/dummy"
	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/codecsession/types"
)

const testTimeout = 5 * time.Second

type collector struct {
	locker  sync.Mutex
	outputs []int64
	payload [][]byte
	errs    []error
}

func (c *collector) handlers() codecsession.Handlers {
	return codecsession.Handlers{
		OnOutput: func(ctx context.Context, output *types.Output) error {
			c.locker.Lock()
			defer c.locker.Unlock()
			c.outputs = append(c.outputs, output.Timestamp)
			c.payload = append(c.payload, append([]byte(nil), output.Bytes()...))
			return nil
		},
		OnError: func(ctx context.Context, err error) {
			c.locker.Lock()
			defer c.locker.Unlock()
			c.errs = append(c.errs, err)
		},
	}
}

func (c *collector) Outputs() []int64 {
	c.locker.Lock()
	defer c.locker.Unlock()
	return append([]int64(nil), c.outputs...)
}

func (c *collector) Errors() []error {
	c.locker.Lock()
	defer c.locker.Unlock()
	return append([]error(nil), c.errs...)
}

func encoderParams() codec.Params {
	return codec.Params{
		Kind:      types.KindEncoder,
		CodecName: "dummy",
		MediaType: types.MediaTypeVideo,
		Width:     64,
		Height:    48,
		FrameRate: types.Rational{Num: 30, Den: 1},
	}
}

func decoderParams() codec.Params {
	return codec.Params{
		Kind:      types.KindDecoder,
		CodecName: "dummy",
		MediaType: types.MediaTypeVideo,
	}
}

type testSession struct {
	*codecsession.Session
	Engine    *dummy.Engine
	Registry  *resource.Registry
	Collector *collector
}

func newTestSession(
	t *testing.T,
	ctx context.Context,
	engine *dummy.Engine,
	handlers func(c *collector) codecsession.Handlers,
	opts ...codecsession.Option,
) *testSession {
	registry := resource.NewRegistry()
	c := &collector{}
	h := c.handlers()
	if handlers != nil {
		h = handlers(c)
	}
	opts = append([]codecsession.Option{
		codecsession.OptionRegistry{Registry: registry},
	}, opts...)
	s := codecsession.NewSession(ctx, engine, h, opts...)
	t.Cleanup(func() {
		require.NoError(t, s.Close(context.Background()))
		require.Empty(t, registry.Leaked())
		require.Zero(t, engine.ActiveContexts())
		require.Zero(t, engine.DoubleCloseCount.Load())
		require.Zero(t, s.BufferPool().Outstanding())
	})
	return &testSession{
		Session:   s,
		Engine:    engine,
		Registry:  registry,
		Collector: c,
	}
}

func unit(ts int64, payload string) types.Unit {
	return types.Unit{Timestamp: ts, Duration: 1, Payload: []byte(payload)}
}

func flush(t *testing.T, ctx context.Context, s *testSession) {
	ctx, cancelFn := context.WithTimeout(ctx, testTimeout)
	defer cancelFn()
	require.NoError(t, s.Flush(ctx))
}

func TestSessionSubmitFlush(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{Delay: 2}, nil)
	require.Equal(t, codecsession.StateUnconfigured, s.State())
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.Equal(t, codecsession.StateConfigured, s.State())

	for ts := int64(0); ts < 5; ts++ {
		require.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
	}
	flush(t, ctx, s)

	require.Equal(t, []int64{0, 1, 2, 3, 4}, s.Collector.Outputs())
	require.Empty(t, s.Collector.Errors())
	require.Zero(t, s.QueueSize())
	require.Equal(t, []byte(dummy.OutputPrefix+"u"), s.Collector.payload[0])

	stats := s.Stats()
	require.EqualValues(t, 5, stats.Submitted.Count)
	require.EqualValues(t, 5, stats.Outputs.Count)
	require.Zero(t, stats.Errors.Count)

	// the session keeps working after a flush
	require.NoError(t, s.Submit(ctx, unit(5, "u"), types.SubmitOptions{}))
	flush(t, ctx, s)
	require.Equal(t, []int64{0, 1, 2, 3, 4, 5}, s.Collector.Outputs())
}

func TestSessionOrdering(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{Delay: 3, OutputsPerUnit: 2}, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))

	const count = 200
	for ts := int64(0); ts < count; ts++ {
		require.NoError(t, s.Submit(ctx, unit(ts*10, "u"), types.SubmitOptions{}))
		if ts%50 == 49 {
			flush(t, ctx, s)
		}
	}
	outputs := s.Collector.Outputs()
	require.Len(t, outputs, count*2)
	for idx := 1; idx < len(outputs); idx++ {
		require.Greater(t, outputs[idx], outputs[idx-1])
	}
}

func TestSessionNonFatalError(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))

	require.NoError(t, s.Submit(ctx, types.Unit{Timestamp: 0, Payload: dummy.CorruptMarker}, types.SubmitOptions{}))
	require.NoError(t, s.Submit(ctx, unit(1, "ok"), types.SubmitOptions{}))
	flush(t, ctx, s)

	errs := s.Collector.Errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], dummy.ErrCorruptPayload)
	require.Equal(t, []int64{1}, s.Collector.Outputs())
	require.Equal(t, codecsession.StateConfigured, s.State())
	require.NoError(t, s.Err())
	stats := s.Stats()
	require.EqualValues(t, 1, stats.Errors.Count)
	require.EqualValues(t, 1, stats.Dropped.Count)
}

func TestSessionFatalError(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.NoError(t, s.Submit(ctx, types.Unit{Timestamp: 0, Payload: dummy.FatalMarker}, types.SubmitOptions{}))

	require.Eventually(t, func() bool {
		return s.State() == codecsession.StateClosed
	}, testTimeout, time.Millisecond)
	require.ErrorIs(t, s.Err(), dummy.ErrContextCorrupted)
	require.Eventually(t, func() bool {
		return len(s.Collector.Errors()) == 1
	}, testTimeout, time.Millisecond)
	require.True(t, codec.IsFatal(s.Collector.Errors()[0]))

	var errState codecsession.ErrInvalidState
	require.ErrorAs(t, s.Submit(ctx, unit(1, "u"), types.SubmitOptions{}), &errState)
	require.Equal(t, codecsession.StateClosed, errState.State)
	require.Eventually(t, func() bool {
		return s.Engine.ActiveContexts() == 0
	}, testTimeout, time.Millisecond)
}

func TestSessionConfigureFailure(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	t.Run("invalid-params", func(t *testing.T) {
		s := newTestSession(t, ctx, &dummy.Engine{}, nil)
		params := encoderParams()
		params.Width = 0
		var errConfig codec.ErrConfig
		require.ErrorAs(t, s.Configure(ctx, params), &errConfig)
		require.Equal(t, codecsession.StateUnconfigured, s.State())

		// can be configured with valid params afterwards
		require.NoError(t, s.Configure(ctx, encoderParams()))
	})

	t.Run("unsupported-codec", func(t *testing.T) {
		s := newTestSession(t, ctx, &dummy.Engine{SupportedCodecs: []string{"other"}}, nil)
		require.NoError(t, s.Configure(ctx, encoderParams()))
		require.Eventually(t, func() bool {
			return s.State() == codecsession.StateClosed
		}, testTimeout, time.Millisecond)
		var errConfig codec.ErrConfig
		require.ErrorAs(t, s.Err(), &errConfig)
		require.ErrorIs(t, s.Err(), dummy.ErrUnsupportedCodec)
	})
}

func TestSessionReset(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	require.NoError(t, s.Configure(ctx, decoderParams()))

	syncUnit := unit(0, "key")
	syncUnit.Flags = types.UnitFlagSync
	require.NoError(t, s.Submit(ctx, syncUnit, types.SubmitOptions{}))
	require.NoError(t, s.Submit(ctx, unit(1, "delta"), types.SubmitOptions{}))
	flush(t, ctx, s)
	require.Equal(t, []int64{0, 1}, s.Collector.Outputs())

	require.NoError(t, s.Reset(ctx))
	require.Zero(t, s.QueueSize())
	require.NoError(t, s.Submit(ctx, unit(2, "delta"), types.SubmitOptions{}))
	flush(t, ctx, s)

	errs := s.Collector.Errors()
	require.Len(t, errs, 1)
	var errSeq codecsession.ErrSequencing
	require.ErrorAs(t, errs[0], &errSeq)
	require.Equal(t, int64(2), errSeq.Timestamp)
	require.Equal(t, codecsession.StateConfigured, s.State())
	require.Equal(t, []int64{0, 1}, s.Collector.Outputs())

	syncUnit.Timestamp = 3
	require.NoError(t, s.Submit(ctx, syncUnit, types.SubmitOptions{}))
	flush(t, ctx, s)
	require.Equal(t, []int64{0, 1, 3}, s.Collector.Outputs())
}

func TestSessionResetDiscardsQueued(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &dummy.Engine{
		PushFn: func(ctx context.Context, unit types.Unit) error {
			if unit.Timestamp == 0 {
				close(started)
				<-unblock
			}
			return nil
		},
	}
	s := newTestSession(t, ctx, engine, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))

	require.NoError(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}))
	<-started
	for ts := int64(1); ts < 10; ts++ {
		require.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
	}
	flushCh := s.FlushAsync(ctx)
	require.NoError(t, s.Reset(ctx))
	close(unblock)

	select {
	case err := <-flushCh:
		require.ErrorIs(t, err, codecsession.ErrAborted)
	case <-time.After(testTimeout):
		t.Fatal("the flush was not resolved")
	}

	require.NoError(t, s.Submit(ctx, unit(100, "u"), types.SubmitOptions{}))
	flush(t, ctx, s)
	require.Equal(t, []int64{100}, s.Collector.Outputs())
	require.Zero(t, s.QueueSize())
}

func TestSessionCloseAbortsFlush(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &dummy.Engine{
		PushFn: func(ctx context.Context, unit types.Unit) error {
			close(started)
			<-unblock
			return nil
		},
	}
	s := newTestSession(t, ctx, engine, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.NoError(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}))
	<-started
	flushCh := s.FlushAsync(ctx)

	closeCh := make(chan error, 1)
	go func() { closeCh <- s.Close(ctx) }()
	select {
	case err := <-flushCh:
		require.ErrorIs(t, err, codecsession.ErrAborted)
	case <-time.After(testTimeout):
		t.Fatal("the flush was not resolved")
	}
	require.Equal(t, codecsession.StateClosed, s.State())
	close(unblock)
	require.NoError(t, <-closeCh)
	require.NoError(t, s.Close(ctx))
}

func TestSessionStateTable(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	var errState codecsession.ErrInvalidState

	require.ErrorAs(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}), &errState)
	require.Equal(t, codecsession.StateUnconfigured, errState.State)
	require.ErrorAs(t, s.Flush(ctx), &errState)
	require.ErrorAs(t, s.Reset(ctx), &errState)
	require.Zero(t, s.QueueSize())
	require.Zero(t, s.Engine.OpenCount.Load())

	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.Eventually(t, func() bool {
		return s.Engine.OpenCount.Load() == 1
	}, testTimeout, time.Millisecond)
	require.ErrorAs(t, s.Configure(ctx, encoderParams()), &errState)
	require.Equal(t, codecsession.StateConfigured, errState.State)
	flush(t, ctx, s)
	require.EqualValues(t, 1, s.Engine.CloseCount.Load(), "the flush reopens the engine context")
	require.EqualValues(t, 2, s.Engine.OpenCount.Load())

	require.NoError(t, s.Close(ctx))
	require.Equal(t, codecsession.StateClosed, s.State())
	require.NoError(t, s.Close(ctx))
	for _, err := range []error{
		s.Configure(ctx, encoderParams()),
		s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}),
		s.Flush(ctx),
		s.Reset(ctx),
	} {
		require.ErrorAs(t, err, &errState)
		require.Equal(t, codecsession.StateClosed, errState.State)
	}
	require.Empty(t, s.Collector.Outputs())
	require.Zero(t, s.QueueSize())
	require.False(t, s.Saturated())
	require.EqualValues(t, 2, s.Engine.OpenCount.Load())
	require.Zero(t, s.Engine.PushCount.Load())
	require.EqualValues(t, 1, s.Engine.DrainCount.Load())
	require.Zero(t, s.Engine.ActiveContexts())
}

func TestSessionFlushRequiresSyncUnitAgain(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	require.NoError(t, s.Configure(ctx, decoderParams()))

	syncUnit := unit(0, "key")
	syncUnit.Flags = types.UnitFlagSync
	require.NoError(t, s.Submit(ctx, syncUnit, types.SubmitOptions{}))
	flush(t, ctx, s)
	require.NoError(t, s.Submit(ctx, unit(1, "delta"), types.SubmitOptions{}))
	flush(t, ctx, s)

	require.Equal(t, []int64{0}, s.Collector.Outputs())
	errs := s.Collector.Errors()
	require.Len(t, errs, 1)
	var errSeq codecsession.ErrSequencing
	require.ErrorAs(t, errs[0], &errSeq)
	require.Equal(t, int64(1), errSeq.Timestamp)
	require.EqualValues(t, 1, s.Engine.PushCount.Load())
	require.Equal(t, codecsession.StateConfigured, s.State())
}

func TestSessionFatalErrorDuringFlush(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &dummy.Engine{
		PushFn: func(ctx context.Context, unit types.Unit) error {
			close(started)
			<-unblock
			return codec.Fatal(dummy.ErrContextCorrupted)
		},
	}
	s := newTestSession(t, ctx, engine, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.NoError(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}))
	<-started
	flushCh := s.FlushAsync(ctx)
	close(unblock)

	select {
	case err := <-flushCh:
		require.ErrorIs(t, err, codecsession.ErrAborted)
		require.ErrorIs(t, err, dummy.ErrContextCorrupted)
	case <-time.After(testTimeout):
		t.Fatal("the flush was not resolved")
	}
	require.Eventually(t, func() bool {
		return s.State() == codecsession.StateClosed && engine.ActiveContexts() == 0
	}, testTimeout, time.Millisecond)
	require.ErrorIs(t, s.Err(), dummy.ErrContextCorrupted)
}

func TestSessionQueueSizeUnderContention(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil, codecsession.OptionSaturationThreshold(1))
	require.NoError(t, s.Configure(ctx, encoderParams()))

	var wg sync.WaitGroup
	for producer := 0; producer < 4; producer++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := 0; idx < 500; idx++ {
				assert.NoError(t, s.Submit(ctx, unit(int64(producer*1000+idx), "u"), types.SubmitOptions{}))
			}
		}()
	}
	wg.Wait()
	flush(t, ctx, s)

	require.Len(t, s.Collector.Outputs(), 2000)
	require.Zero(t, s.QueueSize())
	require.False(t, s.Saturated())
}

func TestSessionCloseUnconfigured(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{}, nil)
	require.EqualValues(t, 1, s.Registry.Active(resource.KindSession))
	require.NoError(t, s.Close(ctx))
	require.Zero(t, s.Registry.Active(resource.KindSession))
}

func TestSessionCallbackFailures(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	errCallback := errors.New("callback failed")
	var kept []*resource.Buffer
	s := newTestSession(t, ctx, &dummy.Engine{OutputsPerUnit: 2}, func(c *collector) codecsession.Handlers {
		h := c.handlers()
		onOutput := h.OnOutput
		h.OnOutput = func(ctx context.Context, output *types.Output) error {
			if err := onOutput(ctx, output); err != nil {
				return err
			}
			switch output.Timestamp % 4 {
			case 1:
				return errCallback
			case 2:
				panic("callback bug")
			case 3:
				kept = append(kept, output.TakePayload())
			}
			return nil
		}
		return h
	})
	require.NoError(t, s.Configure(ctx, encoderParams()))
	for ts := int64(0); ts < 40; ts += 2 {
		require.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
	}
	flush(t, ctx, s)

	require.Len(t, s.Collector.Outputs(), 40)
	var callbackErrs, panics int
	for _, err := range s.Collector.Errors() {
		var errPanic codecsession.ErrCallbackPanic
		switch {
		case errors.Is(err, errCallback):
			callbackErrs++
		case errors.As(err, &errPanic):
			panics++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 10, callbackErrs)
	require.Equal(t, 10, panics)
	require.Equal(t, codecsession.StateConfigured, s.State())

	require.Len(t, kept, 10)
	require.EqualValues(t, 10, s.BufferPool().Outstanding())
	for _, buf := range kept {
		require.Equal(t, []byte(dummy.OutputPrefix+"u"), buf.Bytes())
		require.NoError(t, buf.Release())
	}
	require.Zero(t, s.BufferPool().Outstanding())
}

func TestSessionFlushFromCallback(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	var (
		s        *testSession
		flushErr = make(chan error, 1)
	)
	s = newTestSession(t, ctx, &dummy.Engine{}, func(c *collector) codecsession.Handlers {
		h := c.handlers()
		h.OnOutput = func(ctx context.Context, output *types.Output) error {
			flushErr <- s.Flush(ctx)
			return nil
		}
		return h
	})
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.NoError(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}))
	select {
	case err := <-flushErr:
		require.ErrorIs(t, err, codecsession.ErrReentrant)
	case <-time.After(testTimeout):
		t.Fatal("the flush from a callback hung")
	}
}

func TestSessionCloseFromCallback(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	var s *testSession
	closeErr := make(chan error, 1)
	s = newTestSession(t, ctx, &dummy.Engine{}, func(c *collector) codecsession.Handlers {
		h := c.handlers()
		h.OnOutput = func(ctx context.Context, output *types.Output) error {
			closeErr <- s.Close(ctx)
			return nil
		}
		return h
	})
	require.NoError(t, s.Configure(ctx, encoderParams()))
	require.NoError(t, s.Submit(ctx, unit(0, "u"), types.SubmitOptions{}))
	select {
	case err := <-closeErr:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("the close from a callback hung")
	}
	require.Equal(t, codecsession.StateClosed, s.State())
}

func TestSessionDequeue(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &dummy.Engine{
		PushFn: func(ctx context.Context, unit types.Unit) error {
			if unit.Timestamp == 0 {
				close(started)
				<-unblock
			}
			return nil
		},
	}
	s := newTestSession(t, ctx, engine, nil, codecsession.OptionSaturationThreshold(4))
	require.NoError(t, s.Configure(ctx, encoderParams()))

	var (
		locker sync.Mutex
		events int
	)
	unsubscribe := s.OnDequeue(func(ctx context.Context) {
		locker.Lock()
		defer locker.Unlock()
		events++
	})
	defer unsubscribe()

	for ts := int64(0); ts < 6; ts++ {
		require.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
	}
	<-started
	require.True(t, s.Saturated())
	require.EqualValues(t, 6, s.QueueSize())
	close(unblock)
	flush(t, ctx, s)

	require.False(t, s.Saturated())
	require.Zero(t, s.QueueSize())
	locker.Lock()
	require.Equal(t, 1, events)
	locker.Unlock()

	unsubscribe()
	for ts := int64(6); ts < 12; ts++ {
		require.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
	}
	flush(t, ctx, s)
	locker.Lock()
	assert.Equal(t, 1, events)
	locker.Unlock()
}

func TestSessionConcurrentUse(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	s := newTestSession(t, ctx, &dummy.Engine{Delay: 1}, nil)
	require.NoError(t, s.Configure(ctx, encoderParams()))

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := 0; idx < 50; idx++ {
				ts := int64(worker*1000 + idx)
				assert.NoError(t, s.Submit(ctx, unit(ts, "u"), types.SubmitOptions{}))
				if idx%10 == 0 {
					flushCtx, cancelFn := context.WithTimeout(ctx, testTimeout)
					assert.NoError(t, s.Flush(flushCtx))
					cancelFn()
				}
			}
		}()
	}
	wg.Wait()
	flush(t, ctx, s)
	require.Len(t, s.Collector.Outputs(), 200)
	require.Zero(t, s.QueueSize())
}
