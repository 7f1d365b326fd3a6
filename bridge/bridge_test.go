package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/codecsession/types"
)

type recordingHandler struct {
	locker  sync.Mutex
	events  []string
	outputs []int64
	errs    []error
	acks    []int64

	onOutput func(ctx context.Context, output *types.Output) error
	onAck    func(ctx context.Context)
}

func (h *recordingHandler) OnOutput(ctx context.Context, epoch uint64, output *types.Output) error {
	h.locker.Lock()
	h.events = append(h.events, "output")
	h.outputs = append(h.outputs, output.Timestamp)
	h.locker.Unlock()
	if h.onOutput != nil {
		return h.onOutput(ctx, output)
	}
	return nil
}

func (h *recordingHandler) OnError(ctx context.Context, err error, fatal bool) {
	h.locker.Lock()
	defer h.locker.Unlock()
	h.events = append(h.events, "error")
	h.errs = append(h.errs, err)
}

func (h *recordingHandler) OnAck(ctx context.Context, epoch uint64, timestamp int64, dropped bool) {
	h.locker.Lock()
	h.events = append(h.events, "ack")
	h.acks = append(h.acks, timestamp)
	h.locker.Unlock()
	if h.onAck != nil {
		h.onAck(ctx)
	}
}

func (h *recordingHandler) snapshot() ([]string, []int64, []error, []int64) {
	h.locker.Lock()
	defer h.locker.Unlock()
	return append([]string(nil), h.events...),
		append([]int64(nil), h.outputs...),
		append([]error(nil), h.errs...),
		append([]int64(nil), h.acks...)
}

type drainedProducer struct {
	stopCh chan struct{}
}

func newDrainedProducer() *drainedProducer {
	return &drainedProducer{stopCh: make(chan struct{})}
}

func (p *drainedProducer) IsDrained() bool                    { return true }
func (p *drainedProducer) DrainedChangeChan() <-chan struct{} { return make(chan struct{}) }
func (p *drainedProducer) StopChan() <-chan struct{}          { return p.stopCh }

func outputItem(t *testing.T, pool *resource.BufferPool, epoch uint64, ts int64) Item {
	buf, err := pool.AcquireCopy(context.Background(), []byte{byte(ts)})
	require.NoError(t, err)
	return Item{
		Kind:   ItemKindOutput,
		Epoch:  epoch,
		Output: &types.Output{Timestamp: ts, Payload: buf},
	}
}

func TestBridgeOrder(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	pool := resource.NewBufferPool()
	h := &recordingHandler{}
	b := New(ctx, h)

	for ts := int64(0); ts < 100; ts++ {
		b.Deliver(ctx, outputItem(t, pool, 0, ts))
		if ts%10 == 9 {
			b.Deliver(ctx, Item{Kind: ItemKindAck, Timestamp: ts})
		}
	}
	b.Deliver(ctx, Item{Kind: ItemKindError, Err: errors.New("some error")})
	require.NoError(t, b.AwaitDrained(ctx, newDrainedProducer()))

	events, outputs, errs, acks := h.snapshot()
	require.Len(t, events, 111)
	require.Equal(t, "error", events[len(events)-1])
	require.Len(t, errs, 1)
	require.Len(t, outputs, 100)
	for idx, ts := range outputs {
		require.Equal(t, int64(idx), ts)
	}
	require.Equal(t, []int64{9, 19, 29, 39, 49, 59, 69, 79, 89, 99}, acks)
	require.Zero(t, b.Pending())
	require.Zero(t, pool.Outstanding())

	require.NoError(t, b.Close(ctx))
	require.True(t, b.IsClosed())
}

func TestBridgeCallbackFailures(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	pool := resource.NewBufferPool()
	errSome := errors.New("some error")
	h := &recordingHandler{}
	h.onOutput = func(ctx context.Context, output *types.Output) error {
		switch output.Timestamp {
		case 1:
			return errSome
		case 2:
			panic("oops")
		case 3:
			// taking the payload and releasing it, the bridge must not
			// release it a second time
			assert.NoError(t, output.TakePayload().Release())
		}
		return nil
	}
	b := New(ctx, h)
	defer b.Close(ctx)

	for ts := int64(0); ts < 5; ts++ {
		b.Deliver(ctx, outputItem(t, pool, 0, ts))
	}
	require.NoError(t, b.AwaitDrained(ctx, newDrainedProducer()))

	_, outputs, errs, _ := h.snapshot()
	require.Equal(t, []int64{0, 1, 2, 3, 4}, outputs)
	require.Len(t, errs, 2)
	require.ErrorIs(t, errs[0], errSome)
	var errCallback ErrCallback
	require.ErrorAs(t, errs[0], &errCallback)
	var errPanic ErrCallbackPanic
	require.ErrorAs(t, errs[1], &errPanic)
	require.Equal(t, ItemKindOutput, errPanic.Kind)
	require.Equal(t, "oops", errPanic.Value)
	require.Zero(t, pool.Outstanding())
}

func TestBridgeEpoch(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	pool := resource.NewBufferPool()
	h := &recordingHandler{}
	started := make(chan struct{})
	unblock := make(chan struct{})
	h.onOutput = func(ctx context.Context, output *types.Output) error {
		if output.Timestamp == 0 {
			close(started)
			<-unblock
		}
		return nil
	}
	b := New(ctx, h)
	defer b.Close(ctx)

	for ts := int64(0); ts < 5; ts++ {
		b.Deliver(ctx, outputItem(t, pool, 0, ts))
	}
	<-started
	b.SetEpoch(ctx, 1)

	// stale items are dropped on arrival, fatal errors are not
	b.Deliver(ctx, outputItem(t, pool, 0, 100))
	b.Deliver(ctx, Item{Kind: ItemKindError, Epoch: 0, Err: errors.New("fatal"), Fatal: true})
	b.Deliver(ctx, outputItem(t, pool, 1, 10))
	close(unblock)

	require.NoError(t, b.AwaitDrained(ctx, newDrainedProducer()))
	events, outputs, errs, _ := h.snapshot()
	require.Equal(t, []string{"output", "error", "output"}, events)
	require.Equal(t, []int64{0, 10}, outputs)
	require.Len(t, errs, 1)
	require.Zero(t, pool.Outstanding())
}

func TestBridgeAwaitDrained(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	t.Run("waits-for-callbacks", func(t *testing.T) {
		unblock := make(chan struct{})
		h := &recordingHandler{}
		h.onAck = func(ctx context.Context) { <-unblock }
		b := New(ctx, h)
		defer b.Close(ctx)

		b.Deliver(ctx, Item{Kind: ItemKindAck, Timestamp: 1})
		resultCh := make(chan error, 1)
		go func() { resultCh <- b.AwaitDrained(ctx, newDrainedProducer()) }()

		select {
		case err := <-resultCh:
			t.Fatalf("returned before the callback finished: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
		close(unblock)
		select {
		case err := <-resultCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
	})

	t.Run("aborted-by-close", func(t *testing.T) {
		started := make(chan struct{}, 2)
		unblock := make(chan struct{})
		h := &recordingHandler{}
		h.onAck = func(ctx context.Context) {
			started <- struct{}{}
			<-unblock
		}
		b := New(ctx, h)

		b.Deliver(ctx, Item{Kind: ItemKindAck, Timestamp: 1})
		b.Deliver(ctx, Item{Kind: ItemKindAck, Timestamp: 2})
		<-started
		resultCh := make(chan error, 1)
		go func() { resultCh <- b.AwaitDrained(ctx, newDrainedProducer()) }()

		closeCh := make(chan error, 1)
		go func() { closeCh <- b.Close(ctx) }()
		select {
		case err := <-resultCh:
			require.ErrorIs(t, err, ErrAborted)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
		close(unblock)
		require.NoError(t, <-closeCh)
		_, _, _, acks := h.snapshot()
		require.Equal(t, []int64{1}, acks)
		require.Zero(t, b.Pending())
	})

	t.Run("aborted-by-producer-stop", func(t *testing.T) {
		b := New(ctx, &recordingHandler{})
		defer b.Close(ctx)
		producer := newDrainedProducer()
		close(producer.stopCh)
		require.ErrorIs(t, b.AwaitDrained(ctx, producer), ErrAborted)
	})
}

func TestBridgeReentrancy(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	var (
		b          *Bridge
		awaitErr   error
		inCallback bool
		closeErr   error
	)
	done := make(chan struct{})
	h := &recordingHandler{}
	h.onAck = func(ctx context.Context) {
		defer close(done)
		// no marker in the context: recognized by the goroutine
		inCallback = b.IsInCallback(context.Background())
		awaitErr = b.AwaitDrained(ctx, newDrainedProducer())
		closeErr = b.Close(ctx)
	}
	b = New(ctx, h)
	require.False(t, b.IsInCallback(ctx))

	b.Deliver(ctx, Item{Kind: ItemKindAck})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
	require.True(t, inCallback)
	require.ErrorIs(t, awaitErr, ErrReentrant)
	require.NoError(t, closeErr)
	require.NoError(t, b.Close(ctx))
}

func TestBridgeDeliverAfterClose(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	pool := resource.NewBufferPool()
	h := &recordingHandler{}
	b := New(ctx, h)
	require.NoError(t, b.Close(ctx))
	require.NoError(t, b.Close(ctx))

	b.Deliver(ctx, outputItem(t, pool, 0, 1))
	require.Zero(t, b.Pending())
	require.Zero(t, pool.Outstanding())
	events, _, _, _ := h.snapshot()
	require.Empty(t, events)
}
