// engine.go implements a deterministic in-memory codec engine.

// Package dummy provides a codec engine which does no real coding, but
// behaves like one from the pipeline perspective: it buffers units
// (like an encoder with B-frames or a decoder with reordering), emits
// several outputs per unit, fails on marked payloads and counts its
// contexts. It is used in tests and demos.
package dummy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
)

var (
	// CorruptMarker makes Push fail for the unit (non-fatal).
	CorruptMarker = []byte("!corrupt")

	// FatalMarker makes Push fail with a fatal error.
	FatalMarker = []byte("!fatal")

	ErrCorruptPayload   = errors.New("corrupt payload")
	ErrContextCorrupted = errors.New("engine context corrupted")
	ErrContextClosed    = errors.New("engine context is closed")
	ErrUnsupportedCodec = errors.New("unsupported codec")
)

// OutputPrefix is prepended to the payload of every output.
const OutputPrefix = "out:"

type Engine struct {
	// Delay is how many units the engine keeps buffered before emitting.
	Delay int

	// OutputsPerUnit is how many outputs a unit produces (0 means 1).
	OutputsPerUnit int

	// SupportedCodecs limits the codec names Open accepts (nil accepts any).
	SupportedCodecs []string

	OpenFn func(ctx context.Context, params codec.Params) error
	PushFn func(ctx context.Context, unit types.Unit) error

	OpenCount        atomic.Int64
	CloseCount       atomic.Int64
	DoubleCloseCount atomic.Int64
	PushCount        atomic.Int64
	DrainCount       atomic.Int64
}

var _ codec.Engine = (*Engine)(nil)

func (e *Engine) String() string {
	return "Dummy"
}

// ActiveContexts is the amount of opened but not closed contexts.
func (e *Engine) ActiveContexts() int64 {
	return e.OpenCount.Load() - e.CloseCount.Load()
}

func (e *Engine) Open(
	ctx context.Context,
	params codec.Params,
) (codec.EngineContext, error) {
	logger.Tracef(ctx, "Open")
	if e.SupportedCodecs != nil && !slices.Contains(e.SupportedCodecs, params.CodecName) {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedCodec, params.CodecName)
	}
	if e.OpenFn != nil {
		if err := e.OpenFn(ctx, params); err != nil {
			return nil, err
		}
	}
	e.OpenCount.Add(1)
	return &Context{
		Engine: e,
		Params: params.Clone(),
	}, nil
}

type Context struct {
	Engine  *Engine
	Params  codec.Params
	pending []codec.RawOutput
	closed  bool
}

var _ codec.EngineContext = (*Context)(nil)

func (c *Context) outputsPerUnit() int {
	if c.Engine.OutputsPerUnit <= 0 {
		return 1
	}
	return c.Engine.OutputsPerUnit
}

func (c *Context) Push(
	ctx context.Context,
	unit types.Unit,
	opts types.SubmitOptions,
) ([]codec.RawOutput, error) {
	c.Engine.PushCount.Add(1)
	if c.closed {
		return nil, codec.Fatal(ErrContextClosed)
	}
	if c.Engine.PushFn != nil {
		if err := c.Engine.PushFn(ctx, unit); err != nil {
			return nil, err
		}
	}
	switch {
	case bytes.HasPrefix(unit.Payload, FatalMarker):
		return nil, codec.Fatal(ErrContextCorrupted)
	case bytes.HasPrefix(unit.Payload, CorruptMarker):
		return nil, fmt.Errorf("%w at ts:%d", ErrCorruptPayload, unit.Timestamp)
	}

	flags := unit.Flags
	if opts.KeyFrame {
		flags |= types.UnitFlagSync
	}
	n := c.outputsPerUnit()
	for idx := 0; idx < n; idx++ {
		c.pending = append(c.pending, codec.RawOutput{
			Timestamp: unit.Timestamp + int64(idx),
			Duration:  unit.Duration,
			Flags:     flags,
			Data:      append([]byte(OutputPrefix), unit.Payload...),
		})
	}

	keep := c.Engine.Delay * n
	if len(c.pending) <= keep {
		return nil, nil
	}
	ready := c.pending[:len(c.pending)-keep]
	c.pending = slices.Clone(c.pending[len(c.pending)-keep:])
	return ready, nil
}

func (c *Context) Drain(
	ctx context.Context,
) ([]codec.RawOutput, error) {
	c.Engine.DrainCount.Add(1)
	if c.closed {
		return nil, codec.Fatal(ErrContextClosed)
	}
	ready := c.pending
	c.pending = nil
	return ready, nil
}

func (c *Context) Close(ctx context.Context) error {
	if c.closed {
		c.Engine.DoubleCloseCount.Add(1)
		return ErrContextClosed
	}
	c.closed = true
	c.pending = nil
	c.Engine.CloseCount.Add(1)
	return nil
}
