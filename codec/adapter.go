// adapter.go wraps an Engine into the push/drain contract used by the worker.

package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/codecsession/types"
)

// Adapter owns the engine context of one session. It is not safe for
// concurrent use: only the worker goroutine touches it.
type Adapter struct {
	Engine     Engine
	BufferPool *resource.BufferPool
	Registry   *resource.Registry

	params        Params
	isConfigured  bool
	engineContext *resource.Owned[EngineContext]
	temporalLayer temporalLayerCounter
}

func NewAdapter(
	engine Engine,
	bufferPool *resource.BufferPool,
	registry *resource.Registry,
) *Adapter {
	if bufferPool == nil {
		bufferPool = resource.NewBufferPool(resource.BufferPoolOptionRegistry{Registry: registry})
	}
	return &Adapter{
		Engine:     engine,
		BufferPool: bufferPool,
		Registry:   registry,
	}
}

func (a *Adapter) String() string {
	if !a.isConfigured {
		return fmt.Sprintf("Adapter(%s)", a.Engine)
	}
	return fmt.Sprintf("Adapter(%s:%s:%s)", a.Engine, a.params.Kind, a.params.CodecName)
}

func (a *Adapter) IsConfigured() bool {
	return a.isConfigured
}

func (a *Adapter) Params() Params {
	return a.params.Clone()
}

// Configure validates the params and opens an engine context with them,
// replacing the previous one (if any).
func (a *Adapter) Configure(
	ctx context.Context,
	params Params,
) (_err error) {
	logger.Debugf(ctx, "Configure")
	defer func() { logger.Debugf(ctx, "/Configure: %v", _err) }()
	logger.Tracef(ctx, "params: %s", spew.Sdump(params))

	if err := params.Validate(); err != nil {
		return err
	}
	pattern, err := temporalLayerPattern(params.ScalabilityMode)
	if err != nil {
		return ErrConfig{Err: err}
	}

	if err := a.closeEngineContext(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the previous engine context: %v", err)
	}

	params = params.Clone()
	if err := a.openEngineContext(ctx, params); err != nil {
		return err
	}
	a.params = params
	a.isConfigured = true
	a.temporalLayer = temporalLayerCounter{pattern: pattern}
	return nil
}

func (a *Adapter) openEngineContext(
	ctx context.Context,
	params Params,
) error {
	ctx = belt.WithField(ctx, "codec_name", params.CodecName)
	engineCtx, err := a.Engine.Open(ctx, params)
	if err != nil {
		if IsFatal(err) {
			return err
		}
		return ErrConfig{Err: fmt.Errorf("engine %s is unable to open a context: %w", a.Engine, err)}
	}
	untrack := a.Registry.Track(resource.KindEngineContext)
	a.engineContext = resource.Own(engineCtx, func(engineCtx EngineContext) error {
		defer untrack()
		return engineCtx.Close(ctx)
	})
	return nil
}

func (a *Adapter) closeEngineContext(
	ctx context.Context,
) error {
	if a.engineContext == nil {
		return nil
	}
	engineContext := a.engineContext
	a.engineContext = nil
	err := engineContext.Release()
	if errors.Is(err, resource.ErrAlreadyReleased) {
		logger.Debugf(ctx, "the engine context was already released")
		return nil
	}
	return err
}

func (a *Adapter) getEngineContext() (EngineContext, error) {
	engineCtx, ok := a.engineContext.Get()
	if !ok {
		return nil, ErrNotConfigured
	}
	return engineCtx, nil
}

// Push feeds one unit into the engine. Outputs produced before a failure
// are returned together with the error.
func (a *Adapter) Push(
	ctx context.Context,
	unit types.Unit,
	opts types.SubmitOptions,
) (_ret []types.Output, _err error) {
	logger.Tracef(ctx, "Push(%s)", unit)
	defer func() { logger.Tracef(ctx, "/Push(%s): %d %v", unit, len(_ret), _err) }()

	engineCtx, err := a.getEngineContext()
	if err != nil {
		return nil, err
	}

	raws, pushErr := engineCtx.Push(ctx, unit, opts)
	outputs, convErr := a.convert(ctx, raws)
	if err := errors.Join(pushErr, convErr); err != nil {
		return outputs, ErrEngine{Err: err, Timestamp: unit.Timestamp, Fatal: IsFatal(pushErr) || IsFatal(convErr)}
	}
	return outputs, nil
}

// Drain makes the engine emit everything it buffered. Since an engine
// context does not accept new units after the end of stream, it is
// reopened with the same params afterwards.
func (a *Adapter) Drain(
	ctx context.Context,
) (_ret []types.Output, _err error) {
	logger.Debugf(ctx, "Drain")
	defer func() { logger.Debugf(ctx, "/Drain: %d %v", len(_ret), _err) }()

	engineCtx, err := a.getEngineContext()
	if err != nil {
		return nil, err
	}

	raws, drainErr := engineCtx.Drain(ctx)
	outputs, convErr := a.convert(ctx, raws)
	if reopenErr := a.reopen(ctx); reopenErr != nil {
		return outputs, ErrEngine{Err: Fatal(reopenErr), Fatal: true}
	}
	if err := errors.Join(drainErr, convErr); err != nil {
		return outputs, ErrEngine{Err: err, Fatal: IsFatal(drainErr) || IsFatal(convErr)}
	}
	return outputs, nil
}

// Reset drops everything buffered in the engine by recreating the context.
func (a *Adapter) Reset(
	ctx context.Context,
) (_err error) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset: %v", _err) }()
	if !a.isConfigured {
		return ErrNotConfigured
	}
	a.temporalLayer.Reset()
	return a.reopen(ctx)
}

func (a *Adapter) reopen(
	ctx context.Context,
) error {
	if err := a.closeEngineContext(ctx); err != nil {
		logger.Errorf(ctx, "unable to close the engine context: %v", err)
	}
	return a.openEngineContext(ctx, a.params)
}

// Close releases the engine context. It is idempotent.
func (a *Adapter) Close(
	ctx context.Context,
) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	a.isConfigured = false
	return a.closeEngineContext(ctx)
}

// convert moves the engine-owned outputs into pooled buffers. If a buffer
// cannot be acquired, every buffer acquired by this call is released and
// the allocation failure is reported as fatal.
func (a *Adapter) convert(
	ctx context.Context,
	raws []RawOutput,
) (_ret []types.Output, _err error) {
	if len(raws) == 0 {
		return nil, nil
	}
	outputs := make([]types.Output, 0, len(raws))
	for idx, raw := range raws {
		buf, err := a.BufferPool.AcquireCopy(ctx, raw.Data)
		if err != nil {
			for idx := range outputs {
				outputs[idx].Release()
			}
			return nil, Fatal(fmt.Errorf("unable to acquire a buffer for output #%d (ts:%d): %w", idx, raw.Timestamp, err))
		}
		out := types.Output{
			Timestamp: raw.Timestamp,
			Duration:  raw.Duration,
			Flags:     raw.Flags,
			Payload:   buf,
		}
		if a.params.IsEncoder() {
			out.TemporalLayerID = a.temporalLayer.Next()
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
