package codecsession

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/xaionaro-go/codecsession/bridge"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
)

// bridgeHandler is the Session as seen by its bridge; it is a separate
// type to keep the handler methods out of the public API.
type bridgeHandler Session

var _ bridge.Handler = (*bridgeHandler)(nil)

func (h *bridgeHandler) session() *Session {
	return (*Session)(h)
}

func (h *bridgeHandler) OnOutput(
	ctx context.Context,
	epoch uint64,
	output *types.Output,
) error {
	s := h.session()
	s.counters.Outputs.Increment(uint64(output.Payload.Len()))
	if s.Handlers.OnOutput == nil {
		return nil
	}
	return s.Handlers.OnOutput(ctx, output)
}

func (h *bridgeHandler) OnError(
	ctx context.Context,
	err error,
	fatal bool,
) {
	s := h.session()
	s.counters.Errors.Increment(0)
	if fatal {
		logger.Errorf(ctx, "fatal error: %v", err)
		if s.setClosed(ctx, err) {
			observability.Go(xcontext.DetachDone(s.ctx), func(ctx context.Context) {
				if err := s.release(ctx); err != nil {
					errmon.ObserveErrorCtx(ctx, err)
				}
			})
		}
	} else {
		logger.Debugf(ctx, "error: %v", err)
	}
	if s.Handlers.OnError != nil {
		s.Handlers.OnError(ctx, err)
	}
}

func (h *bridgeHandler) OnAck(
	ctx context.Context,
	epoch uint64,
	timestamp int64,
	dropped bool,
) {
	s := h.session()
	if epoch != s.epoch.Load() {
		return
	}
	if dropped {
		s.counters.Dropped.Increment(0)
	}
	s.fireDequeue(ctx, s.queueSizeDec(ctx, epoch))
}
