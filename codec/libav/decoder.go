package libav

import (
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
)

// Decoder decodes packets into raw frames.
type Decoder struct {
	*libavContext
}

var _ codec.EngineContext = (*Decoder)(nil)

func (d *Decoder) Push(
	ctx context.Context,
	unit types.Unit,
	opts types.SubmitOptions,
) (_ret []codec.RawOutput, _err error) {
	logger.Tracef(ctx, "Push(%s)", unit)
	defer func() { logger.Tracef(ctx, "/Push(%s): %d %v", unit, len(_ret), _err) }()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	pkt := packetPool.Get()
	defer packetPool.Put(pkt)
	if err := pkt.FromData(unit.Payload); err != nil {
		return nil, classifyError(err, "unable to fill the packet with %d bytes", len(unit.Payload))
	}
	pkt.SetPts(unit.Timestamp)
	pkt.SetDts(unit.Timestamp)
	pkt.SetDuration(unit.Duration)
	if unit.IsSync() {
		pkt.SetFlags(pkt.Flags().Add(astiav.PacketFlagKey))
	}

	if err := d.codecContext.SendPacket(pkt); err != nil {
		return nil, classifyError(err, "unable to send the packet (ts:%d) to the decoder", unit.Timestamp)
	}
	return d.receiveFrames(ctx)
}

func (d *Decoder) receiveFrames(
	ctx context.Context,
) ([]codec.RawOutput, error) {
	var outputs []codec.RawOutput
	for {
		f := framePool.Get()
		err := d.codecContext.ReceiveFrame(f)
		if err != nil {
			framePool.Put(f)
			logger.Tracef(ctx, "decoder.ReceiveFrame(): %v", err)
			if isEndOfOutput(err) {
				return outputs, nil
			}
			return outputs, classifyError(err, "unable to receive a frame from the decoder")
		}
		data, err := d.frameBytes(f)
		if err != nil {
			framePool.Put(f)
			return outputs, err
		}
		out := codec.RawOutput{
			Timestamp: f.Pts(),
			Duration:  f.Duration(),
			Data:      data,
		}
		if f.Flags().Has(astiav.FrameFlagKey) {
			out.Flags |= types.UnitFlagSync
		}
		framePool.Put(f)
		outputs = append(outputs, out)
	}
}

func (d *Decoder) frameBytes(f *astiav.Frame) ([]byte, error) {
	switch d.Params.MediaType {
	case types.MediaTypeAudio:
		size, err := f.SamplesBufferSize(1)
		if err != nil {
			return nil, fmt.Errorf("unable to get the samples buffer size: %w", err)
		}
		buf := make([]byte, size)
		if _, err := f.SamplesCopyToBuffer(buf, 1); err != nil {
			return nil, fmt.Errorf("unable to copy samples to buffer: %w", err)
		}
		return buf, nil
	default:
		data, err := f.Data().Bytes(1)
		if err != nil {
			return nil, fmt.Errorf("unable to get the frame data: %w", err)
		}
		return data, nil
	}
}

func (d *Decoder) Drain(
	ctx context.Context,
) (_ret []codec.RawOutput, _err error) {
	logger.Tracef(ctx, "Drain")
	defer func() { logger.Tracef(ctx, "/Drain: %d %v", len(_ret), _err) }()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	logger.Tracef(ctx, "sending the FLUSH REQUEST pseudo-packet")
	err := d.codecContext.SendPacket(nil)
	switch {
	case err == nil:
	case errors.Is(err, astiav.ErrEof):
		return nil, nil
	default:
		return nil, classifyError(err, "unable to send the FLUSH REQUEST pseudo-packet")
	}
	return d.receiveFrames(ctx)
}
