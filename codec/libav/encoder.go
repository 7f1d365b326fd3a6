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

// Encoder encodes raw frames into packets. Units are expected to contain
// a whole frame (video) or a whole audio frame of the encoder's frame
// size (audio).
type Encoder struct {
	*libavContext
}

var _ codec.EngineContext = (*Encoder)(nil)

func (e *Encoder) Push(
	ctx context.Context,
	unit types.Unit,
	opts types.SubmitOptions,
) (_ret []codec.RawOutput, _err error) {
	logger.Tracef(ctx, "Push(%s)", unit)
	defer func() { logger.Tracef(ctx, "/Push(%s): %d %v", unit, len(_ret), _err) }()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	f := framePool.Get()
	defer framePool.Put(f)
	if err := e.fillFrame(f, unit); err != nil {
		return nil, err
	}
	if opts.KeyFrame {
		logger.Debugf(ctx, "forcing the frame to be a keyframe")
		f.SetFlags(f.Flags().Add(astiav.FrameFlagKey))
		f.SetPictureType(astiav.PictureTypeI)
	}

	if err := e.codecContext.SendFrame(f); err != nil {
		return nil, classifyError(err, "unable to send the frame (ts:%d) to the encoder", unit.Timestamp)
	}
	return e.receivePackets(ctx)
}

func (e *Encoder) fillFrame(
	f *astiav.Frame,
	unit types.Unit,
) error {
	f.SetPts(unit.Timestamp)
	switch e.Params.MediaType {
	case types.MediaTypeVideo:
		f.SetWidth(e.Params.Width)
		f.SetHeight(e.Params.Height)
		f.SetPixelFormat(e.pixelFormat)
	case types.MediaTypeAudio:
		bytesPerFrame := e.sampleFormat.BytesPerSample() * e.Params.Channels
		if bytesPerFrame <= 0 || len(unit.Payload)%bytesPerFrame != 0 {
			return fmt.Errorf("payload size %d is not a multiple of %d (channels * bytes_per_sample)", len(unit.Payload), bytesPerFrame)
		}
		f.SetNbSamples(len(unit.Payload) / bytesPerFrame)
		f.SetSampleFormat(e.sampleFormat)
		f.SetChannelLayout(e.channelLayout)
		f.SetSampleRate(e.Params.SampleRate)
	}
	if err := f.AllocBuffer(0); err != nil {
		return classifyError(err, "unable to allocate frame buffer")
	}
	if err := f.Data().SetBytes(unit.Payload, 1); err != nil {
		return fmt.Errorf("unable to set frame data from the payload (size: %d): %w", len(unit.Payload), err)
	}
	return nil
}

func (e *Encoder) receivePackets(
	ctx context.Context,
) ([]codec.RawOutput, error) {
	var outputs []codec.RawOutput
	for {
		pkt := packetPool.Get()
		err := e.codecContext.ReceivePacket(pkt)
		if err != nil {
			packetPool.Put(pkt)
			logger.Tracef(ctx, "encoder.ReceivePacket(): %v", err)
			if isEndOfOutput(err) {
				return outputs, nil
			}
			return outputs, classifyError(err, "unable to receive a packet from the encoder")
		}
		out := codec.RawOutput{
			Timestamp: pkt.Pts(),
			Duration:  pkt.Duration(),
			Data:      pkt.Data(),
		}
		if pkt.Flags().Has(astiav.PacketFlagKey) {
			out.Flags |= types.UnitFlagSync
		}
		packetPool.Put(pkt)
		outputs = append(outputs, out)
	}
}

func (e *Encoder) Drain(
	ctx context.Context,
) (_ret []codec.RawOutput, _err error) {
	logger.Tracef(ctx, "Drain")
	defer func() { logger.Tracef(ctx, "/Drain: %d %v", len(_ret), _err) }()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	logger.Tracef(ctx, "sending the FLUSH REQUEST pseudo-frame")
	err := e.codecContext.SendFrame(nil)
	switch {
	case err == nil:
	case errors.Is(err, astiav.ErrEof):
		return nil, nil
	default:
		return nil, classifyError(err, "unable to send the FLUSH REQUEST pseudo-frame")
	}
	return e.receivePackets(ctx)
}
