package libav

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/internal"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
)

// Engine opens libavcodec encoder and decoder contexts.
type Engine struct{}

var _ codec.Engine = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{}
}

func (*Engine) String() string {
	return "libav"
}

func (e *Engine) Open(
	ctx context.Context,
	params codec.Params,
) (_ret codec.EngineContext, _err error) {
	ctx = belt.WithField(ctx, "codec_name", params.CodecName)
	ctx = belt.WithField(ctx, "kind", params.Kind)
	logger.Debugf(ctx, "Open")
	defer func() { logger.Debugf(ctx, "/Open: %v", _err) }()

	c, err := newCodecContext(ctx, params)
	if err != nil {
		return nil, err
	}
	switch params.Kind {
	case types.KindEncoder:
		return &Encoder{libavContext: c}, nil
	case types.KindDecoder:
		return &Decoder{libavContext: c}, nil
	default:
		_ = c.Close(ctx)
		return nil, fmt.Errorf("unexpected kind: %v", params.Kind)
	}
}

type libavContext struct {
	Params        codec.Params
	codec         *astiav.Codec
	codecContext  *astiav.CodecContext
	closer        *astikit.Closer
	pixelFormat   astiav.PixelFormat
	sampleFormat  astiav.SampleFormat
	channelLayout astiav.ChannelLayout
}

func findCodec(
	isEncoder bool,
	codecName string,
) *astiav.Codec {
	if isEncoder {
		return astiav.FindEncoderByName(codecName)
	}
	return astiav.FindDecoderByName(codecName)
}

func newCodecContext(
	ctx context.Context,
	params codec.Params,
) (_ret *libavContext, _err error) {
	logger.Tracef(ctx, "newCodecContext(ctx, %s)", spew.Sdump(params))
	defer func() { logger.Tracef(ctx, "/newCodecContext: %v", _err) }()

	isEncoder := params.IsEncoder()
	c := &libavContext{
		Params:       params.Clone(),
		closer:       astikit.NewCloser(),
		pixelFormat:  astiav.PixelFormatNone,
		sampleFormat: astiav.SampleFormatNone,
	}
	defer func() {
		if _err != nil {
			logger.Debugf(ctx, "got an error, closing the codec context: %v", _err)
			_ = c.Close(ctx)
		}
	}()

	c.codec = findCodec(isEncoder, params.CodecName)
	if c.codec == nil {
		return nil, fmt.Errorf("%w: unable to find a codec using name '%s'", ErrCodecNotFound, params.CodecName)
	}
	ctx = belt.WithField(ctx, "codec_id", c.codec.ID())

	c.codecContext = astiav.AllocCodecContext(c.codec)
	if c.codecContext == nil {
		return nil, codec.Fatal(fmt.Errorf("unable to allocate codec context"))
	}
	c.closer.Add(c.codecContext.Free)
	c.closer.Add(func() {
		logger.Tracef(ctx, "CodecContext.Free()")
	})

	options := astiav.NewDictionary()
	internal.SetFinalizerFree(ctx, options)
	for _, key := range slices.Sorted(maps.Keys(params.Options)) {
		if err := options.Set(key, params.Options[key], 0); err != nil {
			return nil, fmt.Errorf("unable to set option '%s': %w", key, err)
		}
	}

	timeBase := params.EffectiveTimeBase()
	switch params.MediaType {
	case types.MediaTypeVideo:
		c.codecContext.SetWidth(params.Width)
		c.codecContext.SetHeight(params.Height)
		if params.PixelFormat != "" {
			pixFmt, err := pixelFormatFromString(params.PixelFormat)
			if err != nil {
				return nil, err
			}
			c.pixelFormat = pixFmt
		} else if isEncoder {
			logger.Warnf(ctx, "pixel format is not set, so applying the first supported one")
			if pixFmts := c.codec.PixelFormats(); len(pixFmts) > 0 {
				c.pixelFormat = pixFmts[0]
			}
		}
		if c.pixelFormat != astiav.PixelFormatNone {
			c.codecContext.SetPixelFormat(c.pixelFormat)
		}
		if !params.FrameRate.IsZero() {
			c.codecContext.SetFramerate(astiav.NewRational(params.FrameRate.Num, params.FrameRate.Den))
		}
		if isEncoder {
			gopSize := params.GOPSize
			if gopSize <= 0 {
				fps := params.FrameRate.Float64()
				if fps < 1 {
					logger.Warnf(ctx, "unable to detect the FPS, assuming 30")
					fps = 30
				}
				gopSize = int(0.999+fps) * 2
				logger.Debugf(ctx, "gop_size is not set, defaulting to the FPS*2 value (%d <- %f)", gopSize, fps)
			}
			c.codecContext.SetGopSize(gopSize)
			c.codecContext.SetMaxBFrames(0)
		}
	case types.MediaTypeAudio:
		if params.Channels > 0 {
			layout, err := channelLayoutFromCount(params.Channels)
			if err != nil {
				return nil, err
			}
			c.channelLayout = layout
			c.codecContext.SetChannelLayout(layout)
		}
		if params.SampleRate > 0 {
			c.codecContext.SetSampleRate(params.SampleRate)
		}
		sampleFormat := params.SampleFormat
		if sampleFormat == "" && isEncoder {
			sampleFormat = "fltp"
		}
		if sampleFormat != "" {
			sf, err := sampleFormatFromString(sampleFormat)
			if err != nil {
				return nil, err
			}
			c.sampleFormat = sf
			c.codecContext.SetSampleFormat(sf)
		}
	}
	if params.BitRate > 0 {
		c.codecContext.SetBitRate(int64(params.BitRate))
	}

	logger.Debugf(ctx, "time_base == %v", timeBase)
	c.codecContext.SetTimeBase(astiav.NewRational(timeBase.Num, timeBase.Den))
	c.codecContext.SetFlags(astiav.CodecContextFlags(astiav.CodecContextFlagLowDelay))

	if !isEncoder && len(params.ExtraData) > 0 {
		c.codecContext.SetExtraData(params.ExtraData)
	}

	if err := c.codecContext.Open(c.codec, options); err != nil {
		return nil, classifyError(err, "unable to open codec context")
	}
	return c, nil
}

func (c *libavContext) String() string {
	return fmt.Sprintf("%s(%s)", c.Params.Kind, c.codec.Name())
}

func (c *libavContext) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	c.codecContext = nil
	return err
}

func (c *libavContext) checkOpen() error {
	if c.codecContext == nil {
		return codec.Fatal(fmt.Errorf("codec context is closed"))
	}
	return nil
}
