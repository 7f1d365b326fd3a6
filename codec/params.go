// params.go defines the codec configuration and its synchronous validation.

package codec

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/xaionaro-go/codecsession/types"
)

// Params describes the codec to configure. Fields irrelevant to the media
// type are ignored.
type Params struct {
	Kind      types.Kind
	CodecName string
	MediaType types.MediaType

	// video
	Width       int
	Height      int
	PixelFormat string
	FrameRate   types.Rational
	GOPSize     int

	// audio
	SampleRate   int
	Channels     int
	SampleFormat string

	BitRate  uint64
	TimeBase types.Rational

	// ScalabilityMode is an SVC mode name (e.g. "L1T2"); only the temporal
	// layer patterns are supported.
	ScalabilityMode string

	ExtraData []byte

	// Options are passed to the engine as is (e.g. libav private options).
	Options map[string]string
}

func (p Params) Clone() Params {
	p.ExtraData = slices.Clone(p.ExtraData)
	p.Options = maps.Clone(p.Options)
	return p
}

func (p Params) IsEncoder() bool {
	return p.Kind == types.KindEncoder
}

// Validate checks the params do not miss anything required. It does not
// check if the engine supports them, this is done when the engine context
// is opened.
func (p Params) Validate() error {
	var errs []error
	if !p.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("invalid kind: %v", p.Kind))
	}
	if p.CodecName == "" {
		errs = append(errs, fmt.Errorf("codec name is not set"))
	}
	switch p.MediaType {
	case types.MediaTypeVideo:
		if p.Width < 0 || p.Height < 0 {
			errs = append(errs, fmt.Errorf("negative resolution: %dx%d", p.Width, p.Height))
		}
		if p.IsEncoder() {
			if p.Width == 0 || p.Height == 0 {
				errs = append(errs, fmt.Errorf("resolution is required for a video encoder"))
			}
			if p.FrameRate.IsZero() && p.TimeBase.IsZero() {
				errs = append(errs, fmt.Errorf("either frame rate or time base is required for a video encoder"))
			}
		}
	case types.MediaTypeAudio:
		if p.SampleRate < 0 || p.Channels < 0 {
			errs = append(errs, fmt.Errorf("negative sample rate or channels: %d, %d", p.SampleRate, p.Channels))
		}
		if p.IsEncoder() && (p.SampleRate == 0 || p.Channels == 0) {
			errs = append(errs, fmt.Errorf("sample rate and channels are required for an audio encoder"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported media type: %v", p.MediaType))
	}
	if _, err := temporalLayerPattern(p.ScalabilityMode); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return ErrConfig{Err: errors.Join(errs...)}
	}
	return nil
}

// EffectiveTimeBase returns TimeBase if set, otherwise derives it from the
// frame rate (video) or the sample rate (audio).
func (p Params) EffectiveTimeBase() types.Rational {
	if !p.TimeBase.IsZero() {
		return p.TimeBase
	}
	switch p.MediaType {
	case types.MediaTypeVideo:
		if !p.FrameRate.IsZero() {
			return p.FrameRate.Reverse()
		}
	case types.MediaTypeAudio:
		if p.SampleRate > 0 {
			return types.Rational{Num: 1, Den: p.SampleRate}
		}
	}
	return types.Rational{Num: 1, Den: 1000}
}
