package libav

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
)

func sampleFormatFromString(s string) (astiav.SampleFormat, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "u8":
		return astiav.SampleFormatU8, nil
	case "u8p":
		return astiav.SampleFormatU8P, nil
	case "s16":
		return astiav.SampleFormatS16, nil
	case "s16p":
		return astiav.SampleFormatS16P, nil
	case "s32":
		return astiav.SampleFormatS32, nil
	case "s32p":
		return astiav.SampleFormatS32P, nil
	case "s64":
		return astiav.SampleFormatS64, nil
	case "s64p":
		return astiav.SampleFormatS64P, nil
	case "flt":
		return astiav.SampleFormatFlt, nil
	case "fltp":
		return astiav.SampleFormatFltp, nil
	case "dbl":
		return astiav.SampleFormatDbl, nil
	case "dblp":
		return astiav.SampleFormatDblp, nil
	}

	return astiav.SampleFormatNone, fmt.Errorf("unsupported sample format '%s'", s)
}

func pixelFormatFromString(s string) (astiav.PixelFormat, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "yuv420p":
		return astiav.PixelFormatYuv420P, nil
	case "yuv422p":
		return astiav.PixelFormatYuv422P, nil
	case "yuv444p":
		return astiav.PixelFormatYuv444P, nil
	case "nv12":
		return astiav.PixelFormatNv12, nil
	case "rgb24":
		return astiav.PixelFormatRgb24, nil
	case "bgr24":
		return astiav.PixelFormatBgr24, nil
	case "rgba":
		return astiav.PixelFormatRgba, nil
	case "gray":
		return astiav.PixelFormatGray8, nil
	}

	return astiav.PixelFormatNone, fmt.Errorf("unsupported pixel format '%s'", s)
}

func channelLayoutFromCount(channels int) (astiav.ChannelLayout, error) {
	switch channels {
	case 1:
		return astiav.ChannelLayoutMono, nil
	case 2:
		return astiav.ChannelLayoutStereo, nil
	}
	return astiav.ChannelLayout{}, fmt.Errorf("unsupported amount of channels: %d", channels)
}
