// Package libav implements codec.Engine on top of libavcodec (through
// go-astiav).
//
// An encoder consumes raw frames: packed video planes of the configured
// pixel format, or interleaved/planar audio samples of the configured
// sample format. A decoder consumes compressed packets and produces the
// same raw layouts.
package libav
