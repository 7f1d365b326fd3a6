// rawencode encodes a file of raw video frames into a raw elementary
// stream using a codec session.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/codecsession"
	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/codec/libav"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/types"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options] <raw-input-file> <output-file>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	codecName := pflag.String("codec", "libx264", "the encoder name")
	width := pflag.Int("width", 1280, "frame width")
	height := pflag.Int("height", 720, "frame height")
	pixelFormat := pflag.String("pix-fmt", "yuv420p", "the pixel format of the input frames")
	fps := pflag.Int("fps", 30, "frame rate")
	gop := pflag.Int("gop", 0, "GOP size (0 means two seconds)")
	bitRateStr := pflag.String("bitrate", "2M", "bit rate (bits per second)")
	frameSizeStr := pflag.String("frame-size", "", "the size of one input frame (computed for yuv420p by default)")
	scalabilityMode := pflag.String("scalability-mode", "", "temporal scalability mode, e.g. L1T2")
	saturation := pflag.Uint("saturation-threshold", codecsession.DefaultSaturationThreshold, "the queue size at which the reading is paused")
	pflag.Parse()
	if len(pflag.Args()) != 2 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)
	libav.RedirectLogs(l)

	bitRate, err := humanize.ParseBytes(*bitRateStr)
	if err != nil {
		l.Fatalf("unable to parse the bit rate '%s': %v", *bitRateStr, err)
	}
	frameSize := *width * *height * 3 / 2
	if *frameSizeStr != "" {
		v, err := humanize.ParseBytes(*frameSizeStr)
		if err != nil {
			l.Fatalf("unable to parse the frame size '%s': %v", *frameSizeStr, err)
		}
		frameSize = int(v)
	} else if *pixelFormat != "yuv420p" {
		l.Fatalf("--frame-size is required for pixel format '%s'", *pixelFormat)
	}

	input, err := os.Open(pflag.Arg(0))
	if err != nil {
		l.Fatal(err)
	}
	defer input.Close()
	output, err := os.Create(pflag.Arg(1))
	if err != nil {
		l.Fatal(err)
	}
	defer output.Close()

	var writeErr error
	sess := codecsession.NewSession(ctx, libav.NewEngine(), codecsession.Handlers{
		OnOutput: func(ctx context.Context, out *types.Output) error {
			if writeErr != nil {
				return nil
			}
			_, writeErr = output.Write(out.Bytes())
			return writeErr
		},
		OnError: func(ctx context.Context, err error) {
			l.Errorf("%v", err)
		},
	}, codecsession.OptionSaturationThreshold(*saturation))
	defer sess.Close(ctx)

	dequeued := make(chan struct{}, 1)
	unsubscribe := sess.OnDequeue(func(ctx context.Context) {
		select {
		case dequeued <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	err = sess.Configure(ctx, codec.Params{
		Kind:            types.KindEncoder,
		CodecName:       *codecName,
		MediaType:       types.MediaTypeVideo,
		Width:           *width,
		Height:          *height,
		PixelFormat:     *pixelFormat,
		FrameRate:       types.Rational{Num: *fps, Den: 1},
		GOPSize:         *gop,
		BitRate:         bitRate,
		ScalabilityMode: *scalabilityMode,
	})
	if err != nil {
		l.Fatal(err)
	}

	startedAt := time.Now()
	for ts := int64(0); ; ts++ {
		frame := make([]byte, frameSize)
		_, err := io.ReadFull(input, frame)
		if err == io.EOF {
			break
		}
		if err != nil {
			l.Fatalf("unable to read frame #%d: %v", ts, err)
		}
		for sess.Saturated() {
			select {
			case <-dequeued:
			case <-time.After(100 * time.Millisecond):
			}
		}
		err = sess.Submit(ctx, types.Unit{Timestamp: ts, Duration: 1, Payload: frame}, types.SubmitOptions{KeyFrame: ts == 0})
		if err != nil {
			l.Fatalf("unable to submit frame #%d: %v (session error: %v)", ts, err, sess.Err())
		}
	}
	if err := sess.Flush(ctx); err != nil {
		l.Fatal(err)
	}
	if writeErr != nil {
		l.Fatal(writeErr)
	}

	statsJSON, err := json.Marshal(sess.Stats())
	if err != nil {
		l.Fatal(err)
	}
	fmt.Printf("%s in %v\n", statsJSON, time.Since(startedAt))
}
