package libav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/codecsession/codec"
)

var (
	ErrCodecNotFound = errors.New("codec not found")
)

// classifyError marks the errors after which the codec context cannot be
// trusted anymore as fatal. Invalid input (EINVAL, INVALIDDATA) only
// affects the unit that caused it.
func classifyError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	err = fmt.Errorf(format+": %w", append(args, err)...)
	if errors.Is(err, astiav.ErrEnomem) {
		return codec.Fatal(err)
	}
	return err
}

func isEndOfOutput(err error) bool {
	return errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof)
}
