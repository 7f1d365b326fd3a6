package internal

import (
	"context"

	"github.com/xaionaro-go/codecsession/logger"
)

// Assert panics (through the logger, so the message ends up in the logs)
// if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}
	logger.Panicf(ctx, "assertion failed: %v", extraArgs)
}
