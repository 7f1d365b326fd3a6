package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/codecsession/logger"
)

// SetFinalizerFree makes the garbage collector call Free on a native
// object nobody owns explicitly (e.g. short-lived option dictionaries).
func SetFinalizerFree[T interface{ Free() }](
	ctx context.Context,
	freer T,
) {
	runtime.SetFinalizer(freer, func(freer T) {
		logger.Tracef(ctx, "freeing %T", freer)
		freer.Free()
	})
}
