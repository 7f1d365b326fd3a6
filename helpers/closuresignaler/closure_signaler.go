// closure_signaler.go provides a close-once channel used to broadcast shutdown.

// Package closuresignaler provides a utility for signaling that something
// was closed or stopped.
package closuresignaler

import (
	"context"
	"sync"

	"github.com/xaionaro-go/codecsession/logger"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close closes the channel; it reports if this call was the one that
// actually closed it.
func (c *ClosureSignaler) Close(ctx context.Context) (closedNow bool) {
	c.closeOnce.Do(func() {
		logger.Tracef(ctx, "ClosureSignaler.Close")
		close(c.c)
		closedNow = true
	})
	return
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}
