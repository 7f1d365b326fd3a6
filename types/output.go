// output.go defines the output unit delivered by a session.

package types

import (
	"fmt"

	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/typing"
)

// Output is one item of output media. Its payload lives in a pooled buffer
// owned by the pipeline until the output callback returns; a callback that
// wants to keep the payload longer must take it with TakePayload.
type Output struct {
	Timestamp int64
	Duration  int64
	Flags     UnitFlags
	Payload   *resource.Buffer

	// TemporalLayerID is a best-effort guess derived from the output
	// position within the scalability pattern, the engine does not report it.
	TemporalLayerID typing.Optional[uint]
}

func (o *Output) Bytes() []byte {
	return o.Payload.Bytes()
}

// TakePayload moves the payload out of the output; the caller becomes
// responsible for releasing it.
func (o *Output) TakePayload() *resource.Buffer {
	buf := o.Payload.Move()
	o.Payload = nil
	return buf
}

// Release returns the payload to the pool, if the output still owns it.
func (o *Output) Release() {
	if o == nil || o.Payload == nil {
		return
	}
	_ = o.Payload.Release()
	o.Payload = nil
}

func (o *Output) String() string {
	return fmt.Sprintf("Output(ts:%d, dur:%d, size:%d, flags:%s)", o.Timestamp, o.Duration, o.Payload.Len(), o.Flags)
}
