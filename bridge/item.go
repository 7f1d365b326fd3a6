package bridge

import (
	"fmt"

	"github.com/xaionaro-go/codecsession/types"
)

type ItemKind int

const (
	UndefinedItemKind = ItemKind(iota)
	ItemKindOutput
	ItemKindError
	ItemKindAck
	EndOfItemKind
)

func (k ItemKind) String() string {
	switch k {
	case UndefinedItemKind:
		return "<undefined>"
	case ItemKindOutput:
		return "output"
	case ItemKindError:
		return "error"
	case ItemKindAck:
		return "ack"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// Item is what the worker hands over to the caller side: an output, an
// error or the acknowledgment that an input unit was consumed.
type Item struct {
	Kind  ItemKind
	Epoch uint64

	// ItemKindOutput
	Output *types.Output

	// ItemKindError
	Err   error
	Fatal bool

	// ItemKindAck
	Timestamp int64
	Dropped   bool
}

func (i *Item) String() string {
	switch i.Kind {
	case ItemKindOutput:
		return fmt.Sprintf("Item(%s, epoch:%d, %s)", i.Kind, i.Epoch, i.Output)
	case ItemKindError:
		return fmt.Sprintf("Item(%s, epoch:%d, fatal:%t, %v)", i.Kind, i.Epoch, i.Fatal, i.Err)
	case ItemKindAck:
		return fmt.Sprintf("Item(%s, epoch:%d, ts:%d, dropped:%t)", i.Kind, i.Epoch, i.Timestamp, i.Dropped)
	default:
		return fmt.Sprintf("Item(%s)", i.Kind)
	}
}

// isStale reports whether the item belongs to an epoch which was reset.
// Fatal errors are never stale: the session must learn about them.
func (i *Item) isStale(epoch uint64) bool {
	return i.Epoch != epoch && !i.Fatal
}

func (i *Item) release() {
	if i.Output != nil {
		i.Output.Release()
	}
}
