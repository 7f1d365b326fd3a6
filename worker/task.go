package worker

import (
	"fmt"

	"github.com/xaionaro-go/codecsession/codec"
	"github.com/xaionaro-go/codecsession/types"
)

type TaskKind int

const (
	UndefinedTaskKind = TaskKind(iota)
	TaskKindConfigure
	TaskKindSubmit
	TaskKindFlush
	TaskKindReset
	TaskKindClose
	EndOfTaskKind
)

func (k TaskKind) String() string {
	switch k {
	case UndefinedTaskKind:
		return "<undefined>"
	case TaskKindConfigure:
		return "configure"
	case TaskKindSubmit:
		return "submit"
	case TaskKindFlush:
		return "flush"
	case TaskKindReset:
		return "reset"
	case TaskKindClose:
		return "close"
	default:
		return fmt.Sprintf("TaskKind(%d)", int(k))
	}
}

// Task is an operation for the worker. It must not be modified after it
// was enqueued.
type Task struct {
	Kind  TaskKind
	Epoch uint64

	// TaskKindConfigure
	Params codec.Params

	// TaskKindSubmit
	Unit    types.Unit
	Options types.SubmitOptions
}

func (t Task) String() string {
	switch t.Kind {
	case TaskKindConfigure:
		return fmt.Sprintf("Task(%s, epoch:%d, %s:%s)", t.Kind, t.Epoch, t.Params.Kind, t.Params.CodecName)
	case TaskKindSubmit:
		return fmt.Sprintf("Task(%s, epoch:%d, %s)", t.Kind, t.Epoch, t.Unit)
	default:
		return fmt.Sprintf("Task(%s, epoch:%d)", t.Kind, t.Epoch)
	}
}
