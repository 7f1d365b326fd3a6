package types

import "fmt"

type Kind int

const (
	UndefinedKind = Kind(iota)
	KindEncoder
	KindDecoder
	EndOfKind
)

func (k Kind) String() string {
	switch k {
	case UndefinedKind:
		return "<undefined>"
	case KindEncoder:
		return "encoder"
	case KindDecoder:
		return "decoder"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) IsValid() bool {
	return k > UndefinedKind && k < EndOfKind
}
