package codec

import (
	"fmt"

	"github.com/xaionaro-go/typing"
)

// temporalLayerPattern returns the temporal layer ids of consecutive
// frames for the given scalability mode.
func temporalLayerPattern(scalabilityMode string) ([]uint, error) {
	switch scalabilityMode {
	case "":
		return nil, nil
	case "L1T1":
		return []uint{0}, nil
	case "L1T2":
		return []uint{0, 1}, nil
	case "L1T3":
		return []uint{0, 2, 1, 2}, nil
	}
	return nil, fmt.Errorf("unsupported scalability mode '%s'", scalabilityMode)
}

// temporalLayerCounter guesses the temporal layer of each encoded output
// from its position, since engines do not report it. It is a heuristic:
// it goes wrong as soon as the engine drops or inserts frames.
type temporalLayerCounter struct {
	pattern  []uint
	position uint64
}

func (c *temporalLayerCounter) Next() typing.Optional[uint] {
	if len(c.pattern) == 0 {
		return typing.Optional[uint]{}
	}
	id := c.pattern[c.position%uint64(len(c.pattern))]
	c.position++
	return typing.Opt(id)
}

func (c *temporalLayerCounter) Reset() {
	c.position = 0
}
