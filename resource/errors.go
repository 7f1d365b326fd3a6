package resource

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyReleased = errors.New("already released")
)

type ErrAllocation struct {
	Size int
	Max  int
}

func (e ErrAllocation) Error() string {
	return fmt.Sprintf("unable to allocate a buffer of %d bytes (max: %d)", e.Size, e.Max)
}
