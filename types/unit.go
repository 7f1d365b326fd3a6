// unit.go defines the input unit submitted to a session.

package types

import (
	"fmt"
)

type UnitFlags uint32

const (
	// UnitFlagSync marks a unit which resets the decoder state (a key
	// frame); a decoder requires it as the first unit after configure/reset.
	UnitFlagSync = UnitFlags(1 << iota)

	// UnitFlagDiscardable marks a unit other units do not depend on.
	UnitFlagDiscardable
)

func (f UnitFlags) Has(flag UnitFlags) bool {
	return f&flag == flag
}

func (f UnitFlags) String() string {
	var s string
	if f.Has(UnitFlagSync) {
		s += "S"
	}
	if f.Has(UnitFlagDiscardable) {
		s += "D"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Unit is one item of input media: a raw frame for an encoder or a
// compressed chunk for a decoder.
//
// The caller owns Payload until the unit is submitted; after that the
// session owns it and the caller must not modify it.
type Unit struct {
	Timestamp int64
	Duration  int64
	Payload   []byte
	Flags     UnitFlags
}

func (u Unit) IsSync() bool {
	return u.Flags.Has(UnitFlagSync)
}

func (u Unit) String() string {
	return fmt.Sprintf("Unit(ts:%d, dur:%d, size:%d, flags:%s)", u.Timestamp, u.Duration, len(u.Payload), u.Flags)
}

// SubmitOptions are per-unit knobs of a submission.
type SubmitOptions struct {
	// KeyFrame asks an encoder to produce a key frame from this unit.
	KeyFrame bool
}
