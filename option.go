package codecsession

import (
	"github.com/xaionaro-go/codecsession/resource"
	"github.com/xaionaro-go/typing"
)

const (
	DefaultSaturationThreshold = 16
)

type config struct {
	SaturationThreshold uint
	BufferPool          *resource.BufferPool
	Registry            *resource.Registry
	LockOSThread        bool
	RequireSyncUnit     typing.Optional[bool]
}

type Option interface {
	apply(*config)
}

type Options []Option

func (s Options) apply(cfg *config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) config() config {
	cfg := config{}
	s.apply(&cfg)
	return cfg
}

// OptionSaturationThreshold is the queue size at which the session
// reports itself saturated.
type OptionSaturationThreshold uint

func (opt OptionSaturationThreshold) apply(cfg *config) {
	cfg.SaturationThreshold = uint(opt)
}

// OptionBufferPool sets the pool the output payloads are allocated from.
type OptionBufferPool struct {
	BufferPool *resource.BufferPool
}

func (opt OptionBufferPool) apply(cfg *config) {
	cfg.BufferPool = opt.BufferPool
}

// OptionRegistry sets the registry counting the live sessions, engine
// contexts and buffers.
type OptionRegistry struct {
	Registry *resource.Registry
}

func (opt OptionRegistry) apply(cfg *config) {
	cfg.Registry = opt.Registry
}

type OptionLockOSThread bool

func (opt OptionLockOSThread) apply(cfg *config) {
	cfg.LockOSThread = bool(opt)
}

// OptionRequireSyncUnit makes the session drop (with ErrSequencing) the
// units submitted after configure/reset until a sync unit. By default it
// is enabled for decoders only.
type OptionRequireSyncUnit bool

func (opt OptionRequireSyncUnit) apply(cfg *config) {
	cfg.RequireSyncUnit = typing.Opt(bool(opt))
}
