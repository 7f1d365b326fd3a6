package worker

type config struct {
	LockOSThread    bool
	RequireSyncUnit bool
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

// OptionLockOSThread makes the worker goroutine stay on one OS thread,
// native codec contexts may have thread affinity.
type OptionLockOSThread bool

func (opt OptionLockOSThread) apply(cfg *config) {
	cfg.LockOSThread = bool(opt)
}

// OptionRequireSyncUnit makes the worker drop units until a sync unit
// arrives after every configure and reset.
type OptionRequireSyncUnit bool

func (opt OptionRequireSyncUnit) apply(cfg *config) {
	cfg.RequireSyncUnit = bool(opt)
}
