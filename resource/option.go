package resource

type bufferPoolConfig struct {
	MaxBufferSize int
	Registry      *Registry
}

type BufferPoolOption interface {
	apply(*bufferPoolConfig)
}

type BufferPoolOptions []BufferPoolOption

func (s BufferPoolOptions) apply(cfg *bufferPoolConfig) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s BufferPoolOptions) config() bufferPoolConfig {
	cfg := bufferPoolConfig{
		MaxBufferSize: DefaultMaxBufferSize,
	}
	s.apply(&cfg)
	return cfg
}

type BufferPoolOptionMaxBufferSize int

func (opt BufferPoolOptionMaxBufferSize) apply(cfg *bufferPoolConfig) {
	cfg.MaxBufferSize = int(opt)
}

type BufferPoolOptionRegistry struct {
	Registry *Registry
}

func (opt BufferPoolOptionRegistry) apply(cfg *bufferPoolConfig) {
	cfg.Registry = opt.Registry
}
