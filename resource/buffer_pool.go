// buffer_pool.go implements the pool of reusable payload buffers.

package resource

import (
	"context"
	"math/bits"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/codecsession/logger"
	"github.com/xaionaro-go/codecsession/pool"
	"go.uber.org/atomic"
)

const (
	minBufferSizeShift   = 8 // 256 bytes
	DefaultMaxBufferSize = 64 << 20
)

// BufferPool hands out Buffer-s with capacity rounded up to a power of two,
// each power of two being backed by its own pool.Pool.
type BufferPool struct {
	MaxBufferSize int
	Registry      *Registry

	classes     []*pool.Pool[[]byte]
	outstanding atomic.Int64
	acquired    atomic.Uint64
}

func NewBufferPool(
	opts ...BufferPoolOption,
) *BufferPool {
	cfg := BufferPoolOptions(opts).config()
	p := &BufferPool{
		MaxBufferSize: cfg.MaxBufferSize,
		Registry:      cfg.Registry,
	}
	maxShift := sizeClassShift(p.MaxBufferSize)
	for shift := minBufferSizeShift; shift <= maxShift; shift++ {
		size := 1 << shift
		p.classes = append(p.classes, pool.NewPool(
			func() *[]byte {
				b := make([]byte, size)
				return &b
			},
			func(b *[]byte) { *b = (*b)[:cap(*b)] },
			nil,
		))
	}
	return p
}

func sizeClassShift(size int) int {
	if size <= 1<<minBufferSizeShift {
		return minBufferSizeShift
	}
	return bits.Len(uint(size - 1))
}

// Acquire returns a buffer of length minSize. The buffer must be released
// exactly once, see Buffer.Release and WithScoped.
func (p *BufferPool) Acquire(
	ctx context.Context,
	minSize int,
) (_ret *Buffer, _err error) {
	logger.Tracef(ctx, "Acquire(%d)", minSize)
	defer func() { logger.Tracef(ctx, "/Acquire(%d): %v", minSize, _err) }()
	if minSize < 0 || minSize > p.MaxBufferSize {
		return nil, ErrAllocation{Size: minSize, Max: p.MaxBufferSize}
	}
	class := sizeClassShift(minSize) - minBufferSizeShift
	backing := p.classes[class].Get()
	p.outstanding.Inc()
	p.acquired.Inc()
	return &Buffer{
		pool:    p,
		class:   class,
		backing: backing,
		data:    (*backing)[:minSize],
		untrack: p.Registry.Track(KindBuffer),
	}, nil
}

// AcquireCopy acquires a buffer and fills it with a copy of src.
func (p *BufferPool) AcquireCopy(
	ctx context.Context,
	src []byte,
) (*Buffer, error) {
	buf, err := p.Acquire(ctx, len(src))
	if err != nil {
		return nil, err
	}
	copy(buf.data, src)
	return buf, nil
}

func (p *BufferPool) put(b *Buffer) {
	p.classes[b.class].Put(b.backing)
	p.outstanding.Dec()
}

// Outstanding is the amount of acquired but not yet released buffers.
func (p *BufferPool) Outstanding() int64 {
	return p.outstanding.Load()
}

func (p *BufferPool) String() string {
	return "BufferPool(max:" + humanize.IBytes(uint64(p.MaxBufferSize)) + ")"
}

// Buffer is a move-only handle over a pooled byte slice.
type Buffer struct {
	pool     *BufferPool
	class    int
	backing  *[]byte
	data     []byte
	untrack  func()
	released atomic.Bool
}

// Bytes returns the payload. It must not be used after the buffer is
// released or moved.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Move transfers the ownership of the backing memory to a new handle; the
// old handle becomes empty and releasing it is a no-op.
func (b *Buffer) Move() *Buffer {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return nil
	}
	moved := &Buffer{
		pool:    b.pool,
		class:   b.class,
		backing: b.backing,
		data:    b.data,
		untrack: b.untrack,
	}
	b.backing, b.data, b.untrack = nil, nil, nil
	return moved
}

func (b *Buffer) IsReleased() bool {
	return b == nil || b.released.Load()
}

// Release returns the memory to the pool. Only the first call has an
// effect, the following ones return ErrAlreadyReleased.
func (b *Buffer) Release() error {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	b.pool.put(b)
	b.untrack()
	b.backing, b.data, b.untrack = nil, nil, nil
	return nil
}

// WithScoped acquires a buffer for the duration of fn. The buffer is
// released when fn returns or panics, unless fn moved it out.
func WithScoped(
	ctx context.Context,
	p *BufferPool,
	minSize int,
	fn func(*Buffer) error,
) error {
	buf, err := p.Acquire(ctx, minSize)
	if err != nil {
		return err
	}
	defer buf.Release()
	return fn(buf)
}
