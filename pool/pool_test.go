package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolResetsOnPut(t *testing.T) {
	allocated := 0
	p := NewPool(
		func() *[]byte {
			allocated++
			b := make([]byte, 0, 16)
			return &b
		},
		func(b *[]byte) { *b = (*b)[:0] },
		nil,
	)

	b := p.Get()
	*b = append(*b, 1, 2, 3)
	p.Put(b)

	b = p.Get()
	require.Len(t, *b, 0)
	require.GreaterOrEqual(t, allocated, 1)
	p.Put(b, nil)
}

func TestPoolDisableReuse(t *testing.T) {
	resets := 0
	p := NewPool(
		func() *int { v := 0; return &v },
		func(*int) { resets++ },
		nil,
	)
	p.DisableReuse = true
	p.Put(p.Get())
	require.Zero(t, resets)
}
