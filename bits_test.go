package bitfield

import (
	"math/big"
	"testing"

	"github.com/zeebo/assert"
	"github.com/zeebo/pcg"
)

func TestPacked(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		p := NewPacked(make([]byte, 2), 5)

		p.Put(0, big.NewInt(1))
		p.Put(1, big.NewInt(2))
		p.Put(2, big.NewInt(3))

		assert.Equal(t, p.Len(), uint(3))
		assert.Equal(t, p.Get(0).Int64(), 1)
		assert.Equal(t, p.Get(1).Int64(), 2)
		assert.Equal(t, p.Get(2).Int64(), 3)
	})

	t.Run("Wide", func(t *testing.T) {
		p := NewPacked(make([]byte, 3*100/8+1), 100)
		x := new(big.Int).Lsh(big.NewInt(0xabc), 88)

		p.Put(1, x)
		assert.Equal(t, p.Get(0).Sign(), 0)
		assert.Equal(t, p.Get(1).Cmp(x), 0)
		assert.Equal(t, p.Get(2).Sign(), 0)
	})

	t.Run("Truncates", func(t *testing.T) {
		p := NewPacked(make([]byte, 1), 4)

		p.Put(0, big.NewInt(0x1f))
		assert.Equal(t, p.Get(0).Int64(), 0xf)
		assert.Equal(t, p.Get(1).Int64(), 0)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, NewPacked(nil, 8).Len(), uint(0))
		assert.Equal(t, NewPacked(make([]byte, 4), 0).Len(), uint(0))
	})

	t.Run("Fuzz", func(t *testing.T) {
		for bits := uint(1); bits <= 130; bits++ {
			exp := make([]*big.Int, 10)
			for i := range exp {
				exp[i] = new(big.Int)
			}
			p := NewPacked(make([]byte, (bits*10+7)/8), bits)
			check := func() {
				t.Helper()
				for i := uint(0); i < 10; i++ {
					assert.Equal(t, exp[i].Cmp(p.Get(i)), 0)
				}
			}

			for j := 0; j < 100; j++ {
				i := uint(pcg.Uint32n(10))
				v := randBits(bits)
				p.Put(i, v)
				exp[i] = v
				check()
			}
		}
	})
}

// randBits returns a random value with at most bits bits.
func randBits(bits uint) *big.Int {
	v := new(big.Int)
	for v.BitLen() < int(bits) {
		v.Lsh(v, 64)
		v.Or(v, new(big.Int).SetUint64(pcg.Uint64()))
	}
	return v.And(v, lowMask(bits))
}

func BenchmarkPacked(b *testing.B) {
	b.Run("Get", func(b *testing.B) {
		p := NewPacked(make([]byte, 4096), 11)
		for i := 0; i < b.N; i++ {
			p.Get(uint(pcg.Uint32n(4096 * 8 / 11)))
		}
	})

	b.Run("Put", func(b *testing.B) {
		p := NewPacked(make([]byte, 4096), 11)
		zero := new(big.Int)
		for i := 0; i < b.N; i++ {
			p.Put(uint(pcg.Uint32n(4096*8/11)), zero)
		}
	})
}
