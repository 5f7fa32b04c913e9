package bitfield

import (
	"math/big"
	"testing"

	"github.com/zeebo/assert"
)

func TestArith(t *testing.T) {
	t.Run("Bitwise", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)

		w, err := v.And(big.NewInt(0xff))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Int64(), 0x34)
		assert.Equal(t, w.Descriptor(), v.Descriptor())
		assert.Equal(t, v.Value().Int64(), 0x1234)

		w, err = v.Or(big.NewInt(0x10000f))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Int64(), 0x123f)

		w, err = v.Xor(big.NewInt(0x1234))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Sign(), 0)

		w, err = v.And(big.NewInt(-5))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Int64(), 0x1230)

		w, err = v.Or(big.NewInt(-2))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Int64(), 0xfffe)

		free := mustDeclare(t, Decl{Name: "Free"}).Uint64(1)
		w, err = free.And(big.NewInt(-2))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Sign(), 0)

		_, err = free.Or(big.NewInt(-4))
		assert.That(t, NegativeError.Has(err))
		assert.That(t, NegativeError.Has(free.SetXor(big.NewInt(-1))))
		assert.Equal(t, free.Value().Int64(), 1)
	})

	t.Run("BitwiseInPlace", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)
		hi := mustGet(t, v, "hi")

		assert.NoError(t, hi.SetOr(big.NewInt(0xc0)))
		assert.Equal(t, v.Value().Int64(), 0xd234)

		assert.NoError(t, hi.SetAnd(big.NewInt(0x0f)))
		assert.Equal(t, v.Value().Int64(), 0x0234)

		assert.NoError(t, hi.SetXor(big.NewInt(0xff)))
		assert.Equal(t, v.Value().Int64(), 0xfd34)

		assert.NoError(t, hi.SetAnd(big.NewInt(-2)))
		assert.Equal(t, v.Value().Int64(), 0xfc34)

		assert.NoError(t, hi.SetOr(big.NewInt(-0x100)))
		assert.Equal(t, v.Value().Int64(), 0xfc34)
	})

	t.Run("Add", func(t *testing.T) {
		v := mustDeclare(t, Decl{Name: "Byte", Size: 8}).Uint64(200)

		w, sum, err := v.Add(big.NewInt(55))
		assert.NoError(t, err)
		assert.Nil(t, sum)
		assert.Equal(t, w.Value().Int64(), 255)

		w, sum, err = v.Add(big.NewInt(56))
		assert.NoError(t, err)
		assert.Nil(t, w)
		assert.Equal(t, sum.Int64(), 256)

		_, _, err = v.Sub(big.NewInt(201))
		assert.That(t, NegativeError.Has(err))

		w, _, err = v.Sub(big.NewInt(100))
		assert.NoError(t, err)
		assert.Equal(t, w.Value().Int64(), 100)
		assert.Equal(t, v.Value().Int64(), 200)
	})

	t.Run("AddUnsized", func(t *testing.T) {
		v := mustDeclare(t, Decl{Name: "Free"}).Uint64(255)

		w, sum, err := v.Add(big.NewInt(1))
		assert.NoError(t, err)
		assert.Nil(t, sum)
		assert.Equal(t, w.Value().Int64(), 256)
	})

	t.Run("AddInPlace", func(t *testing.T) {
		v := statusType(t).Uint64(0x12ff)
		lo := mustGet(t, v, "lo")

		assert.That(t, OverflowError.Has(lo.SetAdd(big.NewInt(1))))
		assert.Equal(t, v.Value().Int64(), 0x12ff)

		assert.NoError(t, lo.SetSub(big.NewInt(0xf)))
		assert.Equal(t, v.Value().Int64(), 0x12f0)

		assert.That(t, NegativeError.Has(lo.SetSub(big.NewInt(0xf1))))

		assert.NoError(t, lo.SetAdd(big.NewInt(-0xf0)))
		assert.Equal(t, v.Value().Int64(), 0x1200)
	})

	t.Run("Integer", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)

		assert.Equal(t, v.Mul(big.NewInt(16)).Int64(), 0x12340)
		assert.Equal(t, v.Lsh(20).Text(16), "123400000")
		assert.Equal(t, v.Rsh(8).Int64(), 0x12)
		assert.Equal(t, v.Value().Int64(), 0x1234)
	})
}
