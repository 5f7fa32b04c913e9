package bitfield

import "math/big"

var one = big.NewInt(1)

// Mask returns the mask with every bit in [start, stop) set. It is the zero
// mask when stop <= start.
func Mask(start, stop uint) *big.Int {
	if stop <= start {
		return new(big.Int)
	}
	m := new(big.Int).Lsh(one, stop-start)
	m.Sub(m, one)
	return m.Lsh(m, start)
}

// lowMask returns the mask with the low n bits set.
func lowMask(n uint) *big.Int { return Mask(0, n) }

// getBits returns (x >> offset) & mask.
func getBits(x *big.Int, offset uint, mask *big.Int) *big.Int {
	v := new(big.Int).Rsh(x, offset)
	if mask != nil {
		v.And(v, mask)
	}
	return v
}

// putBits returns x with the bits under mask << offset replaced by val.
func putBits(x *big.Int, offset uint, mask, val *big.Int) *big.Int {
	clear := new(big.Int).Lsh(mask, offset)
	out := new(big.Int).AndNot(x, clear)
	v := new(big.Int).And(val, mask)
	return out.Or(out, v.Lsh(v, offset))
}
