package bitfield

import "math/big"

// bitwiseResult applies op to the value and x, which is taken in two's
// complement when negative, and masks the result. Only an unmasked view can
// end up negative.
func (v *View) bitwiseResult(x *big.Int, op func(z, x, y *big.Int) *big.Int) (*big.Int, error) {
	cur := v.Value()
	op(cur, cur, x)
	v.applyMask(cur)
	if cur.Sign() < 0 {
		return nil, NegativeError.New("%s could not be negative: %v", v.desc().name, cur)
	}
	return cur, nil
}

// root returns a new unlinked view of the same type holding x.
func (v *View) root(x *big.Int) *View {
	r := &View{typ: v.desc(), value: x}
	r.applyMask(r.value)
	return r
}

//
// bitwise, in place
//

func (v *View) SetAnd(x *big.Int) error { return v.bitwise(x, (*big.Int).And) }
func (v *View) SetOr(x *big.Int) error  { return v.bitwise(x, (*big.Int).Or) }
func (v *View) SetXor(x *big.Int) error { return v.bitwise(x, (*big.Int).Xor) }

func (v *View) bitwise(x *big.Int, op func(z, x, y *big.Int) *big.Int) error {
	cur, err := v.bitwiseResult(x, op)
	if err != nil {
		return err
	}
	v.store(cur)
	return nil
}

//
// bitwise, new value
//

// And returns a new root view of the same type holding v & x.
func (v *View) And(x *big.Int) (*View, error) { return v.bitwiseNew(x, (*big.Int).And) }
func (v *View) Or(x *big.Int) (*View, error)  { return v.bitwiseNew(x, (*big.Int).Or) }
func (v *View) Xor(x *big.Int) (*View, error) { return v.bitwiseNew(x, (*big.Int).Xor) }

func (v *View) bitwiseNew(x *big.Int, op func(z, x, y *big.Int) *big.Int) (*View, error) {
	cur, err := v.bitwiseResult(x, op)
	if err != nil {
		return nil, err
	}
	return v.root(cur), nil
}

//
// additive
//

// SetAdd adds x, which may be negative, in place. The sum must not be negative
// and must fit a sized view.
func (v *View) SetAdd(x *big.Int) error {
	sum := new(big.Int).Add(v.Value(), x)
	if sum.Sign() < 0 {
		return NegativeError.New("%s could not be negative: %v", v.desc().name, sum)
	}
	if size, ok := v.desc().Size(); ok && uint(sum.BitLen()) > size {
		return OverflowError.New("result value %v not fit in data length (%d bits)", sum, size)
	}
	v.store(sum)
	return nil
}

func (v *View) SetSub(x *big.Int) error { return v.SetAdd(new(big.Int).Neg(x)) }

// Add returns v + x. When the sum fits, it is returned as a new root view of
// the same type. When v is sized and the sum does not fit, the view is nil and
// the bare sum is returned instead. A negative sum is an error.
func (v *View) Add(x *big.Int) (*View, *big.Int, error) {
	sum := new(big.Int).Add(v.Value(), x)
	if sum.Sign() < 0 {
		return nil, nil, NegativeError.New("%s could not be negative: %v is bigger than %v",
			v.desc().name, new(big.Int).Neg(x), v.Value())
	}
	if size, ok := v.desc().Size(); ok && uint(sum.BitLen()) > size {
		return nil, sum, nil
	}
	return v.root(sum), nil, nil
}

func (v *View) Sub(x *big.Int) (*View, *big.Int, error) { return v.Add(new(big.Int).Neg(x)) }

//
// integer results
//

func (v *View) Mul(x *big.Int) *big.Int { return new(big.Int).Mul(v.Value(), x) }
func (v *View) Lsh(n uint) *big.Int     { return new(big.Int).Lsh(v.Value(), n) }
func (v *View) Rsh(n uint) *big.Int     { return new(big.Int).Rsh(v.Value(), n) }
