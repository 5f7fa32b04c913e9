// Package bitfield provides named, mutable views over the bits of an
// arbitrary width unsigned integer.
package bitfield

import (
	"math/big"
	"strings"

	"golang.org/x/exp/constraints"
)

// View is a bit-field value. A root view owns its value. A view returned by
// slicing is linked to the view it was sliced from: reads recompute its bits
// from the parent and writes go through to the parent, up to the root.
//
// Views are not safe for concurrent use. Writes through different views of
// the same root must be serialized by the caller. The zero View is an
// unsized, unmasked root holding 0.
type View struct {
	typ    *Descriptor
	value  *big.Int
	parent *View
	offset uint
}

// New returns a root view of the descriptor holding x masked by the
// descriptor's mask. A nil x is 0.
func (d *Descriptor) New(x *big.Int) (*View, error) {
	v := &View{typ: d, value: new(big.Int)}
	if x == nil {
		return v, nil
	}
	if x.Sign() < 0 {
		return nil, NegativeError.New("%s could not be negative: %v", d.name, x)
	}
	v.value.Set(x)
	v.applyMask(v.value)
	return v, nil
}

// Parse returns a root view holding the integer in s written in the given
// base. Base 0 uses the prefix of s to pick the base.
func (d *Descriptor) Parse(s string, base int) (*View, error) {
	if base != 0 && (base < 2 || base > 36) {
		return nil, ParseError.New("invalid base %d", base)
	}
	x, ok := new(big.Int).SetString(strings.TrimSpace(s), base)
	if !ok {
		return nil, ParseError.New("invalid literal for base %d: %q", base, s)
	}
	return d.New(x)
}

// Uint64 returns a root view holding x.
func (d *Descriptor) Uint64(x uint64) *View {
	v, _ := d.New(new(big.Int).SetUint64(x))
	return v
}

// Of returns a root view of d holding x.
func Of[U constraints.Unsigned](d *Descriptor, x U) *View {
	return d.Uint64(uint64(x))
}

// As returns the value of v as a U, or an OverflowError if it does not fit.
func As[U constraints.Unsigned](v *View) (U, error) {
	width := new(big.Int).SetUint64(uint64(^U(0))).BitLen()
	x := v.Value()
	if x.BitLen() > width {
		return 0, OverflowError.New("%v does not fit in %d bits", x, width)
	}
	return U(x.Uint64()), nil
}

func (v *View) desc() *Descriptor {
	if v.typ == nil {
		return plain
	}
	return v.typ
}

// Descriptor returns the shape of the view.
func (v *View) Descriptor() *Descriptor { return v.desc() }

// Linked reports if the view aliases the bits of a parent view.
func (v *View) Linked() bool { return v.parent != nil }

// Offset returns the position of the view's first bit in its parent.
func (v *View) Offset() uint { return v.offset }

func (v *View) applyMask(x *big.Int) {
	if m := v.desc().mask; m != nil {
		x.And(x, m)
	}
}

// Value returns a copy of the current value. A linked view recomputes its
// bits from the parent and refreshes its own copy.
func (v *View) Value() *big.Int {
	if v.parent != nil {
		v.value = getBits(v.parent.Value(), v.offset, v.desc().mask)
	}
	if v.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.value)
}

// Int is Value.
func (v *View) Int() *big.Int { return v.Value() }

// Bool reports if any bit is set.
func (v *View) Bool() bool { return v.Value().Sign() != 0 }

// SetValue replaces the whole value. A sized view refuses values wider than
// its size. The value is masked and, for a linked view, written through to the
// parent.
func (v *View) SetValue(x *big.Int) error {
	if x.Sign() < 0 {
		return NegativeError.New("%s could not be negative: %v", v.desc().name, x)
	}
	if size, ok := v.desc().Size(); ok && uint(x.BitLen()) > size {
		return OverflowError.New("data value to set is bigger than bitfield size: %d > %d",
			x.BitLen(), size)
	}
	v.store(new(big.Int).Set(x))
	return nil
}

// store masks x, takes ownership of it, and writes it through the parent
// chain.
func (v *View) store(x *big.Int) {
	d := v.desc()
	v.applyMask(x)
	if v.parent != nil {
		v.parent.store(putBits(v.parent.Value(), v.offset, d.mask, x))
	}
	v.value = x
}

// BitLen returns the fixed size, or the bit length of the value for an
// unsized view.
func (v *View) BitLen() uint {
	if size, ok := v.desc().Size(); ok {
		return size
	}
	return uint(v.Value().BitLen())
}

// Len returns the length in bytes, at least 1.
func (v *View) Len() uint {
	if n := (v.BitLen() + 7) / 8; n > 0 {
		return n
	}
	return 1
}

// Fields returns the names of the view's fields in lexical order.
func (v *View) Fields() []string { return v.desc().Fields() }

// Copy returns a root view with the same value and shape. Copies never alias.
func (v *View) Copy() *View {
	return &View{typ: v.desc(), value: v.Value()}
}

// Equal reports if both views hold the same value. Views of different types
// must also have equal layouts and byte lengths.
func (v *View) Equal(o *View) bool {
	if v.Value().Cmp(o.Value()) != 0 {
		return false
	}
	if v.desc() == o.desc() {
		return true
	}
	return v.desc().layout.Equal(o.desc().layout) && v.Len() == o.Len()
}

// EqualInt reports if the view holds x.
func (v *View) EqualInt(x *big.Int) bool { return v.Value().Cmp(x) == 0 }

// Cmp compares the value with x like big.Int.Cmp.
func (v *View) Cmp(x *big.Int) int { return v.Value().Cmp(x) }
