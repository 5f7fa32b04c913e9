package bitfield

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/zeebo/mon"
)

//
// reads
//

// Get returns a view of the bits selected by key: a field name, a bit index,
// a Range, or a [2]int pair.
func (v *View) Get(key interface{}) (*View, error) {
	switch k := key.(type) {
	case string:
		return v.Field(k)
	case Range:
		return v.Slice(k)
	}
	if i, ok := toIndex(key); ok {
		return v.Bit(i)
	}
	if r, ok := toPair(key); ok {
		return v.Slice(r)
	}
	return nil, IndexError.New("invalid key %#v", key)
}

// Bit returns a one bit view of bit i.
func (v *View) Bit(i uint) (*View, error) {
	return v.slice(Bit(i), nil, fmt.Sprintf("%s_index_%d", v.desc().name, i))
}

// Field returns a view of the named field. A nested field carries its own
// layout, so lookups can be chained.
func (v *View) Field(name string) (*View, error) {
	f, err := v.lookup(name)
	if err != nil {
		return nil, err
	}
	return v.slice(f.Range, f.Nested, name)
}

// Slice returns a view of the bits in r linked to v. The whole range returns a
// detached copy instead.
func (v *View) Slice(r Range) (*View, error) {
	if !r.Valid() {
		return nil, IndexError.New("invalid range %v", r)
	}
	return v.slice(r, nil, "")
}

var sliceThunk mon.Thunk

func (v *View) slice(r Range, layout *Layout, name string) (c *View, err error) {
	if r.IsWhole() {
		return v.Copy(), nil
	}

	timer := sliceThunk.Start()
	defer timer.Stop(&err)

	d := v.desc()
	start := r.Start()
	size, sized := d.Size()
	if sized && start > size {
		return nil, IndexError.New("index %v is out of data length %d", r, size)
	}

	stop, bounded := r.Stop()
	if !bounded || sized && stop > size {
		stop = v.BitLen()
	}
	if stop <= start {
		return nil, IndexError.New("slice %v of %s is empty", r, d.name)
	}

	if name == "" {
		name = sliceName(d.name, r)
	}

	mask := Mask(start, stop)
	if d.mask != nil {
		mask.And(mask, d.mask)
	}
	childMask := new(big.Int).Rsh(mask, start)
	child := d.reg.derive(d, mask, name, childMask, stop-start, layout)

	return &View{
		typ:    child,
		value:  getBits(v.Value(), start, childMask),
		parent: v,
		offset: start,
	}, nil
}

func sliceName(parent string, r Range) string {
	if stop, ok := r.Stop(); ok {
		return fmt.Sprintf("%s_slice_%d_%d", parent, r.Start(), stop)
	}
	return fmt.Sprintf("%s_slice_%d_end", parent, r.Start())
}

func (v *View) lookup(name string) (Field, error) {
	if strings.HasPrefix(name, "_") {
		return Field{}, ReservedKeyError.New("%q is not a field name", name)
	}
	l := v.desc().layout
	if l == nil {
		return Field{}, IndexError.New("mapping is not available")
	}
	f, ok := l.Lookup(name)
	if !ok {
		return Field{}, IndexError.New("%s", name)
	}
	return f, nil
}

//
// writes
//

// Set writes value into the bits selected by key, which is any key Get
// accepts. The value must be an integer.
func (v *View) Set(key, value interface{}) error {
	x, err := toInt(value)
	if err != nil {
		return err
	}

	switch k := key.(type) {
	case string:
		return v.SetField(k, x)
	case Range:
		return v.SetSlice(k, x)
	}
	if i, ok := toIndex(key); ok {
		return v.SetBit(i, x)
	}
	if r, ok := toPair(key); ok {
		return v.SetSlice(r, x)
	}
	return IndexError.New("invalid key %#v", key)
}

func (v *View) SetBit(i uint, x *big.Int) error { return v.SetSlice(Bit(i), x) }

// SetField writes x into the named field. A nested field is written as a
// whole.
func (v *View) SetField(name string, x *big.Int) error {
	f, err := v.lookup(name)
	if err != nil {
		return err
	}
	return v.SetSlice(f.Range, x)
}

// SetSlice writes x into the bits in r, keeping every other bit. The whole
// range is SetValue.
func (v *View) SetSlice(r Range, x *big.Int) error {
	if !r.Valid() {
		return IndexError.New("invalid range %v", r)
	}
	if x.Sign() < 0 {
		return NegativeError.New("%s could not be negative: %v", v.desc().name, x)
	}
	if r.IsWhole() {
		return v.SetValue(x)
	}

	d := v.desc()
	start := r.Start()
	size, sized := d.Size()
	stop, bounded := r.Stop()
	if sized && bounded && stop > size {
		return OverflowError.New("stop index is out of data length: %d > %d", stop, size)
	}
	if !bounded {
		stop = v.BitLen()
	}
	if stop <= start {
		return IndexError.New("slice %v of %s is empty", r, d.name)
	}
	if uint(x.BitLen()) > stop-start {
		return OverflowError.New("data size is bigger than slice: %d > %d", x.BitLen(), stop-start)
	}

	mask := Mask(start, stop)
	if d.mask != nil {
		mask.And(mask, d.mask)
	}
	cur := v.Value()
	cur.AndNot(cur, mask)
	cur.Or(cur, new(big.Int).Lsh(x, start))
	v.store(cur)
	return nil
}

// toInt accepts a *big.Int or any Go integer.
func toInt(value interface{}) (*big.Int, error) {
	if x, ok := value.(*big.Int); ok {
		if x == nil {
			return nil, TypeError.New("value could be set only as integer: nil")
		}
		return new(big.Int).Set(x), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, TypeError.New("value could be set only as integer: %#v", value)
}
