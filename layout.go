package bitfield

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/zeebo/mon"
)

// IndexKey is the reserved key a nested Def uses to give its own range inside
// the parent.
const IndexKey = "_index_"

// Def is an unvalidated layout definition mapping field names to bit
// positions. Values may be
//
//	an integer               a single bit
//	[2]int or []int{a, b}    the bits [a, b)
//	Range                    built with Bit, Span or From
//	Def                      a nested layout, placed by its IndexKey entry
type Def map[string]interface{}

// Field is one validated entry of a Layout. Nested is set when the field has
// its own layout, whose positions are relative to the start of the field.
type Field struct {
	Name   string
	Range  Range
	Nested *Layout
}

// Layout is a validated, non-overlapping set of fields ordered by start bit.
type Layout struct {
	fields []Field
	index  map[string]int
	mask   *big.Int
}

func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.fields)
}

// Fields returns the fields in ascending start order.
func (l *Layout) Fields() []Field {
	if l == nil {
		return nil
	}
	return append([]Field(nil), l.fields...)
}

// Names returns the field names in ascending start order.
func (l *Layout) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.Name
	}
	return names
}

func (l *Layout) Lookup(name string) (Field, bool) {
	if l == nil {
		return Field{}, false
	}
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Mask returns the occupancy mask: the union of the bits claimed by every
// field.
func (l *Layout) Mask() *big.Int {
	if l == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(l.mask)
}

// Equal reports if both layouts have the same fields in the same order.
func (l *Layout) Equal(o *Layout) bool {
	if l.Len() != o.Len() {
		return false
	}
	for i := range l.Len() {
		a, b := l.fields[i], o.fields[i]
		if a.Name != b.Name || a.Range != b.Range || !a.Nested.Equal(b.Nested) {
			return false
		}
	}
	return true
}

func (l *Layout) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range l.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, f.Range)
		if f.Nested != nil {
			fmt.Fprintf(&b, " %v", f.Nested)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// Validate checks a definition and returns its canonical Layout.
func Validate(def Def) (l *Layout, err error) {
	defer mon.Start().Stop(&err)

	if _, ok := def[IndexKey]; ok {
		return nil, ReservedKeyError.New("%s is reserved for slicing nested fields", IndexKey)
	}
	return validate(def)
}

type entry struct {
	name   string
	rng    Range
	nested Def
}

func validate(def Def) (*Layout, error) {
	var entries []entry
	var unexpected []string

	for name, val := range def {
		if name == IndexKey {
			continue
		}
		e, ok := toEntry(name, val)
		if !ok {
			unexpected = append(unexpected, fmt.Sprintf("%s: %#v", name, val))
			continue
		}
		entries = append(entries, e)
	}

	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, LayoutShapeError.Wrap(&ShapeError{Entries: unexpected})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].rng == entries[j].rng {
			return entries[i].name < entries[j].name
		}
		return entries[i].rng.Less(entries[j].rng)
	})

	l := &Layout{
		fields: make([]Field, 0, len(entries)),
		index:  make(map[string]int, len(entries)),
		mask:   new(big.Int),
	}

	var end string
	for _, e := range entries {
		if end != "" {
			return nil, LayoutOrderError.New(
				"mapping after non-ending slice index %s: first key %s", end, e.name)
		}

		claim := e.rng.claim()
		stop, _ := claim.Stop()
		bits := Mask(claim.Start(), stop)
		if collision := new(big.Int).And(l.mask, bits); collision.Sign() != 0 {
			return nil, LayoutOverlapError.Wrap(&CollisionError{Key: e.name, Bits: collision})
		}
		l.mask.Or(l.mask, bits)

		f := Field{Name: e.name, Range: e.rng}
		if e.nested != nil {
			nested, err := validate(e.nested)
			if err != nil {
				return nil, err
			}
			f.Nested = nested
		}
		if e.rng.Open() {
			end = e.name
		}

		l.index[e.name] = len(l.fields)
		l.fields = append(l.fields, f)
	}

	return l, nil
}

// toEntry converts one definition value into an entry, reporting false if the
// name or the value is not a recognized shape.
func toEntry(name string, val interface{}) (entry, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return entry{}, false
	}

	switch v := val.(type) {
	case Range:
		if v.IsWhole() || !v.Valid() {
			return entry{}, false
		}
		return entry{name: name, rng: v}, true

	case Def:
		return nestedEntry(name, v)

	case map[string]interface{}:
		return nestedEntry(name, Def(v))
	}

	if i, ok := toIndex(val); ok {
		return entry{name: name, rng: Bit(i)}, true
	}
	if r, ok := toPair(val); ok {
		return entry{name: name, rng: r}, true
	}
	return entry{}, false
}

func nestedEntry(name string, def Def) (entry, bool) {
	idx, ok := def[IndexKey]
	if !ok {
		return entry{}, false
	}
	r, ok := idx.(Range)
	if !ok {
		r, ok = toPair(idx)
	}
	if !ok || r.Open() || r.IsWhole() || !r.Valid() {
		return entry{}, false
	}
	return entry{name: name, rng: r, nested: def}, true
}

// toIndex accepts any non-negative integer.
func toIndex(val interface{}) (uint, bool) {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, false
		}
		return uint(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uint(rv.Uint()), true
	}
	return 0, false
}

// toPair accepts a two element array or slice of integers a < b.
func toPair(val interface{}) (Range, bool) {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice || rv.Len() != 2 {
		return Range{}, false
	}
	start, ok := toIndex(rv.Index(0).Interface())
	if !ok {
		return Range{}, false
	}
	stop, ok := toIndex(rv.Index(1).Interface())
	if !ok || start >= stop {
		return Range{}, false
	}
	return Span(start, stop), true
}
