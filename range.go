package bitfield

import "fmt"

type rangeKind uint8

const (
	bounded rangeKind = iota
	open
	whole
)

// Range is a half open range of bit positions. A bounded range covers
// [start, stop), an open range covers every bit from start up to the size of
// the field, and the whole range selects the field itself.
type Range struct {
	kind  rangeKind
	start uint
	stop  uint
}

func Bit(i uint) Range            { return Range{kind: bounded, start: i, stop: i + 1} }
func Span(start, stop uint) Range { return Range{kind: bounded, start: start, stop: stop} }
func From(start uint) Range       { return Range{kind: open, start: start} }
func Whole() Range                { return Range{kind: whole} }

func (r Range) Start() uint        { return r.start }
func (r Range) Stop() (uint, bool) { return r.stop, r.kind == bounded }
func (r Range) Open() bool         { return r.kind == open }
func (r Range) IsWhole() bool      { return r.kind == whole }

// Valid reports if the range selects at least one bit.
func (r Range) Valid() bool { return r.kind != bounded || r.start < r.stop }

// Less orders ranges by start bit. An open range sorts after a bounded range
// with the same start so that it is always the last entry it can be.
func (r Range) Less(o Range) bool {
	if r.start != o.start {
		return r.start < o.start
	}
	return r.kind < o.kind
}

// claim returns the occupancy bits the range reserves in a layout. An open
// range only claims its first bit: its extent depends on the field size.
func (r Range) claim() Range {
	if r.kind == open {
		return Bit(r.start)
	}
	return r
}

func (r Range) String() string {
	switch r.kind {
	case open:
		return fmt.Sprintf("%d:", r.start)
	case whole:
		return ":"
	}
	if r.stop == r.start+1 {
		return fmt.Sprint(r.start)
	}
	return fmt.Sprintf("%d:%d", r.start, r.stop)
}
