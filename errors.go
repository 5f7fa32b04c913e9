package bitfield

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zeebo/errs"
)

// error classes. use Class.Has to check the kind of a returned error.
var (
	LayoutShapeError    = errs.Class("layout shape")
	LayoutOverlapError  = errs.Class("layout overlap")
	LayoutOrderError    = errs.Class("layout order")
	ReservedKeyError    = errs.Class("reserved key")
	IndexError          = errs.Class("index")
	OverflowError       = errs.Class("overflow")
	NegativeError       = errs.Class("negative value")
	TypeError           = errs.Class("type mismatch")
	ParseError          = errs.Class("parse")
	UnserializableError = errs.Class("unserializable")
)

// ShapeError lists the layout entries that are not a recognized shape.
type ShapeError struct {
	Entries []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("mapping contains unexpected data: [%s]", strings.Join(e.Entries, ", "))
}

// CollisionError reports the bits a layout entry shares with the entries
// sorted before it.
type CollisionError struct {
	Key  string
	Bits *big.Int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("mapping key %s has intersection with other keys by mask %b", e.Key, e.Bits)
}
