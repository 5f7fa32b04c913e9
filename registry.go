package bitfield

import (
	"math/big"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/zeebo/mon"
	"go.uber.org/zap"
)

// Descriptor is the shared, immutable shape of a family of views: a name, an
// optional fixed size and mask, and an optional layout of named fields.
type Descriptor struct {
	id     uint64
	name   string
	size   uint     // 0 when unsized
	mask   *big.Int // nil when unmasked
	layout *Layout
	parent *Descriptor
	reg    *Registry
}

func (d *Descriptor) Name() string   { return d.name }
func (d *Descriptor) String() string { return d.name }

// Size returns the fixed size in bits, if the descriptor has one.
func (d *Descriptor) Size() (uint, bool) { return d.size, d.size > 0 }

// Mask returns a copy of the fixed mask, or nil.
func (d *Descriptor) Mask() *big.Int {
	if d.mask == nil {
		return nil
	}
	return new(big.Int).Set(d.mask)
}

func (d *Descriptor) Layout() *Layout { return d.layout }

// Parent returns the descriptor this one was derived from, or nil for a
// declared type.
func (d *Descriptor) Parent() *Descriptor { return d.parent }

// Field returns the named field of the layout.
func (d *Descriptor) Field(name string) (Field, bool) { return d.layout.Lookup(name) }

// Fields returns the field names in lexical order.
func (d *Descriptor) Fields() []string {
	names := d.layout.Names()
	sort.Strings(names)
	return names
}

// Decl declares a named bit-field type. A Size without a Mask implies the mask
// of Size low bits, and a Mask without a Size implies the bit length of the
// mask.
type Decl struct {
	Name   string
	Size   uint
	Mask   *big.Int
	Fields Def
}

type typeKey struct {
	parent *Descriptor
	mask   string
	name   string
}

// Registry creates descriptors and memoizes the ones derived by slicing. It
// lives as long as the views that use it, typically the whole process. It is
// safe for concurrent use.
type Registry struct {
	log *zap.Logger

	mu    sync.Mutex
	types map[typeKey]*Descriptor
}

type Option func(*Registry)

// WithLogger sets the logger used to report cache hits whose requested shape
// differs from the cached descriptor.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log:   zap.NewNop(),
		types: make(map[typeKey]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process wide registry used by Declare.
var Default = NewRegistry()

// plain describes the zero View.
var plain = &Descriptor{name: "BitField", reg: Default}

// Declare declares a type in the Default registry.
func Declare(decl Decl) (*Descriptor, error) { return Default.Declare(decl) }

// Declare validates the declaration and returns the descriptor of a new type.
// Every call starts a new family: views of two declared types never share
// derived descriptors.
func (r *Registry) Declare(decl Decl) (d *Descriptor, err error) {
	defer mon.Start().Stop(&err)

	if decl.Name == "" {
		return nil, TypeError.New("declared type needs a name")
	}

	size, mask := decl.Size, decl.Mask
	if mask != nil {
		if mask.Sign() <= 0 {
			return nil, TypeError.New("pre-defined mask must be positive: %v", mask)
		}
		mask = new(big.Int).Set(mask)
		if size == 0 {
			size = uint(mask.BitLen())
		}
	} else if size > 0 {
		mask = lowMask(size)
	}

	var layout *Layout
	if len(decl.Fields) > 0 {
		layout, err = Validate(decl.Fields)
		if err != nil {
			return nil, err
		}
		if size > 0 {
			if err := fits(layout, size); err != nil {
				return nil, err
			}
		}
	}

	return r.newDescriptor(decl.Name, size, mask, layout, nil), nil
}

// fits checks that every field of the layout starts inside size bits.
func fits(l *Layout, size uint) error {
	for _, f := range l.fields {
		if f.Range.Start() >= size {
			return IndexError.New("field %s at %v is out of data length %d", f.Name, f.Range, size)
		}
		if f.Nested != nil {
			stop, _ := f.Range.Stop()
			if err := fits(f.Nested, stop-f.Range.Start()); err != nil {
				return err
			}
		}
	}
	return nil
}

// descriptor ids are unique across registries.
var nextID atomic.Uint64

func (r *Registry) newDescriptor(name string, size uint, mask *big.Int, layout *Layout, parent *Descriptor) *Descriptor {
	d := &Descriptor{
		id:     nextID.Add(1),
		name:   name,
		size:   size,
		mask:   mask,
		layout: layout,
		parent: parent,
		reg:    r,
	}
	return d
}

// derive returns the descriptor of a slice of parent, keyed by the slice mask
// in the parent's coordinates and the slice name. On a hit the cached
// descriptor is returned as is, even if size or layout differ from the ones
// supplied: the same mask and name under the same parent is trusted to mean
// the same shape.
func (r *Registry) derive(parent *Descriptor, mask *big.Int, name string, childMask *big.Int, size uint, layout *Layout) *Descriptor {
	key := typeKey{parent: parent, mask: mask.Text(16), name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.types[key]; ok {
		if d.size != size || !d.layout.Equal(layout) {
			r.log.Warn("descriptor cache hit with a different shape",
				zap.String("parent", parent.name),
				zap.String("name", name),
				zap.String("mask", key.mask),
				zap.Uint("size", d.size),
				zap.Uint("requested_size", size),
				zap.Stringer("layout", d.layout),
				zap.Stringer("requested_layout", layout))
		}
		return d
	}

	d := r.newDescriptor(name, size, childMask, layout, parent)
	r.types[key] = d
	return d
}

// Len returns the number of derived descriptors in the cache.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.types)
}
