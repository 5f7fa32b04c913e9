package bitfield

import (
	"fmt"
	"strings"
	"unsafe"
)

// Formatter renders a view and its fields as nested, indented text. Fields
// deeper than MaxIndent are rendered flat.
type Formatter struct {
	MaxIndent  int
	IndentStep int
}

// DefaultFormatter is the formatter String uses.
var DefaultFormatter = Formatter{MaxIndent: 20, IndentStep: 2}

// Format renders v starting at the given indent. With noIndentStart the
// output starts on a new line, as it does for a nested field.
func (f Formatter) Format(v *View, indent int, noIndentStart bool) string {
	var b strings.Builder
	f.element(&b, v, indent, noIndentStart)
	return b.String()
}

func (f Formatter) element(b *strings.Builder, v *View, indent int, noIndentStart bool) {
	d := v.Descriptor()
	l := d.Layout()

	if l.Len() > 0 && indent < f.MaxIndent {
		if children, ok := f.children(v, l); ok {
			if noIndentStart {
				b.WriteByte('\n')
			}
			pad(b, indent)
			f.summary(b, v)

			width := 0
			for _, name := range l.Names() {
				if len(name) > width {
					width = len(name)
				}
			}
			for i, name := range l.Names() {
				b.WriteByte('\n')
				pad(b, indent+f.IndentStep)
				fmt.Fprintf(b, "%-*s = ", width, name)
				f.element(b, children[i], indent+2*f.IndentStep, true)
			}

			b.WriteByte('\n')
			pad(b, indent)
			b.WriteByte('>')
			return
		}
	}

	if !noIndentStart {
		pad(b, indent)
	}
	f.summary(b, v)
	b.WriteByte('>')
}

// children reads every field of the layout, reporting false if any of them
// can not be read.
func (f Formatter) children(v *View, l *Layout) ([]*View, bool) {
	children := make([]*View, 0, l.Len())
	for _, name := range l.Names() {
		c, err := v.Field(name)
		if err != nil {
			return nil, false
		}
		children = append(children, c)
	}
	return children, true
}

// summary writes the opening of an element without its closing bracket.
func (f Formatter) summary(b *strings.Builder, v *View) {
	x := v.Value()
	fmt.Fprintf(b, "<%d == 0x%0*X == (0b%0*b", x, int(2*v.Len()), x, int(v.BitLen()), x)
	if m := v.Descriptor().Mask(); m != nil {
		fmt.Fprintf(b, " & 0b%b", m)
	}
	b.WriteByte(')')
}

func pad(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
	}
}

// String renders the view with DefaultFormatter.
func (v *View) String() string { return DefaultFormatter.Format(v, 0, false) }

// GoString renders the view as Name(x=0xHEX, base=16). Linked views are
// wrapped in angle brackets with their address in upper case hex.
func (v *View) GoString() string {
	s := fmt.Sprintf("%s(x=0x%0*X, base=16)", v.desc().name, int(2*v.Len()), v.Value())
	if v.parent != nil {
		return fmt.Sprintf("<%s at 0x%X>", s, uintptr(unsafe.Pointer(v)))
	}
	return s
}
