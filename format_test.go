package bitfield

import (
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"github.com/zeebo/assert"
)

func TestFormat(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)

		assert.Equal(t, v.String(), ""+
			"<4660 == 0x1234 == (0b0001001000110100 & 0b1111111111111111)\n"+
			"  lo = <52 == 0x34 == (0b00110100 & 0b11111111)>\n"+
			"  hi = <18 == 0x12 == (0b00010010 & 0b11111111)>\n"+
			">")
	})

	t.Run("Flat", func(t *testing.T) {
		v := mustDeclare(t, Decl{Name: "Free"}).Uint64(5)
		assert.Equal(t, v.String(), "<5 == 0x05 == (0b101)>")

		var zero View
		assert.Equal(t, zero.String(), "<0 == 0x00 == (0b0)>")
	})

	t.Run("MaxIndent", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)
		f := Formatter{MaxIndent: 0, IndentStep: 2}

		assert.Equal(t, f.Format(v, 0, false),
			"<4660 == 0x1234 == (0b0001001000110100 & 0b1111111111111111)>")
		assert.Equal(t, DefaultFormatter.Format(mustGet(t, v, "lo"), 3, false),
			"   <52 == 0x34 == (0b00110100 & 0b11111111)>")
	})

	t.Run("Nested", func(t *testing.T) {
		d := mustDeclare(t, Decl{
			Name: "Packet",
			Size: 16,
			Fields: Def{
				"kind": [2]int{0, 4},
				"ctl": Def{
					IndexKey: [2]int{4, 12},
					"en":     0,
					"mode":   [2]int{1, 4},
				},
			},
		})

		assert.Equal(t, d.Uint64(0).String(), ""+
			"<0 == 0x0000 == (0b0000000000000000 & 0b1111111111111111)\n"+
			"  kind = <0 == 0x00 == (0b0000 & 0b1111)>\n"+
			"  ctl  = \n"+
			"    <0 == 0x00 == (0b00000000 & 0b11111111)\n"+
			"      en   = <0 == 0x00 == (0b0 & 0b1)>\n"+
			"      mode = <0 == 0x00 == (0b000 & 0b111)>\n"+
			"    >\n"+
			">")
	})

	t.Run("GoString", func(t *testing.T) {
		v := statusType(t).Uint64(0x1234)
		assert.Equal(t, fmt.Sprintf("%#v", v), "Status(x=0x1234, base=16)")

		lo := mustGet(t, v, "lo")
		s := lo.GoString()
		addr := strings.TrimSuffix(strings.TrimPrefix(s, "<lo(x=0x34, base=16) at 0x"), ">")
		assert.That(t, strings.HasPrefix(s, "<lo(x=0x34, base=16) at 0x"))
		assert.That(t, strings.HasSuffix(s, ">"))
		assert.That(t, addr != "")
		assert.Equal(t, addr, strings.ToUpper(addr))
		assert.Equal(t, addr, fmt.Sprintf("%X", uintptr(unsafe.Pointer(lo))))
	})
}
