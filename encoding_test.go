package bitfield

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/zeebo/assert"
)

func TestEncoding(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		d := statusType(t)
		v := d.Uint64(0x1234)

		text, err := v.MarshalText()
		assert.NoError(t, err)
		assert.Equal(t, string(text), "4660")

		w := d.Uint64(0)
		assert.NoError(t, w.UnmarshalText(text))
		assert.That(t, v.Equal(w))

		assert.That(t, ParseError.Has(w.UnmarshalText([]byte("0x10"))))
		assert.That(t, OverflowError.Has(w.UnmarshalText([]byte("65536"))))
	})

	t.Run("JSON", func(t *testing.T) {
		d := statusType(t)
		type record struct {
			Status *View `json:"status"`
		}

		data, err := json.Marshal(record{Status: d.Uint64(513)})
		assert.NoError(t, err)
		assert.Equal(t, string(data), `{"status":513}`)

		out := record{Status: d.Uint64(0)}
		assert.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, out.Status.Value().Int64(), 513)
		assert.Equal(t, out.Status.Descriptor(), d)

		assert.NoError(t, out.Status.UnmarshalJSON([]byte("null")))
		assert.Equal(t, out.Status.Value().Int64(), 513)
	})

	t.Run("Binary", func(t *testing.T) {
		d := mustDeclare(t, Decl{Name: "Wide", Size: 20})
		v := d.Uint64(0xabcde)

		data, err := v.MarshalBinary()
		assert.NoError(t, err)
		assert.DeepEqual(t, data, []byte{0xde, 0xbc, 0x0a})

		w := d.Uint64(0)
		assert.NoError(t, w.UnmarshalBinary(data))
		assert.That(t, v.Equal(w))
	})

	t.Run("Linked", func(t *testing.T) {
		lo := mustGet(t, statusType(t).Uint64(0x1234), "lo")

		_, err := lo.MarshalText()
		assert.That(t, UnserializableError.Has(err))
		_, err = lo.MarshalBinary()
		assert.That(t, UnserializableError.Has(err))
		_, err = json.Marshal(lo)
		assert.Error(t, err)

		data, err := lo.Copy().MarshalBinary()
		assert.NoError(t, err)
		assert.DeepEqual(t, data, []byte{0x34})
	})

	t.Run("Key", func(t *testing.T) {
		d := statusType(t)
		e := statusType(t)

		set := map[Key]bool{d.Uint64(1).Key(): true}
		assert.That(t, set[d.Uint64(1).Key()])
		assert.That(t, !set[d.Uint64(2).Key()])
		assert.That(t, !set[e.Uint64(1).Key()])

		lo := mustGet(t, d.Uint64(0x1234), "lo")
		assert.Equal(t, lo.Key(), mustGet(t, d.Uint64(0x5634), "lo").Key())
	})

	t.Run("Hash", func(t *testing.T) {
		d := statusType(t)

		assert.Equal(t, d.Uint64(7).Hash(), d.Uint64(7).Hash())
		assert.That(t, d.Uint64(7).Hash() != d.Uint64(8).Hash())
		assert.That(t, d.Uint64(7).Hash() != statusType(t).Uint64(7).Hash())

		big7, err := d.New(big.NewInt(7))
		assert.NoError(t, err)
		assert.Equal(t, big7.Hash(), d.Uint64(7).Hash())
	})
}
