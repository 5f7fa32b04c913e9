package bitfield

import (
	"encoding/binary"
	"math/big"

	"github.com/cespare/xxhash/v2"
)

// Key is a comparable identity of a view: its type and its value. Views with
// equal keys are equal. The parent link is not part of the key.
type Key struct {
	desc  *Descriptor
	value string
}

func (v *View) Key() Key { return Key{desc: v.desc(), value: v.Value().Text(16)} }

// Hash hashes the type identity and the value of the view.
func (v *View) Hash() uint64 {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], v.desc().id)

	h := xxhash.New()
	_, _ = h.Write(id[:])
	_, _ = h.Write(v.Value().Bytes())
	return h.Sum64()
}

func (v *View) serializable() error {
	if v.parent != nil {
		return UnserializableError.New("linked %s can not be serialized", v.desc().name)
	}
	return nil
}

// MarshalText writes the value in decimal.
func (v *View) MarshalText() ([]byte, error) {
	if err := v.serializable(); err != nil {
		return nil, err
	}
	return v.Value().MarshalText()
}

func (v *View) UnmarshalText(text []byte) error {
	x, ok := new(big.Int).SetString(string(text), 10)
	if !ok {
		return ParseError.New("invalid literal for base 10: %q", text)
	}
	return v.SetValue(x)
}

// MarshalJSON writes the value as a JSON number.
func (v *View) MarshalJSON() ([]byte, error) { return v.MarshalText() }

func (v *View) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	return v.UnmarshalText(data)
}

// MarshalBinary writes the value as Len little endian bytes.
func (v *View) MarshalBinary() ([]byte, error) {
	if err := v.serializable(); err != nil {
		return nil, err
	}
	return leBytes(v.Value(), int(v.Len())), nil
}

func (v *View) UnmarshalBinary(data []byte) error {
	return v.SetValue(fromLE(data))
}
