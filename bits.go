package bitfield

import "math/big"

// Packed reads and writes records of a fixed number of bits packed back to
// back in a little endian byte buffer. Record i occupies bits
// [i*bits, (i+1)*bits) of the buffer. Unlike fixed word readers there is no
// limit on the width of a record.
type Packed struct {
	buf  []byte
	bits uint
	mask *big.Int
}

func NewPacked(buf []byte, bits uint) *Packed {
	return &Packed{
		buf:  buf,
		bits: bits,
		mask: lowMask(bits),
	}
}

func (p *Packed) Bits() uint { return p.bits }

// Len returns the number of whole records in the buffer.
func (p *Packed) Len() uint {
	if p.bits == 0 {
		return 0
	}
	return uint(len(p.buf)) * 8 / p.bits
}

// span returns the byte offset, the bit offset into that byte, and the number
// of bytes that hold record idx.
func (p *Packed) span(idx uint) (n, o, size uint) {
	b := idx * p.bits
	n, o = b/8, b%8
	return n, o, (o + p.bits + 7) / 8
}

func (p *Packed) rawRead(n, size uint) *big.Int {
	end := n + size
	if end > uint(len(p.buf)) {
		end = uint(len(p.buf))
	}
	return fromLE(p.buf[n:end])
}

func (p *Packed) rawWrite(n, size uint, val *big.Int) {
	copy(p.buf[n:], leBytes(val, int(size)))
}

// Get returns record idx.
func (p *Packed) Get(idx uint) *big.Int {
	n, o, size := p.span(idx)
	return getBits(p.rawRead(n, size), o, p.mask)
}

// Put stores the low bits of val into record idx, leaving the neighboring
// records untouched.
func (p *Packed) Put(idx uint, val *big.Int) {
	n, o, size := p.span(idx)
	p.rawWrite(n, size, putBits(p.rawRead(n, size), o, p.mask, val))
}
