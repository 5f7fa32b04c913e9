package bitfield

import "math/big"

// byte buffers are always little endian

func leBytes(v *big.Int, n int) []byte {
	buf := make([]byte, n)
	v.FillBytes(buf)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

func fromLE(buf []byte) *big.Int {
	be := make([]byte, len(buf))
	for i, b := range buf {
		be[len(buf)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}
