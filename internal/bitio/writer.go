// Package bitio packs and unpacks little-endian bit fields, least
// significant bit first, as used by the dump header.
package bitio

import "encoding/binary"

const (
	// writerBits is the number of bits flushed at a time.
	writerBits = 32
	// writerBytes is the number of bytes written per flush.
	writerBytes = 4
	// MaxBits is the widest field WriteBits and ReadBits accept.
	MaxBits = 24
)

// Writer is an accumulator-based bit writer.
//
// Bits are accumulated in a 64-bit register and flushed 32 bits (4 bytes)
// at a time in little-endian byte order. This matches the format expected
// by Reader.
type Writer struct {
	bits uint64 // bit accumulator
	used int    // number of bits used in accumulator
	buf  []byte // output buffer
	cur  int    // current write position in buf
}

// NewWriter creates a Writer with room for expectedSize bytes.
func NewWriter(expectedSize int) *Writer {
	if expectedSize < 16 {
		expectedSize = 16
	}
	return &Writer{buf: make([]byte, expectedSize)}
}

// WriteBits writes the low nBits (0..MaxBits) of v.
func (bw *Writer) WriteBits(v uint32, nBits int) {
	if nBits <= 0 {
		return
	}
	if nBits > MaxBits {
		panic("bitio: field wider than MaxBits")
	}
	if bw.used >= writerBits {
		bw.flushBits()
	}
	v &= 1<<uint(nBits) - 1
	bw.bits |= uint64(v) << uint(bw.used)
	bw.used += nBits
}

// flushBits writes the lower 32 bits of the accumulator to the output
// buffer as 4 little-endian bytes and shifts the accumulator right by 32.
func (bw *Writer) flushBits() {
	bw.grow(writerBytes)
	binary.LittleEndian.PutUint32(bw.buf[bw.cur:], uint32(bw.bits))
	bw.cur += writerBytes
	bw.bits >>= writerBits
	bw.used -= writerBits
}

// grow ensures at least n bytes of capacity remain at bw.cur.
func (bw *Writer) grow(n int) {
	if bw.cur+n <= len(bw.buf) {
		return
	}
	newSize := max(len(bw.buf)*3/2, bw.cur+n)
	tmp := make([]byte, newSize)
	copy(tmp, bw.buf[:bw.cur])
	bw.buf = tmp
}

// Finish flushes all remaining bits, padding the last byte with zeros, and
// returns the encoded bytes.
func (bw *Writer) Finish() []byte {
	for bw.used >= writerBits {
		bw.flushBits()
	}
	bw.grow((bw.used + 7) >> 3)
	for bw.used > 0 {
		bw.buf[bw.cur] = byte(bw.bits)
		bw.cur++
		bw.bits >>= 8
		bw.used -= 8
	}
	bw.used = 0
	return bw.buf[:bw.cur]
}
