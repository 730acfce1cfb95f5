package bitio

import "errors"

// ErrEndOfStream is reported by Reader.Err after a read past the end of
// the data.
var ErrEndOfStream = errors.New("bitio: read past end of stream")

// Reader reads little-endian bit fields written by Writer.
type Reader struct {
	// val holds pre-fetched bits, the next bit in the lowest position.
	val   uint64
	nbits int
	buf   []byte
	// pos is the next byte of buf to load.
	pos int
	eos bool
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	br := &Reader{buf: data}
	br.fill()
	return br
}

// fill loads whole bytes until val holds at least 56 bits or data runs out.
func (br *Reader) fill() {
	for br.nbits <= 56 && br.pos < len(br.buf) {
		br.val |= uint64(br.buf[br.pos]) << uint(br.nbits)
		br.pos++
		br.nbits += 8
	}
}

// ReadBits reads nBits (0..MaxBits). Reading past the end of the data
// returns zero and sets the end-of-stream flag.
func (br *Reader) ReadBits(nBits int) uint32 {
	if br.eos || nBits < 0 || nBits > MaxBits {
		br.eos = true
		return 0
	}
	if nBits > br.nbits {
		br.eos = true
		return 0
	}
	v := uint32(br.val & (1<<uint(nBits) - 1))
	br.val >>= uint(nBits)
	br.nbits -= nBits
	br.fill()
	return v
}

// Err returns ErrEndOfStream once a read went past the end of the data.
func (br *Reader) Err() error {
	if br.eos {
		return ErrEndOfStream
	}
	return nil
}
