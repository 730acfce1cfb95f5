// Package container defines the RIFF layout of residual dumps: the chunk
// tags, the header chunk and the payload codecs.
//
// A dump is
//
//	RIFF <size> VPRD
//	  HEAD  image size, transform bits, flags, residual codec
//	  PRED  packed predictor mode map (optional)
//	  XCOL  packed cross-color map (optional)
//	  RESI  compressed residual raster
//
// All integers are little-endian. Chunks are padded to an even size.
package container

import "encoding/binary"

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Container FourCC values.
var (
	FourCCRIFF = FourCC('R', 'I', 'F', 'F')
	FourCCVPRD = FourCC('V', 'P', 'R', 'D')
	FourCCHEAD = FourCC('H', 'E', 'A', 'D')
	FourCCPRED = FourCC('P', 'R', 'E', 'D')
	FourCCXCOL = FourCC('X', 'C', 'O', 'L')
	FourCCRESI = FourCC('R', 'E', 'S', 'I')
)

// Container structure sizes.
const (
	TagSize         = 4  // Size of a chunk tag (e.g. "HEAD")
	ChunkSizeBytes  = 4  // Size needed to store chunk's size
	ChunkHeaderSize = 8  // Size of a chunk header
	RIFFHeaderSize  = 12 // Size of the RIFF header ("RIFFnnnnVPRD")
	HeadChunkSize   = 6  // 42 bits of header fields, byte aligned
)

// Header field widths, in bits.
const (
	ImageSizeBits = 14
	BitsFieldBits = 4
	FlagsBits     = 4
	CodecBits     = 2
)

// Limits.
const (
	MaxImageSize    = 1 << ImageSizeBits
	MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1
)

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutLE32 writes a little-endian uint32 to data.
func PutLE32(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}

// packWords serializes words as little-endian bytes.
func packWords(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		PutLE32(out[4*i:], w)
	}
	return out
}

// unpackWords is the inverse of packWords. len(data) must be a multiple
// of 4.
func unpackWords(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = ReadLE32(data[4*i:])
	}
	return out
}
