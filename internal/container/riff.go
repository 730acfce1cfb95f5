package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Common errors.
var (
	ErrInvalidRIFF      = errors.New("vp8lpred: invalid RIFF header")
	ErrInvalidSignature = errors.New("vp8lpred: invalid VPRD signature")
	ErrTruncated        = errors.New("vp8lpred: truncated data")
	ErrInvalidChunk     = errors.New("vp8lpred: invalid chunk")
	ErrTooLarge         = errors.New("vp8lpred: file too large")
	ErrUnknownCodec     = errors.New("vp8lpred: unknown residual codec")
)

// Chunk represents a single RIFF chunk with its FourCC tag and payload.
type Chunk struct {
	FourCC  uint32
	Payload []byte
}

// RIFFHeader holds the parsed RIFF container header.
type RIFFHeader struct {
	FileSize uint32 // total RIFF file size (excluding 8-byte RIFF header)
}

// ParseRIFFHeader validates and parses the 12-byte RIFF/VPRD header from
// data. Returns the header and the number of bytes consumed.
func ParseRIFFHeader(data []byte) (RIFFHeader, int, error) {
	if len(data) < RIFFHeaderSize {
		return RIFFHeader{}, 0, ErrTruncated
	}

	riffTag := binary.LittleEndian.Uint32(data[0:4])
	if riffTag != FourCCRIFF {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	if fileSize < TagSize {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	if fileSize > MaxChunkPayload {
		return RIFFHeader{}, 0, ErrTooLarge
	}

	sig := binary.LittleEndian.Uint32(data[8:12])
	if sig != FourCCVPRD {
		return RIFFHeader{}, 0, ErrInvalidSignature
	}

	return RIFFHeader{FileSize: fileSize}, RIFFHeaderSize, nil
}

// PutRIFFHeader writes the 12-byte header of a dump whose chunks take
// chunksSize bytes.
func PutRIFFHeader(data []byte, chunksSize uint32) {
	PutLE32(data[0:4], FourCCRIFF)
	PutLE32(data[4:8], chunksSize+TagSize)
	PutLE32(data[8:12], FourCCVPRD)
}

// ReadChunkHeader reads a chunk's FourCC tag and payload size from data.
func ReadChunkHeader(data []byte) (fourcc uint32, payloadSize uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	fourcc = binary.LittleEndian.Uint32(data[0:4])
	payloadSize = binary.LittleEndian.Uint32(data[4:8])
	if payloadSize > MaxChunkPayload {
		return 0, 0, ErrTooLarge
	}
	return fourcc, payloadSize, nil
}

// PaddedSize returns the payload size padded to an even number of bytes,
// as required by the RIFF format.
func PaddedSize(size uint32) uint32 {
	return size + (size & 1)
}

// ChunkSize returns the number of bytes c occupies in a file, header and
// padding included.
func ChunkSize(c Chunk) uint32 {
	return ChunkHeaderSize + PaddedSize(uint32(len(c.Payload)))
}

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}

// ReadChunk reads a complete chunk (header + payload) from an io.Reader.
func ReadChunk(r io.Reader) (Chunk, error) {
	var hdr [ChunkHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Chunk{}, fmt.Errorf("vp8lpred: reading chunk header: %w", err)
	}

	fourcc := binary.LittleEndian.Uint32(hdr[0:4])
	payloadSize := binary.LittleEndian.Uint32(hdr[4:8])
	if payloadSize > MaxChunkPayload {
		return Chunk{}, ErrTooLarge
	}

	padded := PaddedSize(payloadSize)
	payload := make([]byte, padded)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Chunk{}, fmt.Errorf("vp8lpred: reading chunk payload: %w", err)
	}
	// Return only the actual payload (not padding byte).
	return Chunk{FourCC: fourcc, Payload: payload[:payloadSize]}, nil
}

// WriteChunk writes c, header and padding included, to w.
func WriteChunk(w io.Writer, c Chunk) error {
	var hdr [ChunkHeaderSize]byte
	PutLE32(hdr[0:4], c.FourCC)
	PutLE32(hdr[4:8], uint32(len(c.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("vp8lpred: writing %s chunk: %w", FourCCString(c.FourCC), err)
	}
	if _, err := w.Write(c.Payload); err != nil {
		return fmt.Errorf("vp8lpred: writing %s chunk: %w", FourCCString(c.FourCC), err)
	}
	if len(c.Payload)&1 != 0 {
		if _, err := w.Write([]byte{0}); err != nil {
			return fmt.Errorf("vp8lpred: writing %s chunk: %w", FourCCString(c.FourCC), err)
		}
	}
	return nil
}
