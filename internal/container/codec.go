package container

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Codec selects how the residual raster is compressed inside RESI.
type Codec uint8

const (
	CodecZstd  Codec = 0
	CodecZlib  Codec = 1
	CodecStore Codec = 2 // uncompressed
)

// String returns the codec name accepted by ParseCodec.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecZlib:
		return "zlib"
	case CodecStore:
		return "store"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to its Codec.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "zstd":
		return CodecZstd, nil
	case "zlib":
		return CodecZlib, nil
	case "store", "none":
		return CodecStore, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(4*MaxImageSize*MaxImageSize),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

// zlibWriterPoolItem pairs a pooled zlib writer with its destination buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.BestCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// Compress encodes data with c.
func Compress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecZstd:
		return compressZstd(data)
	case CodecZlib:
		return compressZlib(data)
	case CodecStore:
		return bytes.Clone(data), nil
	}
	return nil, ErrUnknownCodec
}

// Decompress decodes data with c. The result must be exactly expectedSize
// bytes long.
func Decompress(c Codec, data []byte, expectedSize int) ([]byte, error) {
	var out []byte
	var err error
	switch c {
	case CodecZstd:
		out, err = decompressZstd(data)
	case CodecZlib:
		out, err = decompressZlib(data, expectedSize)
	case CodecStore:
		out = data
	default:
		return nil, ErrUnknownCodec
	}
	if err != nil {
		return nil, err
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: residuals decode to %d bytes, want %d", ErrInvalidChunk, len(out), expectedSize)
	}
	return out, nil
}

func compressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func compressZlib(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	item := zlibWriterPool.Get().(*zlibWriterPoolItem)
	defer zlibWriterPool.Put(item)
	item.buf.Reset()
	item.writer.Reset(item.buf)

	if _, err := item.writer.Write(data); err != nil {
		item.writer.Close()
		return nil, fmt.Errorf("zlib encode: %w", err)
	}
	if err := item.writer.Close(); err != nil {
		return nil, fmt.Errorf("zlib encode: %w", err)
	}
	return bytes.Clone(item.buf.Bytes()), nil
}

func decompressZlib(data []byte, expectedSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib decode: %w", err)
	}
	defer r.Close()

	// One byte past the expected size is enough to reject oversized
	// payloads without inflating them completely.
	out, err := io.ReadAll(io.LimitReader(r, int64(expectedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("zlib decode: %w", err)
	}
	return out, nil
}
