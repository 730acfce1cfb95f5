package container

import (
	"fmt"

	"github.com/deepteams/vp8lpred/internal/bitio"
)

// Header flags.
const (
	FlagSubtractGreen uint8 = 1 << iota
	FlagPredictor
	FlagCrossColor
	FlagNearLossless
)

// Header is the content of the HEAD chunk.
type Header struct {
	Width          int
	Height         int
	PredictorBits  int // 0 when the dump has no PRED chunk
	CrossColorBits int // 0 when the dump has no XCOL chunk
	Flags          uint8
	Codec          Codec
}

// Has reports whether all of flags are set.
func (h *Header) Has(flags uint8) bool {
	return h.Flags&flags == flags
}

// Validate checks the ranges of every field and the consistency of the
// flags with the transform bits.
func (h *Header) Validate() error {
	if h.Width < 1 || h.Width > MaxImageSize || h.Height < 1 || h.Height > MaxImageSize {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidChunk, h.Width, h.Height)
	}
	if h.Flags >= 1<<FlagsBits {
		return fmt.Errorf("%w: flags 0x%x", ErrInvalidChunk, h.Flags)
	}
	if err := checkTransformBits("predictor", h.PredictorBits, h.Has(FlagPredictor)); err != nil {
		return err
	}
	if err := checkTransformBits("cross-color", h.CrossColorBits, h.Has(FlagCrossColor)); err != nil {
		return err
	}
	if h.Codec > CodecStore {
		return ErrUnknownCodec
	}
	return nil
}

func checkTransformBits(name string, bits int, present bool) error {
	if !present {
		if bits != 0 {
			return fmt.Errorf("%w: %s bits %d without a %s map", ErrInvalidChunk, name, bits, name)
		}
		return nil
	}
	if bits < 1 || bits > 9 {
		return fmt.Errorf("%w: %s bits %d", ErrInvalidChunk, name, bits)
	}
	return nil
}

// MarshalBinary packs h into the HeadChunkSize-byte HEAD payload:
// width-1 and height-1 on ImageSizeBits each, the two transform bits on
// BitsFieldBits each, the flags on FlagsBits and the codec on CodecBits.
func (h *Header) MarshalBinary() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	bw := bitio.NewWriter(HeadChunkSize)
	bw.WriteBits(uint32(h.Width-1), ImageSizeBits)
	bw.WriteBits(uint32(h.Height-1), ImageSizeBits)
	bw.WriteBits(uint32(h.PredictorBits), BitsFieldBits)
	bw.WriteBits(uint32(h.CrossColorBits), BitsFieldBits)
	bw.WriteBits(uint32(h.Flags), FlagsBits)
	bw.WriteBits(uint32(h.Codec), CodecBits)
	return bw.Finish(), nil
}

// UnmarshalBinary parses a HEAD payload.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeadChunkSize {
		return ErrTruncated
	}
	br := bitio.NewReader(data[:HeadChunkSize])
	h.Width = int(br.ReadBits(ImageSizeBits)) + 1
	h.Height = int(br.ReadBits(ImageSizeBits)) + 1
	h.PredictorBits = int(br.ReadBits(BitsFieldBits))
	h.CrossColorBits = int(br.ReadBits(BitsFieldBits))
	h.Flags = uint8(br.ReadBits(FlagsBits))
	codec := br.ReadBits(CodecBits)
	if err := br.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	h.Codec = Codec(codec)
	if h.Codec > CodecStore {
		return ErrUnknownCodec
	}
	return h.Validate()
}

// gridSize returns ceil(size / 2^bits).
func gridSize(size, bits int) int {
	return (size + (1 << bits) - 1) >> bits
}

// PredictorTiles returns the number of codes PRED must hold.
func (h *Header) PredictorTiles() int {
	if !h.Has(FlagPredictor) {
		return 0
	}
	return gridSize(h.Width, h.PredictorBits) * gridSize(h.Height, h.PredictorBits)
}

// CrossColorTiles returns the number of codes XCOL must hold.
func (h *Header) CrossColorTiles() int {
	if !h.Has(FlagCrossColor) {
		return 0
	}
	return gridSize(h.Width, h.CrossColorBits) * gridSize(h.Height, h.CrossColorBits)
}
