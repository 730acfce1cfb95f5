package vp8lpred

import (
	"fmt"
	"io"

	"github.com/deepteams/vp8lpred/internal/container"
	"github.com/deepteams/vp8lpred/internal/lossless"
)

// Codec selects how WriteDump compresses the residual chunk.
type Codec = container.Codec

// Residual codecs.
const (
	CodecZstd  = container.CodecZstd
	CodecZlib  = container.CodecZlib
	CodecStore = container.CodecStore
)

// ParseCodec returns the codec named name ("zstd", "zlib" or "store").
func ParseCodec(name string) (Codec, error) {
	return container.ParseCodec(name)
}

// WriteDump writes r to w as a RIFF residual dump: a HEAD chunk with the
// dimensions and flags, the packed mode maps, then the residuals compressed
// with codec.
func WriteDump(w io.Writer, r *Result, codec Codec) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrModeMapSize)
	}
	if err := checkImage(r.Residuals, r.Width, r.Height); err != nil {
		return err
	}
	if err := checkModeMap(r.Predictor, TileSpatial, r.Width, r.Height); err != nil {
		return err
	}

	d := &container.Dump{
		Header: container.Header{
			Width:         r.Width,
			Height:        r.Height,
			PredictorBits: r.Predictor.Bits,
			Flags:         container.FlagPredictor,
			Codec:         codec,
		},
		Predictor: r.Predictor.Packed(),
		Residuals: r.Residuals,
	}
	if r.SubtractGreen {
		d.Flags |= container.FlagSubtractGreen
	}
	if r.NearLossless {
		d.Flags |= container.FlagNearLossless
	}
	if r.CrossColor != nil {
		if err := checkModeMap(r.CrossColor, TileCrossColor, r.Width, r.Height); err != nil {
			return err
		}
		d.Flags |= container.FlagCrossColor
		d.CrossColorBits = r.CrossColor.Bits
		d.CrossColor = r.CrossColor.Packed()
	}
	return container.Write(w, d)
}

// ReadDump reads a dump written by WriteDump. The histogram of the returned
// Result is recomputed from the residuals.
func ReadDump(r io.Reader) (*Result, error) {
	d, err := container.Read(r)
	if err != nil {
		return nil, err
	}
	if !d.Has(container.FlagPredictor) {
		return nil, fmt.Errorf("%w: dump has no predictor map", ErrModeMapSize)
	}

	res := &Result{
		Width:         d.Width,
		Height:        d.Height,
		SubtractGreen: d.Has(container.FlagSubtractGreen),
		NearLossless:  d.Has(container.FlagNearLossless),
		Residuals:     d.Residuals,
	}
	res.Predictor, err = lossless.UnpackModeMap(TileSpatial, d.PredictorBits, d.Width, d.Height, d.Predictor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModeMapSize, err)
	}
	if d.Has(container.FlagCrossColor) {
		res.CrossColor, err = lossless.UnpackModeMap(TileCrossColor, d.CrossColorBits, d.Width, d.Height, d.CrossColor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModeMapSize, err)
		}
	}
	res.Histogram = histogramOf(res.Residuals)
	return res, nil
}
