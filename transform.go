package vp8lpred

import (
	"errors"
	"fmt"
	"slices"

	"github.com/deepteams/vp8lpred/internal/container"
	"github.com/deepteams/vp8lpred/internal/dsp"
	"github.com/deepteams/vp8lpred/internal/lossless"
)

// MaxDimension is the largest width or height accepted, in pixels.
const MaxDimension = container.MaxImageSize

// Tile size limits, as exponents of two.
const (
	MinTransformBits = lossless.MinTransformBits
	MaxTransformBits = lossless.MaxTransformBits
)

// NumPredModes is the number of spatial predictor modes.
const NumPredModes = lossless.NumPredModes

// Mode map types.
type (
	// ModeMap is the per-tile grid of predictor or cross-color decisions.
	ModeMap = lossless.ModeMap
	// TileCode is one tile's decision.
	TileCode = lossless.TileCode
	// TileKind tells spatial and cross-color maps apart.
	TileKind = lossless.TileKind
	// Multipliers are the fixed-point cross-color coefficients
	// (32 means 1.0).
	Multipliers = dsp.Multipliers
	// Histogram holds one 256-bin population per channel, in A, R, G, B
	// order.
	Histogram = lossless.Histo
)

// Tile kinds.
const (
	TileSpatial    = lossless.TileSpatial
	TileCrossColor = lossless.TileCrossColor
)

// Errors returned by the package.
var (
	ErrInvalidDimensions = errors.New("vp8lpred: invalid image dimensions")
	ErrInvalidBits       = errors.New("vp8lpred: invalid transform bits")
	ErrInvalidQuality    = errors.New("vp8lpred: invalid quality")
	ErrBufferSize        = errors.New("vp8lpred: pixel buffer does not match dimensions")
	ErrModeMapSize       = errors.New("vp8lpred: mode map does not match image")
	ErrAborted           = errors.New("vp8lpred: aborted by progress callback")
)

// Result is the output of Transform.
type Result struct {
	Width  int
	Height int

	// SubtractGreen reports whether green was subtracted from red and blue.
	SubtractGreen bool
	// NearLossless reports whether residuals were quantized, in which
	// case Reconstruct only approximates the input.
	NearLossless bool

	// Predictor is the spatial mode map; CrossColor is nil when the
	// cross-color search was disabled.
	Predictor  *ModeMap
	CrossColor *ModeMap

	// Residuals is the width x height residual raster.
	Residuals []uint32
	// Histogram counts the channels of Residuals.
	Histogram Histogram
}

// Transform runs the whole stage on a copy of argb: subtract-green,
// predictor selection and residual application, then cross-color selection
// on the residuals. argb is not modified.
func Transform(argb []uint32, width, height int, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := checkImage(argb, width, height); err != nil {
		return nil, err
	}

	n := width * height
	buf := slices.Clone(argb)
	if opts.SubtractGreen {
		dsp.SubtractGreen(buf, n)
	}
	maxQuantization := lossless.MaxQuantization(opts.NearLosslessQuality)

	res := &Result{
		Width:         width,
		Height:        height,
		SubtractGreen: opts.SubtractGreen,
		NearLossless:  maxQuantization > 1 && !opts.Exact && !opts.LowEffort,
		Residuals:     buf,
	}

	predProgress, ccProgress := splitProgress(opts.Progress, opts.CrossColor)
	if opts.LowEffort {
		res.Predictor = lossless.LowEffortModeMap(width, height, opts.PredictorBits)
		lossless.ApplyLowEffortResiduals(buf, width, height)
	} else {
		pred, _, err := lossless.SelectPredictors(buf, width, height, opts.PredictorBits,
			maxQuantization, opts.Exact, opts.SubtractGreen, predProgress)
		if err != nil {
			return nil, mapError(err)
		}
		if opts.OptimizeSampling {
			lossless.OptimizeSampling(pred, width, height, MaxTransformBits)
		}
		lossless.ApplyResiduals(buf, width, height, pred, maxQuantization, opts.Exact, opts.SubtractGreen)
		res.Predictor = pred
	}

	if opts.CrossColor {
		cc, err := lossless.SelectColorTransforms(buf, width, height, opts.CrossColorBits, opts.Quality, ccProgress)
		if err != nil {
			return nil, mapError(err)
		}
		if opts.OptimizeSampling {
			lossless.OptimizeSampling(cc, width, height, MaxTransformBits)
		}
		res.CrossColor = cc
	}

	res.Histogram = histogramOf(buf)
	return res, nil
}

// splitProgress maps the predictor pass to the first half of the overall
// progress and the cross-color pass to the second half, or gives the whole
// range to the predictor when there is no cross-color pass.
func splitProgress(progress func(int) bool, crossColor bool) (pred, cc lossless.ProgressFunc) {
	if progress == nil {
		return nil, nil
	}
	if !crossColor {
		return progress, nil
	}
	pred = func(p int) bool { return progress(p / 2) }
	cc = func(p int) bool { return progress(50 + p/2) }
	return pred, cc
}

// SelectPredictors chooses a predictor for every tile of argb, tiles being
// 1<<bits pixels square, and returns the map with the histogram of the
// residuals it produces. argb is not modified. nearLosslessQuality, exact
// and usedSubtractGreen must match what ApplyResiduals will be given.
func SelectPredictors(argb []uint32, width, height, bits, nearLosslessQuality int, exact, usedSubtractGreen bool) (*ModeMap, Histogram, error) {
	if err := checkImage(argb, width, height); err != nil {
		return nil, Histogram{}, err
	}
	if err := checkBits("bits", bits); err != nil {
		return nil, Histogram{}, err
	}
	if err := checkNearLossless(nearLosslessQuality); err != nil {
		return nil, Histogram{}, err
	}
	m, h, err := lossless.SelectPredictors(argb, width, height, bits,
		lossless.MaxQuantization(nearLosslessQuality), exact, usedSubtractGreen, nil)
	if err != nil {
		return nil, Histogram{}, mapError(err)
	}
	return m, h, nil
}

// SelectColorTransforms chooses cross-color multipliers for every tile of
// argb and applies them in place. quality (0-100) sets the search effort.
func SelectColorTransforms(argb []uint32, width, height, bits, quality int) (*ModeMap, error) {
	if err := checkImage(argb, width, height); err != nil {
		return nil, err
	}
	if err := checkBits("bits", bits); err != nil {
		return nil, err
	}
	if quality < 0 || quality > 100 {
		return nil, fmt.Errorf("%w: quality %d (must be 0-100)", ErrInvalidQuality, quality)
	}
	m, err := lossless.SelectColorTransforms(argb, width, height, bits, quality, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// ApplyResiduals replaces argb in place with its residuals against the
// predictors in modes.
func ApplyResiduals(argb []uint32, width, height int, modes *ModeMap, nearLosslessQuality int, exact, usedSubtractGreen bool) error {
	if err := checkImage(argb, width, height); err != nil {
		return err
	}
	if err := checkModeMap(modes, TileSpatial, width, height); err != nil {
		return err
	}
	if err := checkNearLossless(nearLosslessQuality); err != nil {
		return err
	}
	lossless.ApplyResiduals(argb, width, height, modes,
		lossless.MaxQuantization(nearLosslessQuality), exact, usedSubtractGreen)
	return nil
}

// Reconstruct inverts Transform, returning the pixels a decoder would
// produce. They equal the input of Transform unless near-lossless was used
// or transparent pixels lost their RGB.
func Reconstruct(r *Result) ([]uint32, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil result", ErrModeMapSize)
	}
	if err := checkImage(r.Residuals, r.Width, r.Height); err != nil {
		return nil, err
	}
	if err := checkModeMap(r.Predictor, TileSpatial, r.Width, r.Height); err != nil {
		return nil, err
	}
	n := r.Width * r.Height
	out := slices.Clone(r.Residuals)
	if r.CrossColor != nil {
		if err := checkModeMap(r.CrossColor, TileCrossColor, r.Width, r.Height); err != nil {
			return nil, err
		}
		lossless.InverseColorTransform(out, r.Width, r.Height, r.CrossColor)
	}
	lossless.InversePredictor(out, r.Width, r.Height, r.Predictor, out)
	if r.SubtractGreen {
		dsp.AddGreenToBlueAndRed(out, n)
	}
	return out, nil
}

func histogramOf(argb []uint32) Histogram {
	var h Histogram
	for _, p := range argb {
		h.AddPixel(p)
	}
	return h
}

func checkImage(argb []uint32, width, height int) error {
	if width < 1 || height < 1 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(argb) != width*height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrBufferSize, len(argb), width, height)
	}
	return nil
}

func checkModeMap(m *ModeMap, kind TileKind, width, height int) error {
	if m == nil {
		return fmt.Errorf("%w: nil %s map", ErrModeMapSize, kind)
	}
	if m.Kind != kind {
		return fmt.Errorf("%w: %s map where a %s map is needed", ErrModeMapSize, m.Kind, kind)
	}
	if err := checkBits("map bits", m.Bits); err != nil {
		return err
	}
	if !m.Covers(width, height) {
		return fmt.Errorf("%w: %dx%d tiles of %d bits for %dx%d", ErrModeMapSize,
			m.TilesPerRow, m.TilesPerCol, m.Bits, width, height)
	}
	if kind == TileSpatial {
		for i, c := range m.Codes {
			if int(c.Mode) >= NumPredModes {
				return fmt.Errorf("%w: tile %d has predictor mode %d", ErrModeMapSize, i, c.Mode)
			}
		}
	}
	return nil
}

func checkNearLossless(quality int) error {
	if quality < 0 || quality > 100 {
		return fmt.Errorf("%w: near-lossless quality %d (must be 0-100)", ErrInvalidQuality, quality)
	}
	return nil
}

// mapError converts internal sentinels to the package's.
func mapError(err error) error {
	if errors.Is(err, lossless.ErrAborted) {
		return ErrAborted
	}
	return err
}
