package vp8lpred

import (
	"fmt"

	"github.com/deepteams/vp8lpred/internal/lossless"
)

// Options controls Transform.
type Options struct {
	// Quality is the search effort (0-100, default 75). It sets how many
	// refinement steps the cross-color search takes.
	Quality int

	// NearLosslessQuality enables near-lossless residual quantization when
	// below 100 (0-100, default 100). Lower values allow larger errors:
	// each step of 20 doubles the quantization step, up to 32.
	NearLosslessQuality int

	// Exact keeps the RGB values under fully transparent pixels and
	// disables near-lossless. When false, the RGB residual of a transparent
	// pixel is forced to zero.
	Exact bool

	// SubtractGreen subtracts green from red and blue before prediction
	// (default true).
	SubtractGreen bool

	// CrossColor runs the cross-color search on the residuals (default
	// true).
	CrossColor bool

	// PredictorBits and CrossColorBits are the tile size exponents of the
	// two mode maps (1-9, defaults 4 and 5).
	PredictorBits  int
	CrossColorBits int

	// LowEffort skips the predictor search and uses one fixed predictor
	// for every tile. Near-lossless and transparent-pixel cleanup are not
	// applied in this mode.
	LowEffort bool

	// OptimizeSampling enlarges the tiles of a mode map when neighbouring
	// tiles made the same choice (default true).
	OptimizeSampling bool

	// Progress, if set, is called with the completed percentage after each
	// row of tiles. Returning false aborts Transform with ErrAborted.
	Progress func(percent int) bool
}

// DefaultOptions returns the options used when Transform gets nil.
func DefaultOptions() *Options {
	return &Options{
		Quality:             75,
		NearLosslessQuality: 100,
		SubtractGreen:       true,
		CrossColor:          true,
		PredictorBits:       4,
		CrossColorBits:      5,
		OptimizeSampling:    true,
	}
}

// validateOptions returns an error describing the first invalid parameter
// found, or nil if the options are valid.
func validateOptions(opts *Options) error {
	if opts.Quality < 0 || opts.Quality > 100 {
		return fmt.Errorf("%w: Quality %d (must be 0-100)", ErrInvalidQuality, opts.Quality)
	}
	if opts.NearLosslessQuality < 0 || opts.NearLosslessQuality > 100 {
		return fmt.Errorf("%w: NearLosslessQuality %d (must be 0-100)", ErrInvalidQuality, opts.NearLosslessQuality)
	}
	if err := checkBits("PredictorBits", opts.PredictorBits); err != nil {
		return err
	}
	if opts.CrossColor {
		if err := checkBits("CrossColorBits", opts.CrossColorBits); err != nil {
			return err
		}
	}
	return nil
}

func checkBits(name string, bits int) error {
	if bits < lossless.MinTransformBits || bits > lossless.MaxTransformBits {
		return fmt.Errorf("%w: %s %d (must be %d-%d)", ErrInvalidBits, name, bits,
			lossless.MinTransformBits, lossless.MaxTransformBits)
	}
	return nil
}
