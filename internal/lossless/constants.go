package lossless

import "github.com/deepteams/vp8lpred/internal/dsp"

// Predictor-stage constants derived from libwebp/src/enc/predictor_enc.c
// and libwebp/src/webp/format_constants.h.

const (
	// MinTransformBits is the smallest accepted tile size exponent.
	MinTransformBits = 1
	// MaxTransformBits is the largest accepted tile size exponent.
	MaxTransformBits = 9

	// NumPredModes is the number of spatial predictor modes.
	NumPredModes = dsp.NumPredictors

	// LowEffortPredMode is the predictor used for every tile in low-effort
	// mode (Select).
	LowEffortPredMode = 11

	// ARGBBlack is the ARGB value for opaque black.
	ARGBBlack = dsp.ARGBBlack

	// MaxNearLosslessBits bounds NearLosslessBits.
	MaxNearLosslessBits = 5
)

// Cost model tuning.
const (
	// predModeBias is subtracted from a mode's cost once for each
	// neighbouring tile (left, above) that already uses it.
	predModeBias = 15.0
	// predSpatialExp is the first spatial weight of the predictor cost.
	predSpatialExp = 0.94
	// colorSpatialWeight0 and colorSpatialExp are the spatial cost weights
	// used by the cross-color search.
	colorSpatialWeight0 = 3
	colorSpatialExp     = 2.4
	// colorCoeffBias is subtracted for each coefficient that matches the
	// left tile, the above tile, or zero.
	colorCoeffBias = 3.0
	// spatialTaps is the number of residual magnitudes weighted by the
	// spatial cost on each side of zero.
	spatialTaps = 16
	// spatialDecay is the per-tap decay of the spatial weights.
	spatialDecay = 0.6

	// noNeighbourMode marks an absent neighbour tile; it never equals a
	// valid mode.
	noNeighbourMode = 0xff
)

// VP8LSubSampleSize returns ceil(size / 2^samplingBits).
func VP8LSubSampleSize(size, samplingBits int) int {
	return (size + (1 << samplingBits) - 1) >> samplingBits
}
