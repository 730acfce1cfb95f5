// Package dsp holds the pixel-level primitives of the VP8L predictor stage:
// the 14 spatial predictors in scalar and batched form, per-channel pixel
// arithmetic, and the subtract-green and cross-color transforms.
package dsp

// Init initialises all function tables to their pure-Go implementations.
// It runs from the package init and is idempotent.
func Init() {
	initLosslessPredictors()
}

func init() {
	Init()
}
