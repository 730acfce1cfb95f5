// Package vp8lpred implements the predictor and cross-color stage of a
// VP8L-style lossless image encoder.
//
// Given a raster of packed ARGB pixels, the package chooses for every tile
// one of 14 spatial predictors and, separately, a cross-color transform
// that decorrelates red and blue from green, then rewrites the raster as a
// stream of residuals ready for an entropy coder. An optional near-lossless
// mode quantizes residuals within a per-pixel smoothness budget.
//
// The package supports:
//   - Subtract-green decorrelation
//   - Per-tile predictor selection with an entropy cost model
//   - Per-tile cross-color selection
//   - Near-lossless residual quantization
//   - Exact inversion of every step (Reconstruct)
//   - A RIFF residual dump with zstd or zlib payloads
//
// Basic usage:
//
//	argb, w, h := vp8lpred.ImageToARGB(img)
//	res, err := vp8lpred.Transform(argb, w, h, vp8lpred.DefaultOptions())
//	...
//	back, err := vp8lpred.Reconstruct(res)
package vp8lpred
