package lossless

import "github.com/deepteams/vp8lpred/internal/dsp"

// Residual computation and the in-place application pass.

// predictBatch writes the exact residuals of numPixels pixels of row y
// starting at xStart. The first pixel of a row is always predicted from the
// top (or black on row 0) and row 0 is predicted from the left, whatever
// mode says.
func predictBatch(mode, xStart, y, numPixels int, current, upper, out []uint32) {
	if numPixels <= 0 {
		return
	}
	if xStart == 0 {
		if y == 0 {
			dsp.PredictorsSub[0](current, nil, 0, 1, out)
		} else {
			dsp.PredictorsSub[2](current, upper, 0, 1, out)
		}
		xStart++
		out = out[1:]
		numPixels--
	}
	if y == 0 {
		dsp.PredictorsSub[1](current, nil, xStart, numPixels, out)
	} else {
		dsp.PredictorsSub[mode](current, upper, xStart, numPixels, out)
	}
}

// getResidual writes to out the residuals of pixels [xStart, xEnd) of row y
// predicted with mode. upper and current are window rows of width+1
// samples; upper[width] holds the first pixel of row y (the top-right
// context of the last column).
//
// Unless exact is set, pixels are quantized with near-lossless when
// maxQuantization > 1 and current is updated to the value a decoder will
// reconstruct, so later predictions see the same neighbours. Fully
// transparent pixels get their RGB replaced by the prediction's so that the
// residual is zero there.
func getResidual(width, height int, upper, current []uint32, maxDiffs []uint8,
	mode, xStart, xEnd, y, maxQuantization int, exact, usedSubtractGreen bool, out []uint32) {
	if exact {
		predictBatch(mode, xStart, y, xEnd-xStart, current, upper, out)
		return
	}
	pred := dsp.Predictors[mode]
	for x := xStart; x < xEnd; x++ {
		var predict uint32
		switch {
		case y == 0 && x == 0:
			predict = ARGBBlack
		case y == 0:
			predict = current[x-1] // left
		case x == 0:
			predict = upper[x] // top
		default:
			predict = pred(current[x-1], upper[x-1:x+2])
		}

		var residual uint32
		if maxQuantization == 1 || mode == 0 || y == 0 || y == height-1 ||
			x == 0 || x == width-1 {
			residual = dsp.SubPixels(current[x], predict)
		} else {
			residual = nearLossless(current[x], predict, maxQuantization, int(maxDiffs[x]), usedSubtractGreen)
			current[x] = dsp.AddPixels(predict, residual)
		}

		if current[x]&0xff000000 == 0 {
			// Only the alpha residual matters for an invisible pixel.
			residual &= 0xff000000
			current[x] = predict & 0x00ffffff
			// The last column reads the first pixel of the row as its
			// top-right context through upper[width].
			if x == 0 && y != 0 {
				upper[width] = current[0]
			}
		}
		out[x-xStart] = residual
	}
}

// ApplyResiduals replaces every pixel of argb with its residual against the
// predictor chosen for its tile in modes. See getResidual for the meaning of
// maxQuantization, exact and usedSubtractGreen.
//
// The pass runs row by row. Before row y is overwritten, the max-diff row
// of y+1 is computed while row y still holds original pixels.
func ApplyResiduals(argb []uint32, width, height int, modes *ModeMap, maxQuantization int, exact, usedSubtractGreen bool) {
	checkImage(argb, width, height)
	checkModeMap(modes, TileSpatial, width, height)

	quantize := maxQuantization > 1 && !exact
	win := newRowWindow(width, quantize)
	defer win.release()

	bits := modes.Bits
	tileSize := 1 << bits
	for y := 0; y < height; y++ {
		win.swap()
		current := win.currentRow()
		upper := win.upperRow()
		rowLen := width
		if y+1 < height {
			rowLen++
		}
		copy(current, argb[y*width:y*width+rowLen])

		var maxDiffs []uint8
		if quantize {
			win.swapMaxDiffs()
			if y+2 < height {
				maxDiffsForRow(width, argb[y*width:], argb[(y+1)*width:], argb[(y+2)*width:],
					win.lowerMaxDiffRow(), usedSubtractGreen)
			}
			maxDiffs = win.maxDiffRow()
		}

		out := argb[y*width : (y+1)*width]
		tileY := y >> bits
		for x := 0; x < width; {
			mode := int(modes.At(x>>bits, tileY).Mode)
			xEnd := min(x+tileSize, width)
			getResidual(width, height, upper, current, maxDiffs, mode, x, xEnd, y,
				maxQuantization, exact, usedSubtractGreen, out[x:xEnd])
			x = xEnd
		}
	}
}

// ApplyLowEffortResiduals is ApplyResiduals for a map holding
// LowEffortPredMode on every tile. Whole rows go through the batched exact
// path.
func ApplyLowEffortResiduals(argb []uint32, width, height int) {
	checkImage(argb, width, height)
	win := newRowWindow(width, false)
	defer win.release()
	for y := 0; y < height; y++ {
		win.swap()
		current := win.currentRow()
		rowLen := width
		if y+1 < height {
			rowLen++
		}
		copy(current, argb[y*width:y*width+rowLen])
		predictBatch(LowEffortPredMode, 0, y, width, current, win.upperRow(), argb[y*width:(y+1)*width])
	}
}

// LowEffortModeMap returns a spatial map with every tile set to
// LowEffortPredMode.
func LowEffortModeMap(width, height, bits int) *ModeMap {
	m := NewModeMap(TileSpatial, width, height, bits)
	for i := range m.Codes {
		m.Codes[i] = SpatialCode(LowEffortPredMode)
	}
	return m
}

// checkModeMap panics when m is not a map of kind for a width x height image.
func checkModeMap(m *ModeMap, kind TileKind, width, height int) {
	if m == nil {
		panic("lossless: nil mode map")
	}
	if m.Kind != kind {
		panic("lossless: mode map of kind " + m.Kind.String() + ", want " + kind.String())
	}
	checkBits(m.Bits)
	if !m.Covers(width, height) {
		panic("lossless: mode map does not cover the image")
	}
}
