package lossless

import "github.com/deepteams/vp8lpred/internal/dsp"

// Decoder-side inverses of the predictor and cross-color passes.

// InversePredictor rebuilds the pixels of a width x height image from its
// residuals and mode map m, writing them to out. residuals and out may be
// the same slice.
//
// Row 0 is predicted from black then the left; column 0 of later rows from
// the top. The top-right context of the last column is the first pixel of
// the current row, which the flat layout of out provides as the pixel after
// the end of the row above.
func InversePredictor(residuals []uint32, width, height int, m *ModeMap, out []uint32) {
	checkImage(residuals, width, height)
	checkImage(out, width, height)
	checkModeMap(m, TileSpatial, width, height)

	// First row: pixel 0 uses black, the rest the left pixel.
	out[0] = dsp.AddPixels(residuals[0], ARGBBlack)
	dsp.PredictorsAdd[1](residuals[1:width], nil, 1, width-1, out[:width])

	bits := m.Bits
	tileSize := 1 << bits
	for y := 1; y < height; y++ {
		inRow := residuals[y*width : (y+1)*width]
		outRow := out[y*width : (y+1)*width]
		upper := out[(y-1)*width:]

		// First pixel of the row: top.
		outRow[0] = dsp.AddPixels(inRow[0], upper[0])

		tileY := y >> bits
		x := 1
		for x < width {
			mode := int(m.At(x>>bits, tileY).Mode)
			xEnd := min((x&^(tileSize-1))+tileSize, width)
			dsp.PredictorsAdd[mode](inRow[x:xEnd], upper, x, xEnd-x, outRow)
			x = xEnd
		}
	}
}

// InverseColorTransform undoes SelectColorTransforms in place.
func InverseColorTransform(argb []uint32, width, height int, m *ModeMap) {
	checkImage(argb, width, height)
	checkModeMap(m, TileCrossColor, width, height)

	bits := m.Bits
	tileSize := 1 << bits
	for y := 0; y < height; y++ {
		row := argb[y*width : (y+1)*width]
		tileY := y >> bits
		for x := 0; x < width; x += tileSize {
			n := min(tileSize, width-x)
			dsp.TransformColorInverse(m.At(x>>bits, tileY).Mult, row[x:], n, row[x:])
		}
	}
}
