package lossless

import "github.com/deepteams/vp8lpred/internal/dsp"

// Cross-color transform selection.
//
// For every tile a coordinate descent over the three multipliers looks for
// the transform that best decorrelates red and blue from green (and blue
// from red). The tile is rewritten with the winner before the next tile is
// searched, so later tiles see transformed neighbours.

const (
	greenRedToBlueNumAxis  = 8
	greenRedToBlueMaxIters = 7
)

// greenRedToBlueOffsets are the search directions, as (greenToBlue,
// redToBlue) unit steps.
var greenRedToBlueOffsets = [greenRedToBlueNumAxis][2]int{
	{0, -1}, {0, 1}, {-1, 0}, {1, 0}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

var greenRedToBlueDeltas = [greenRedToBlueMaxIters]int{16, 16, 8, 4, 2, 2, 2}

// colorTile is the block of pixels one cross-color decision covers.
type colorTile struct {
	argb          []uint32 // first pixel of the tile
	stride        int
	width, height int
}

// coeffBias returns the bonus for a coefficient equal to the left tile's,
// the above tile's, or zero.
func coeffBias(coeff, prevX, prevY int8) float64 {
	var bias float64
	if coeff == prevX {
		bias += colorCoeffBias
	}
	if coeff == prevY {
		bias += colorCoeffBias
	}
	if coeff == 0 {
		bias += colorCoeffBias
	}
	return bias
}

func greenToRedCost(t *colorTile, prevX, prevY dsp.Multipliers, greenToRed int, accumulated *[256]uint32) float64 {
	var histo [256]uint32
	g2r := int8(greenToRed)
	dsp.CollectColorRedTransforms(t.argb, t.stride, t.width, t.height, g2r, &histo)
	cost := colorPredictionCost(accumulated, &histo)
	return cost - coeffBias(g2r, prevX.GreenToRed, prevY.GreenToRed)
}

func greenRedToBlueCost(t *colorTile, prevX, prevY dsp.Multipliers, greenToBlue, redToBlue int, accumulated *[256]uint32) float64 {
	var histo [256]uint32
	g2b, r2b := int8(greenToBlue), int8(redToBlue)
	dsp.CollectColorBlueTransforms(t.argb, t.stride, t.width, t.height, g2b, r2b, &histo)
	cost := colorPredictionCost(accumulated, &histo)
	cost -= coeffBias(g2b, prevX.GreenToBlue, prevY.GreenToBlue)
	cost -= coeffBias(r2b, prevX.RedToBlue, prevY.RedToBlue)
	return cost
}

// bestGreenToRed searches greenToRed by halving steps from 32.
func bestGreenToRed(t *colorTile, prevX, prevY dsp.Multipliers, quality int, accumulated *[256]uint32) int8 {
	maxIters := 4 + ((7 * quality) >> 8) // in range [4..6]
	best := 0
	bestCost := greenToRedCost(t, prevX, prevY, best, accumulated)
	for iter := 0; iter < maxIters; iter++ {
		delta := 32 >> iter
		for offset := -delta; offset <= delta; offset += 2 * delta {
			cur := best + offset
			cost := greenToRedCost(t, prevX, prevY, cur, accumulated)
			if cost < bestCost {
				bestCost = cost
				best = cur
			}
		}
	}
	return int8(best)
}

// bestGreenRedToBlue searches greenToBlue and redToBlue jointly along eight
// directions with a shrinking step.
func bestGreenRedToBlue(t *colorTile, prevX, prevY dsp.Multipliers, quality int, accumulated *[256]uint32) (int8, int8) {
	iters := 4
	switch {
	case quality < 25:
		iters = 1
	case quality > 50:
		iters = greenRedToBlueMaxIters
	}
	bestG2B, bestR2B := 0, 0
	bestCost := greenRedToBlueCost(t, prevX, prevY, bestG2B, bestR2B, accumulated)
	for iter := 0; iter < iters; iter++ {
		delta := greenRedToBlueDeltas[iter]
		for _, off := range greenRedToBlueOffsets {
			g2b := off[0]*delta + bestG2B
			r2b := off[1]*delta + bestR2B
			cost := greenRedToBlueCost(t, prevX, prevY, g2b, r2b, accumulated)
			if cost < bestCost {
				bestCost = cost
				bestG2B, bestR2B = g2b, r2b
			}
		}
		if delta == 2 && bestG2B == 0 && bestR2B == 0 {
			// Further iterations would not help.
			break
		}
	}
	return int8(bestG2B), int8(bestR2B)
}

// SelectColorTransforms chooses cross-color multipliers for every tile of
// the width x height image argb and applies them in place. quality (0-100)
// controls how long the searches run.
//
// Tiles are visited in raster order. The previous tile in that order and
// the tile above bias each search towards their coefficients. Red and blue
// of every transformed pixel feed the running histograms, except pixels a
// backward reference would cover anyway (a run of three equal pixels, or a
// pixel whose two left neighbours and itself repeat the row above).
func SelectColorTransforms(argb []uint32, width, height, bits, quality int, progress ProgressFunc) (*ModeMap, error) {
	checkImage(argb, width, height)
	checkBits(bits)

	m := NewModeMap(TileCrossColor, width, height, bits)
	var accumulatedRed, accumulatedBlue [256]uint32
	var prevX, prevY dsp.Multipliers
	for tileY := 0; tileY < m.TilesPerCol; tileY++ {
		for tileX := 0; tileX < m.TilesPerRow; tileX++ {
			startX, startY, tileWidth, tileHeight := tileBounds(tileX, tileY, bits, width, height)
			if tileY != 0 {
				prevY = m.At(tileX, tileY-1).Mult
			}
			t := &colorTile{
				argb:   argb[startY*width+startX:],
				stride: width,
				width:  tileWidth,
				height: tileHeight,
			}

			var best dsp.Multipliers
			best.GreenToRed = bestGreenToRed(t, prevX, prevY, quality, &accumulatedRed)
			best.GreenToBlue, best.RedToBlue = bestGreenRedToBlue(t, prevX, prevY, quality, &accumulatedBlue)
			m.Set(tileX, tileY, CrossColorCode(best))
			prevX = best

			for y := 0; y < tileHeight; y++ {
				row := t.argb[y*width : y*width+tileWidth]
				dsp.TransformColor(best, row, tileWidth, row)
			}
			accumulateColorHisto(argb, width, startX, startY, tileWidth, tileHeight, &accumulatedRed, &accumulatedBlue)
		}
		if err := reportProgress(progress, tileY+1, m.TilesPerCol); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// accumulateColorHisto folds red and blue of the tile's pixels into the
// running histograms, skipping repeats.
func accumulateColorHisto(argb []uint32, width, startX, startY, tileWidth, tileHeight int, red, blue *[256]uint32) {
	for y := startY; y < startY+tileHeight; y++ {
		ix := y*width + startX
		ixEnd := ix + tileWidth
		for ; ix < ixEnd; ix++ {
			pix := argb[ix]
			if ix >= 2 && pix == argb[ix-2] && pix == argb[ix-1] {
				continue
			}
			if ix >= width+2 && argb[ix-2] == argb[ix-width-2] &&
				argb[ix-1] == argb[ix-width-1] && pix == argb[ix-width] {
				continue
			}
			red[(pix>>16)&0xff]++
			blue[pix&0xff]++
		}
	}
}
