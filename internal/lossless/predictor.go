package lossless

import (
	"errors"
	"math"
)

// Spatial predictor selection.
//
// Tiles are visited in raster order. For each tile every predictor mode is
// tried on a private copy of the tile and its causal context, and the mode
// with the lowest estimated cost wins. The cost combines how well the
// residuals cluster around zero, how much they add to the entropy of what
// has already been chosen, and a bonus for agreeing with the left and above
// tiles.

// ErrAborted is returned when a ProgressFunc asks to stop.
var ErrAborted = errors.New("lossless: aborted by progress callback")

// ProgressFunc receives the completed share of a pass in percent after each
// row of tiles. Returning false aborts the pass.
type ProgressFunc func(percent int) bool

// reportProgress calls progress, if any, with done rows out of total.
func reportProgress(progress ProgressFunc, done, total int) error {
	if progress == nil {
		return nil
	}
	if !progress(done * 100 / total) {
		return ErrAborted
	}
	return nil
}

// predictorSearch holds the scratch state of one SelectPredictors call.
type predictorSearch struct {
	argb              []uint32
	width, height     int
	bits              int
	maxQuantization   int
	exact             bool
	usedSubtractGreen bool

	win         *rowWindow
	maxDiffs    []uint8
	residuals   []uint32
	accumulated Histo
	histo       Histo
	best        Histo
}

// SelectPredictors chooses a predictor mode for every tile of the
// width x height image argb, tiles being 1<<bits pixels square. argb is not
// modified. It returns the mode map and the histogram of the residuals the
// chosen modes produce.
//
// maxQuantization, exact and usedSubtractGreen must be the values the
// residual pass will use, so that the search sees the same near-lossless
// reconstruction.
func SelectPredictors(argb []uint32, width, height, bits, maxQuantization int, exact, usedSubtractGreen bool, progress ProgressFunc) (*ModeMap, Histo, error) {
	checkImage(argb, width, height)
	checkBits(bits)

	s := newPredictorSearch(argb, width, height, bits, maxQuantization, exact, usedSubtractGreen)
	defer s.win.release()

	modes := NewModeMap(TileSpatial, width, height, bits)
	for tileY := 0; tileY < modes.TilesPerCol; tileY++ {
		for tileX := 0; tileX < modes.TilesPerRow; tileX++ {
			mode := s.bestPredictorForTile(modes, tileX, tileY)
			modes.Set(tileX, tileY, SpatialCode(mode))
		}
		if err := reportProgress(progress, tileY+1, modes.TilesPerCol); err != nil {
			return nil, Histo{}, err
		}
	}
	return modes, s.accumulated, nil
}

// newPredictorSearch sets up the scratch state. The caller must release
// s.win.
func newPredictorSearch(argb []uint32, width, height, bits, maxQuantization int, exact, usedSubtractGreen bool) *predictorSearch {
	quantize := maxQuantization > 1 && !exact
	s := &predictorSearch{
		argb:              argb,
		width:             width,
		height:            height,
		bits:              bits,
		maxQuantization:   maxQuantization,
		exact:             exact,
		usedSubtractGreen: usedSubtractGreen,
		win:               newRowWindow(width, quantize),
		residuals:         make([]uint32, 1<<bits),
	}
	if quantize {
		s.maxDiffs = s.win.maxDiffRow()
	}
	return s
}

// bestPredictorForTile runs the mode search for one tile and folds the
// winner's histogram into the running one. modes must already hold the
// decisions of all tiles before this one.
func (s *predictorSearch) bestPredictorForTile(modes *ModeMap, tileX, tileY int) int {
	width, height := s.width, s.height
	startX, startY, maxX, maxY := tileBounds(tileX, tileY, s.bits, width, height)

	// Columns just outside the tile, if they exist.
	haveLeft := 0
	if startX > 0 {
		haveLeft = 1
	}
	haveRight := 0
	if maxX < width-startX {
		haveRight = 1
	}
	// Strip covering the tile and its adjacent columns.
	contextStartX := startX - haveLeft
	contextWidth := maxX + haveLeft + haveRight

	leftMode := noNeighbourMode
	if tileX > 0 {
		leftMode = int(modes.At(tileX-1, tileY).Mode)
	}
	aboveMode := noNeighbourMode
	if tileY > 0 {
		aboveMode = int(modes.At(tileX, tileY-1).Mode)
	}

	bestCost := math.MaxFloat64
	bestMode := 0
	residuals := s.residuals[:maxX]
	for mode := 0; mode < NumPredModes; mode++ {
		s.histo = Histo{}
		if startY > 0 {
			// The row above the tile becomes the first upper row. It carries
			// the pixel to the left if any and always one pixel to the right,
			// which wraps to the next row's first pixel at the right edge.
			row := s.argb[(startY-1)*width:]
			copy(s.win.currentRow()[contextStartX:], row[contextStartX:contextStartX+maxX+haveLeft+1])
		}
		for relY := 0; relY < maxY; relY++ {
			y := startY + relY
			s.win.swap()
			current := s.win.currentRow()
			// One pixel to the right except at the bottom-right corner.
			n := maxX + haveLeft
			if y+1 < height {
				n++
			}
			copy(current[contextStartX:], s.argb[y*width+contextStartX:y*width+contextStartX+n])
			if s.maxDiffs != nil && y >= 1 && y+1 < height {
				maxDiffsForRow(contextWidth,
					s.argb[(y-1)*width+contextStartX:],
					s.argb[y*width+contextStartX:],
					s.argb[(y+1)*width+contextStartX:],
					s.maxDiffs[contextStartX:], s.usedSubtractGreen)
			}
			getResidual(width, height, s.win.upperRow(), current, s.maxDiffs, mode,
				startX, startX+maxX, y, s.maxQuantization, s.exact, s.usedSubtractGreen, residuals)
			for _, r := range residuals {
				s.histo.AddPixel(r)
			}
		}

		cost := predictionCost(&s.accumulated, &s.histo)
		// Favor keeping the areas locally similar.
		if mode == leftMode {
			cost -= predModeBias
		}
		if mode == aboveMode {
			cost -= predModeBias
		}
		if cost < bestCost {
			bestCost = cost
			bestMode = mode
			s.best = s.histo
		}
	}

	s.accumulated.Add(&s.best)
	return bestMode
}
