package lossless

// sameCode reports whether a and b code a tile the same way. Only the
// field the kind uses takes part, as in the packed form.
func sameCode(a, b TileCode) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == TileCrossColor {
		return a.Mult == b.Mult
	}
	return a.Mode == b.Mode
}

// uniformBlock reports whether the size x size block of tiles whose
// top-left tile is (tileX, tileY) holds a single code. Blocks on the right
// and bottom edges are clipped to the grid.
func (m *ModeMap) uniformBlock(tileX, tileY, size int) bool {
	first := m.At(tileX, tileY)
	endX := min(tileX+size, m.TilesPerRow)
	endY := min(tileY+size, m.TilesPerCol)
	for y := tileY; y < endY; y++ {
		for x := tileX; x < endX; x++ {
			if !sameCode(m.At(x, y), first) {
				return false
			}
		}
	}
	return true
}

// coarsens reports whether every aligned size x size block of tiles is
// uniform, i.e. whether the grid can be subsampled by size.
func (m *ModeMap) coarsens(size int) bool {
	for y := 0; y < m.TilesPerCol; y += size {
		for x := 0; x < m.TilesPerRow; x += size {
			if !m.uniformBlock(x, y, size) {
				return false
			}
		}
	}
	return true
}

// OptimizeSampling checks whether the tile grid of m can be made coarser
// without changing any pixel's code: it finds the largest tile size, up to
// 1<<maxBits, such that every square of that size holds a single code, then
// subsamples m in place. It returns the new m.Bits.
func OptimizeSampling(m *ModeMap, fullWidth, fullHeight, maxBits int) int {
	checkModeMap(m, m.Kind, fullWidth, fullHeight)
	maxBits = min(maxBits, MaxTransformBits)

	// A grid that is uniform at some block size is uniform at every smaller
	// one, so the first failure ends the search.
	bestBits := m.Bits
	for bestBits < maxBits && m.coarsens(1<<(bestBits+1-m.Bits)) {
		bestBits++
	}
	if bestBits == m.Bits {
		return m.Bits
	}

	// Each new tile keeps the code of the old tile at its top-left corner.
	// The new index never passes the old one, so this works in place.
	step := 1 << (bestBits - m.Bits)
	newWidth := VP8LSubSampleSize(fullWidth, bestBits)
	newHeight := VP8LSubSampleSize(fullHeight, bestBits)
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			m.Codes[y*newWidth+x] = m.At(x*step, y*step)
		}
	}
	m.Bits = bestBits
	m.TilesPerRow = newWidth
	m.TilesPerCol = newHeight
	m.Codes = m.Codes[:newWidth*newHeight]
	return bestBits
}
