package lossless

import (
	"fmt"

	"github.com/deepteams/vp8lpred/internal/dsp"
)

// TileKind tells which transform a TileCode parameterises.
type TileKind uint8

const (
	// TileSpatial codes carry a predictor mode.
	TileSpatial TileKind = iota
	// TileCrossColor codes carry cross-color multipliers.
	TileCrossColor
)

func (k TileKind) String() string {
	switch k {
	case TileSpatial:
		return "spatial"
	case TileCrossColor:
		return "cross-color"
	default:
		return fmt.Sprintf("TileKind(%d)", uint8(k))
	}
}

// TileCode is the per-tile decision: a predictor mode for spatial tiles or
// a multiplier triple for cross-color tiles. Only the field matching Kind is
// meaningful.
type TileCode struct {
	Kind TileKind
	Mode uint8
	Mult dsp.Multipliers
}

// SpatialCode returns the code of a spatial tile predicted with mode.
func SpatialCode(mode int) TileCode {
	return TileCode{Kind: TileSpatial, Mode: uint8(mode)}
}

// CrossColorCode returns the code of a cross-color tile.
func CrossColorCode(m dsp.Multipliers) TileCode {
	return TileCode{Kind: TileCrossColor, Mult: m}
}

// Pack returns the 32-bit wire form of c.
//
//	spatial:     0xff000000 | mode << 8
//	cross-color: 0xff000000 | redToBlue << 16 | greenToBlue << 8 | greenToRed
func (c TileCode) Pack() uint32 {
	if c.Kind == TileCrossColor {
		return c.Mult.Pack()
	}
	return ARGBBlack | uint32(c.Mode)<<8
}

// UnpackTileCode is the inverse of TileCode.Pack for the given kind.
func UnpackTileCode(kind TileKind, code uint32) TileCode {
	if kind == TileCrossColor {
		return CrossColorCode(dsp.UnpackMultipliers(code))
	}
	return SpatialCode(int((code >> 8) & 0xff))
}

// ModeMap is the grid of per-tile decisions covering an image. Tiles are
// 1<<Bits pixels square; the last row and column may be clipped. Codes are
// stored row-major, TilesPerRow entries per row.
type ModeMap struct {
	Kind        TileKind
	Bits        int
	TilesPerRow int
	TilesPerCol int
	Codes       []TileCode
}

// NewModeMap allocates a map of kind for a width x height image. Every tile
// starts out as the zero code of its kind (mode 0, or zero multipliers).
func NewModeMap(kind TileKind, width, height, bits int) *ModeMap {
	checkBits(bits)
	tilesPerRow := VP8LSubSampleSize(width, bits)
	tilesPerCol := VP8LSubSampleSize(height, bits)
	m := &ModeMap{
		Kind:        kind,
		Bits:        bits,
		TilesPerRow: tilesPerRow,
		TilesPerCol: tilesPerCol,
		Codes:       make([]TileCode, tilesPerRow*tilesPerCol),
	}
	for i := range m.Codes {
		m.Codes[i].Kind = kind
	}
	return m
}

// At returns the code of tile (tileX, tileY).
func (m *ModeMap) At(tileX, tileY int) TileCode {
	return m.Codes[tileY*m.TilesPerRow+tileX]
}

// Set stores the code of tile (tileX, tileY).
func (m *ModeMap) Set(tileX, tileY int, c TileCode) {
	m.Codes[tileY*m.TilesPerRow+tileX] = c
}

// Covers reports whether m has the tile grid of a width x height image.
func (m *ModeMap) Covers(width, height int) bool {
	return m.TilesPerRow == VP8LSubSampleSize(width, m.Bits) &&
		m.TilesPerCol == VP8LSubSampleSize(height, m.Bits) &&
		len(m.Codes) == m.TilesPerRow*m.TilesPerCol
}

// Packed returns the wire form of the map, one uint32 per tile.
func (m *ModeMap) Packed() []uint32 {
	out := make([]uint32, len(m.Codes))
	for i, c := range m.Codes {
		out[i] = c.Pack()
	}
	return out
}

// Histogram counts how many tiles use each predictor mode. It is only
// meaningful for spatial maps.
func (m *ModeMap) Histogram() [NumPredModes]int {
	var counts [NumPredModes]int
	for _, c := range m.Codes {
		if int(c.Mode) < NumPredModes {
			counts[c.Mode]++
		}
	}
	return counts
}

// UnpackModeMap rebuilds a map of kind from its packed wire form.
func UnpackModeMap(kind TileKind, bits, width, height int, packed []uint32) (*ModeMap, error) {
	if bits < MinTransformBits || bits > MaxTransformBits {
		return nil, fmt.Errorf("lossless: transform bits %d out of range", bits)
	}
	m := NewModeMap(kind, width, height, bits)
	if len(packed) != len(m.Codes) {
		return nil, fmt.Errorf("lossless: packed map has %d codes, want %d", len(packed), len(m.Codes))
	}
	for i, code := range packed {
		c := UnpackTileCode(kind, code)
		if kind == TileSpatial && int(c.Mode) >= NumPredModes {
			return nil, fmt.Errorf("lossless: tile %d has invalid predictor mode %d", i, c.Mode)
		}
		m.Codes[i] = c
	}
	return m, nil
}

// tileBounds returns the pixel extent of tile (tileX, tileY) clipped to the
// image: its origin and its width and height.
func tileBounds(tileX, tileY, bits, width, height int) (startX, startY, tileWidth, tileHeight int) {
	tileSize := 1 << bits
	startX = tileX << bits
	startY = tileY << bits
	tileWidth = min(tileSize, width-startX)
	tileHeight = min(tileSize, height-startY)
	return startX, startY, tileWidth, tileHeight
}

// checkBits panics when bits is outside [MinTransformBits, MaxTransformBits].
func checkBits(bits int) {
	if bits < MinTransformBits || bits > MaxTransformBits {
		panic(fmt.Sprintf("lossless: transform bits %d out of range [%d, %d]", bits, MinTransformBits, MaxTransformBits))
	}
}

// checkImage panics unless argb holds exactly a width x height image.
func checkImage(argb []uint32, width, height int) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("lossless: invalid image size %dx%d", width, height))
	}
	if len(argb) != width*height {
		panic(fmt.Sprintf("lossless: buffer holds %d pixels, want %d", len(argb), width*height))
	}
}
