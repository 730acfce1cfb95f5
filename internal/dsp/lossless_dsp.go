package dsp

// VP8L color transforms (batch versions).
// These operate on slices of ARGB uint32 pixels.

// Multipliers holds the three cross-color coefficients of one tile, in 3.5
// fixed point (32 == 1.0).
type Multipliers struct {
	GreenToRed  int8
	GreenToBlue int8
	RedToBlue   int8
}

// Pack returns the wire form of m: 0xff000000 | r2b<<16 | g2b<<8 | g2r.
func (m Multipliers) Pack() uint32 {
	return 0xff000000 |
		uint32(uint8(m.RedToBlue))<<16 |
		uint32(uint8(m.GreenToBlue))<<8 |
		uint32(uint8(m.GreenToRed))
}

// UnpackMultipliers is the inverse of Multipliers.Pack.
func UnpackMultipliers(code uint32) Multipliers {
	return Multipliers{
		GreenToRed:  int8(code & 0xff),
		GreenToBlue: int8((code >> 8) & 0xff),
		RedToBlue:   int8((code >> 16) & 0xff),
	}
}

// AddGreenToBlueAndRed adds the green channel to both the red and blue channels
// for each pixel in the row. This is the inverse of the SubtractGreen transform.
func AddGreenToBlueAndRed(argb []uint32, numPixels int) {
	for i := 0; i < numPixels; i++ {
		p := argb[i]
		green := (p >> 8) & 0xff
		redBlue := (p & 0x00ff00ff) + (green * 0x00010001)
		redBlue &= 0x00ff00ff
		argb[i] = (p & 0xff00ff00) | redBlue
	}
}

// SubtractGreen subtracts the green channel from both the red and blue channels
// for each pixel.
func SubtractGreen(argb []uint32, numPixels int) {
	for i := 0; i < numPixels; i++ {
		p := argb[i]
		green := (p >> 8) & 0xff
		r := ((p >> 16) & 0xff) - green
		b := (p & 0xff) - green
		argb[i] = (p & 0xff00ff00) | ((r & 0xff) << 16) | (b & 0xff)
	}
}

// TransformColorInverse applies the inverse color-space transform to a row
// of pixels using the given multipliers.
func TransformColorInverse(m Multipliers, src []uint32, numPixels int, dst []uint32) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		green := int32((argb >> 8) & 0xff)
		red := int32((argb >> 16) & 0xff)
		blue := int32(argb & 0xff)

		red += ColorTransformDelta(m.GreenToRed, green)
		red &= 0xff
		blue += ColorTransformDelta(m.GreenToBlue, green)
		blue += ColorTransformDelta(m.RedToBlue, red)
		blue &= 0xff

		dst[i] = (argb & 0xff00ff00) | (uint32(red) << 16) | uint32(blue)
	}
}

// TransformColor applies the forward color-space transform to a row of
// pixels. src and dst may alias.
func TransformColor(m Multipliers, src []uint32, numPixels int, dst []uint32) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		green := int32((argb >> 8) & 0xff)
		red := int32((argb >> 16) & 0xff)
		blue := int32(argb & 0xff)

		newRed := red - ColorTransformDelta(m.GreenToRed, green)
		newRed &= 0xff
		newBlue := blue - ColorTransformDelta(m.GreenToBlue, green)
		newBlue -= ColorTransformDelta(m.RedToBlue, red)
		newBlue &= 0xff

		dst[i] = (argb & 0xff00ff00) | (uint32(newRed) << 16) | uint32(newBlue)
	}
}

// ColorTransformDelta computes (multiplier * int8(value)) >> 5, sign-extending
// both operands.
func ColorTransformDelta(multiplier int8, value int32) int32 {
	return (int32(multiplier) * int32(int8(value))) >> 5
}

// ---------------------------------------------------------------------------
// Histogram collectors for the cross-color search
// ---------------------------------------------------------------------------

// CollectColorRedTransforms adds to histo the red channel every pixel of the
// tileWidth x tileHeight block at argb (row pitch stride) would have after
// a green-to-red transform with coefficient greenToRed.
func CollectColorRedTransforms(argb []uint32, stride, tileWidth, tileHeight int, greenToRed int8, histo *[256]uint32) {
	for y := 0; y < tileHeight; y++ {
		row := argb[y*stride : y*stride+tileWidth]
		for _, p := range row {
			green := int32((p >> 8) & 0xff)
			newRed := int32((p>>16)&0xff) - ColorTransformDelta(greenToRed, green)
			histo[newRed&0xff]++
		}
	}
}

// CollectColorBlueTransforms is the blue-channel counterpart of
// CollectColorRedTransforms. The red used for the red-to-blue term is the
// pixel's original red.
func CollectColorBlueTransforms(argb []uint32, stride, tileWidth, tileHeight int, greenToBlue, redToBlue int8, histo *[256]uint32) {
	for y := 0; y < tileHeight; y++ {
		row := argb[y*stride : y*stride+tileWidth]
		for _, p := range row {
			green := int32((p >> 8) & 0xff)
			red := int32((p >> 16) & 0xff)
			newBlue := int32(p&0xff) -
				ColorTransformDelta(greenToBlue, green) -
				ColorTransformDelta(redToBlue, red)
			histo[newBlue&0xff]++
		}
	}
}
