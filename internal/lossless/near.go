package lossless

import "github.com/deepteams/vp8lpred/internal/dsp"

// Near-lossless residual quantization.
//
// Instead of coding the exact difference between a pixel and its
// prediction, each channel of the residual is rounded to a multiple of a
// power-of-two step. The step is capped by how much the pixel already
// differs from its 4-neighbourhood so that flat areas stay exact, and the
// reconstructed value never wraps across the channel's valid range.

// NearLosslessBits returns the quantization level from quality.
// Maps quality ranges to bits:
//
//	100     -> 0
//	80..99  -> 1
//	60..79  -> 2
//	40..59  -> 3
//	20..39  -> 4
//	 0..19  -> 5
func NearLosslessBits(nearLosslessQuality int) int {
	return MaxNearLosslessBits - nearLosslessQuality/20
}

// MaxQuantization returns the largest quantization step for the given
// near-lossless quality; 1 means exact coding.
func MaxQuantization(nearLosslessQuality int) int {
	bits := NearLosslessBits(nearLosslessQuality)
	if bits <= 0 {
		return 1
	}
	return 1 << bits
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// maxDiffBetweenPixels returns the largest per-channel absolute difference.
func maxDiffBetweenPixels(p1, p2 uint32) int {
	diffA := absInt(int(p1>>24) - int(p2>>24))
	diffR := absInt(int((p1>>16)&0xff) - int((p2>>16)&0xff))
	diffG := absInt(int((p1>>8)&0xff) - int((p2>>8)&0xff))
	diffB := absInt(int(p1&0xff) - int(p2&0xff))
	return max(diffA, diffR, diffG, diffB)
}

func maxDiffAroundPixel(current, up, down, left, right uint32) int {
	return max(
		maxDiffBetweenPixels(current, up),
		maxDiffBetweenPixels(current, down),
		maxDiffBetweenPixels(current, left),
		maxDiffBetweenPixels(current, right),
	)
}

// addGreen undoes subtract-green on a single pixel.
func addGreen(argb uint32) uint32 {
	green := (argb >> 8) & 0xff
	redBlue := argb & 0x00ff00ff
	redBlue += (green << 16) | green
	redBlue &= 0x00ff00ff
	return (argb & 0xff00ff00) | redBlue
}

// maxDiffsForRow fills maxDiffs[1:width-1] with the largest channel
// difference between each pixel of row and its four neighbours. up and down
// are the rows above and below, indexed like row. maxDiffs[0] and
// maxDiffs[width-1] are never written. Rows of width <= 2 are skipped.
func maxDiffsForRow(width int, up, row, down []uint32, maxDiffs []uint8, usedSubtractGreen bool) {
	if width <= 2 {
		return
	}
	current := row[0]
	right := row[1]
	if usedSubtractGreen {
		current = addGreen(current)
		right = addGreen(right)
	}
	for x := 1; x < width-1; x++ {
		u := up[x]
		d := down[x]
		left := current
		current = right
		right = row[x+1]
		if usedSubtractGreen {
			u = addGreen(u)
			d = addGreen(d)
			right = addGreen(right)
		}
		maxDiffs[x] = uint8(maxDiffAroundPixel(current, u, d, left, right))
	}
}

// nearLosslessComponent quantizes the difference between value and predict
// to a multiple of quantization, working modulo 256 without crossing
// boundary (an inclusive upper limit on the reconstructed value).
func nearLosslessComponent(value, predict, boundary uint8, quantization int) uint8 {
	residual := int(value-predict) & 0xff
	boundaryResidual := int(boundary-predict) & 0xff
	lower := residual &^ (quantization - 1)
	upper := lower + quantization
	// Ties go to the candidate closer to the prediction: lower when value
	// comes after the prediction, upper otherwise.
	bias := 0
	if int(boundary-value)&0xff < boundaryResidual {
		bias = 1
	}
	if residual-lower < upper-residual+bias {
		// lower is closer. Halve the step rather than cross the boundary;
		// the midpoint stays on the residual's side.
		if residual > boundaryResidual && lower <= boundaryResidual {
			return uint8(lower + quantization>>1)
		}
		return uint8(lower)
	}
	// upper is closer.
	if residual <= boundaryResidual && upper > boundaryResidual {
		return uint8(lower + quantization>>1)
	}
	return uint8(upper & 0xff)
}

// nearLossless returns the quantized residual of value against predict.
// The step is the largest power of two below both maxQuantization and
// maxDiff. Fully transparent and fully opaque alpha is kept exact. When the
// image went through subtract-green, red and blue are coded as offsets from
// green, so the rounding applied to green is compensated in them.
func nearLossless(value, predict uint32, maxQuantization, maxDiff int, usedSubtractGreen bool) uint32 {
	if maxDiff <= 2 {
		return dsp.SubPixels(value, predict)
	}
	quantization := maxQuantization
	for quantization >= maxDiff {
		quantization >>= 1
	}

	var a uint8
	if value>>24 == 0 || value>>24 == 0xff {
		a = uint8(value>>24) - uint8(predict>>24)
	} else {
		a = nearLosslessComponent(uint8(value>>24), uint8(predict>>24), 0xff, quantization)
	}
	g := nearLosslessComponent(uint8(value>>8), uint8(predict>>8), 0xff, quantization)

	var newGreen, greenDiff uint8
	if usedSubtractGreen {
		newGreen = uint8(predict>>8) + g
		greenDiff = newGreen - uint8(value>>8)
	}
	r := nearLosslessComponent(uint8(value>>16)-greenDiff, uint8(predict>>16), 0xff-newGreen, quantization)
	b := nearLosslessComponent(uint8(value)-greenDiff, uint8(predict), 0xff-newGreen, quantization)
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
