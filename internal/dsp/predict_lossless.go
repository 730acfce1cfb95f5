package dsp

// VP8L spatial predictors (modes 0-13).
//
// Three views of every predictor are exported:
//   - Predictors:    scalar form, one predicted pixel from its neighbours.
//   - PredictorsSub: batched residual form used by the encoder.
//   - PredictorsAdd: batched reconstruction form used by the decoder.
//
// The three share the scalar arithmetic so that encoder and decoder can never
// drift apart.
//
// Convention for the scalar form: top is a three-element window where
//   - top[0] = top-left pixel (TL)
//   - top[1] = top pixel (T, directly above current)
//   - top[2] = top-right pixel (TR)

// NumPredictors is the number of VP8L spatial predictors.
const NumPredictors = 14

// ARGBBlack is opaque black, the prediction of mode 0.
const ARGBBlack = 0xff000000

// LosslessPredFunc is the signature for VP8L spatial predictors.
type LosslessPredFunc func(left uint32, top []uint32) uint32

// LosslessPredSubFunc writes numPixels residuals of the row segment starting
// at xStart. in is the current row and upper the row above it; both are
// indexed with image x coordinates and upper must hold one pixel past the
// last column (the top-right context of the rightmost pixel). in[xStart-1]
// and upper[xStart-1] are read, so xStart must be at least 1 unless the mode
// reads neither left nor top-left.
type LosslessPredSubFunc func(in, upper []uint32, xStart, numPixels int, out []uint32)

// LosslessPredAddFunc is the inverse of LosslessPredSubFunc: it reconstructs
// numPixels pixels of out starting at xStart from residuals in[0:numPixels].
// out doubles as the current row, so left neighbours are read back from it.
type LosslessPredAddFunc func(in, upper []uint32, xStart, numPixels int, out []uint32)

// Predictor tables, indexed by mode.
var (
	Predictors    [NumPredictors]LosslessPredFunc
	PredictorsSub [NumPredictors]LosslessPredSubFunc
	PredictorsAdd [NumPredictors]LosslessPredAddFunc
)

// SubPixels computes component-wise (a - b) mod 256.
// The bias constants prevent borrow propagation between adjacent channels.
func SubPixels(a, b uint32) uint32 {
	alphaAndGreen := 0x00ff00ff + (a & 0xff00ff00) - (b & 0xff00ff00)
	redAndBlue := 0xff00ff00 + (a & 0x00ff00ff) - (b & 0x00ff00ff)
	return (alphaAndGreen & 0xff00ff00) | (redAndBlue & 0x00ff00ff)
}

// AddPixels computes component-wise (a + b) mod 256.
func AddPixels(a, b uint32) uint32 {
	alphaAndGreen := (a & 0xff00ff00) + (b & 0xff00ff00)
	redAndBlue := (a & 0x00ff00ff) + (b & 0x00ff00ff)
	return (alphaAndGreen & 0xff00ff00) | (redAndBlue & 0x00ff00ff)
}

// lAverage2 computes the average of two ARGB pixels per component without
// overflow: ((a ^ b) & 0xfefefefe) >> 1 + (a & b).
func lAverage2(a, b uint32) uint32 {
	return (((a ^ b) & 0xfefefefe) >> 1) + (a & b)
}

// lAverage3 computes average3(a, b, c) = average2(average2(a, c), b).
func lAverage3(a, b, c uint32) uint32 {
	return lAverage2(lAverage2(a, c), b)
}

// lAverage4 computes average4(a, b, c, d) = average2(average2(a, b), average2(c, d)).
func lAverage4(a, b, c, d uint32) uint32 {
	return lAverage2(lAverage2(a, b), lAverage2(c, d))
}

func lAbs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// lSelect implements the Select predictor with a = T, b = L, c = TL.
// It returns whichever of T and L lies closer to the gradient estimate
// L + T - TL (summed over all four channels), T on ties.
func lSelect(a, b, c uint32) uint32 {
	paMinusPb := int32(0)
	for shift := uint(0); shift < 32; shift += 8 {
		ac := int32((a>>shift)&0xff) - int32((c>>shift)&0xff)
		bc := int32((b>>shift)&0xff) - int32((c>>shift)&0xff)
		paMinusPb += lAbs(bc) - lAbs(ac)
	}
	if paMinusPb <= 0 {
		return a
	}
	return b
}

// lClamp clamps a per-component value to [0, 255].
func lClamp(a int32) uint8 {
	if a < 0 {
		return 0
	}
	if a > 255 {
		return 255
	}
	return uint8(a)
}

// lClampedAddSubtractFull computes L + T - TL per component, clamped.
func lClampedAddSubtractFull(a, b, c uint32) uint32 {
	var result uint32
	for shift := uint(0); shift < 32; shift += 8 {
		va := int32((a >> shift) & 0xff)
		vb := int32((b >> shift) & 0xff)
		vc := int32((c >> shift) & 0xff)
		result |= uint32(lClamp(va+vb-vc)) << shift
	}
	return result
}

// lClampedAddSubtractHalf computes avg(L, T) + (avg(L, T) - TL) / 2 per
// component, clamped.
func lClampedAddSubtractHalf(a, b, c uint32) uint32 {
	avg := lAverage2(a, b)
	var result uint32
	for shift := uint(0); shift < 32; shift += 8 {
		va := int32((avg >> shift) & 0xff)
		vc := int32((c >> shift) & 0xff)
		result |= uint32(lClamp(va+(va-vc)/2)) << shift
	}
	return result
}

// Predictor implementations.
// top[0] = TL, top[1] = T, top[2] = TR

// pred0 returns ARGB_BLACK (opaque black).
func pred0(_ uint32, _ []uint32) uint32 {
	return ARGBBlack
}

// pred1 returns L (left pixel).
func pred1(left uint32, _ []uint32) uint32 {
	return left
}

// pred2 returns T (top pixel).
func pred2(_ uint32, top []uint32) uint32 {
	return top[1]
}

// pred3 returns TR (top-right pixel).
func pred3(_ uint32, top []uint32) uint32 {
	return top[2]
}

// pred4 returns TL (top-left pixel).
func pred4(_ uint32, top []uint32) uint32 {
	return top[0]
}

// pred5 returns Average3(L, T, TR).
func pred5(left uint32, top []uint32) uint32 {
	return lAverage3(left, top[1], top[2])
}

// pred6 returns Average2(L, TL).
func pred6(left uint32, top []uint32) uint32 {
	return lAverage2(left, top[0])
}

// pred7 returns Average2(L, T).
func pred7(left uint32, top []uint32) uint32 {
	return lAverage2(left, top[1])
}

// pred8 returns Average2(TL, T).
func pred8(_ uint32, top []uint32) uint32 {
	return lAverage2(top[0], top[1])
}

// pred9 returns Average2(T, TR).
func pred9(_ uint32, top []uint32) uint32 {
	return lAverage2(top[1], top[2])
}

// pred10 returns Average4(L, TL, T, TR).
func pred10(left uint32, top []uint32) uint32 {
	return lAverage4(left, top[0], top[1], top[2])
}

// pred11 returns Select(T, L, TL).
func pred11(left uint32, top []uint32) uint32 {
	return lSelect(top[1], left, top[0])
}

// pred12 returns ClampedAddSubtractFull(L, T, TL).
func pred12(left uint32, top []uint32) uint32 {
	return lClampedAddSubtractFull(left, top[1], top[0])
}

// pred13 returns ClampedAddSubtractHalf(L, T, TL).
func pred13(left uint32, top []uint32) uint32 {
	return lClampedAddSubtractHalf(left, top[1], top[0])
}

// ---------------------------------------------------------------------------
// Batched forms
// ---------------------------------------------------------------------------

// predictorSub builds the batched residual form of a scalar predictor.
// xStart must be at least 1.
func predictorSub(pred LosslessPredFunc) LosslessPredSubFunc {
	return func(in, upper []uint32, xStart, numPixels int, out []uint32) {
		for i := 0; i < numPixels; i++ {
			x := xStart + i
			out[i] = SubPixels(in[x], pred(in[x-1], upper[x-1:x+2]))
		}
	}
}

// predictorAdd builds the batched reconstruction form of a scalar predictor.
// xStart must be at least 1.
func predictorAdd(pred LosslessPredFunc) LosslessPredAddFunc {
	return func(in, upper []uint32, xStart, numPixels int, out []uint32) {
		for i := 0; i < numPixels; i++ {
			x := xStart + i
			out[x] = AddPixels(in[i], pred(out[x-1], upper[x-1:x+2]))
		}
	}
}

// predictorSub0 is the residual form of mode 0; it reads no neighbours.
func predictorSub0(in, _ []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		out[i] = SubPixels(in[xStart+i], ARGBBlack)
	}
}

// predictorSub1 is the residual form of mode 1; it reads no upper row.
func predictorSub1(in, _ []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		x := xStart + i
		out[i] = SubPixels(in[x], in[x-1])
	}
}

// predictorSub2 is the residual form of mode 2.
func predictorSub2(in, upper []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		x := xStart + i
		out[i] = SubPixels(in[x], upper[x])
	}
}

func predictorAdd0(in, _ []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		out[xStart+i] = AddPixels(in[i], ARGBBlack)
	}
}

func predictorAdd1(in, _ []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		x := xStart + i
		out[x] = AddPixels(in[i], out[x-1])
	}
}

func predictorAdd2(in, upper []uint32, xStart, numPixels int, out []uint32) {
	for i := 0; i < numPixels; i++ {
		x := xStart + i
		out[x] = AddPixels(in[i], upper[x])
	}
}

// initLosslessPredictors registers all predictor functions.
func initLosslessPredictors() {
	Predictors = [NumPredictors]LosslessPredFunc{
		pred0, pred1, pred2, pred3, pred4, pred5, pred6,
		pred7, pred8, pred9, pred10, pred11, pred12, pred13,
	}
	for mode, pred := range Predictors {
		PredictorsSub[mode] = predictorSub(pred)
		PredictorsAdd[mode] = predictorAdd(pred)
	}
	// Modes 0-2 are used on image edges where the generic form would read
	// outside the row; they get dedicated loops.
	PredictorsSub[0] = predictorSub0
	PredictorsSub[1] = predictorSub1
	PredictorsSub[2] = predictorSub2
	PredictorsAdd[0] = predictorAdd0
	PredictorsAdd[1] = predictorAdd1
	PredictorsAdd[2] = predictorAdd2
}
