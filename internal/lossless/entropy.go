package lossless

import "math"

// Entropy and cost primitives shared by the predictor and cross-color
// searches. Costs are float64 estimates in bits; lower is better.

// Histo holds one 256-bin population per channel, indexed by the channel's
// byte position in an ARGB pixel: 0 alpha, 1 red, 2 green, 3 blue.
type Histo [4][256]uint32

const (
	chanAlpha = 0
	chanRed   = 1
	chanGreen = 2
	chanBlue  = 3
)

// AddPixel counts the four channels of argb.
func (h *Histo) AddPixel(argb uint32) {
	h[chanAlpha][argb>>24]++
	h[chanRed][(argb>>16)&0xff]++
	h[chanGreen][(argb>>8)&0xff]++
	h[chanBlue][argb&0xff]++
}

// Add folds src into h.
func (h *Histo) Add(src *Histo) {
	for ch := range h {
		for i, v := range src[ch] {
			h[ch][i] += v
		}
	}
}

// Total returns the number of pixels counted, taken from the alpha channel.
func (h *Histo) Total() uint64 {
	var n uint64
	for _, v := range h[chanAlpha] {
		n += uint64(v)
	}
	return n
}

// fastSLog2LUTSize is the LUT size for fastSLog2. 4096 entries (32KB) covers
// the vast majority of histogram count values encountered in practice.
const fastSLog2LUTSize = 4096

// fastSLog2LUT is a precomputed lookup table for v * log2(v).
var fastSLog2LUT [fastSLog2LUTSize]float64

func init() {
	fastSLog2LUT[0] = 0
	for i := 1; i < fastSLog2LUTSize; i++ {
		fv := float64(i)
		fastSLog2LUT[i] = fv * math.Log2(fv)
	}
}

// fastSLog2 computes v * log2(v) for v > 0, returning 0 for v == 0.
func fastSLog2(v uint32) float64 {
	if v < fastSLog2LUTSize {
		return fastSLog2LUT[v]
	}
	fv := float64(v)
	return fv * math.Log2(fv)
}

// CombinedShannonEntropy returns the Shannon entropy, in bits, of the
// population X plus the entropy of the combined population X+Y, each scaled
// by its total count, with Y's standalone entropy left out. It estimates
// what coding X costs given that Y is already being coded with the same
// alphabet.
func CombinedShannonEntropy(x, y *[256]uint32) float64 {
	var retval float64
	var sumX, sumXY uint32
	for i := 0; i < 256; i++ {
		xi := x[i]
		if xi != 0 {
			xy := xi + y[i]
			sumX += xi
			retval += fastSLog2(xi)
			sumXY += xy
			retval += fastSLog2(xy)
		} else if y[i] != 0 {
			sumXY += y[i]
			retval += fastSLog2(y[i])
		}
	}
	return fastSLog2(sumX) + fastSLog2(sumXY) - retval
}

// spatialCost rewards populations concentrated near zero (mod 256). The
// weight of counts[0] is weight0; the weight of counts[i] and counts[256-i]
// starts at exp for i == 1 and decays by spatialDecay per step. The result
// is non-positive.
func spatialCost(counts *[256]uint32, weight0 float64, exp float64) float64 {
	retval := weight0 * float64(counts[0])
	for i := 1; i < spatialTaps; i++ {
		retval += exp * float64(counts[i]+counts[256-i])
		exp *= spatialDecay
	}
	return -0.1 * retval
}

// predictionCost is the cost of coding histo for one tile of the predictor
// search, given the running histogram accumulated.
func predictionCost(accumulated, histo *Histo) float64 {
	var cost float64
	for ch := range histo {
		cost += spatialCost(&histo[ch], 1, predSpatialExp)
		cost += CombinedShannonEntropy(&histo[ch], &accumulated[ch])
	}
	return cost
}

// colorPredictionCost is the channel cost used by the cross-color search.
func colorPredictionCost(accumulated, counts *[256]uint32) float64 {
	return CombinedShannonEntropy(counts, accumulated) +
		spatialCost(counts, colorSpatialWeight0, colorSpatialExp)
}
