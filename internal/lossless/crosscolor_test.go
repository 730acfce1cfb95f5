package lossless

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/deepteams/vp8lpred/internal/dsp"
)

func TestSelectColorTransforms_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	sizes := []struct{ w, h, bits int }{
		{1, 1, 1}, {13, 7, 2}, {40, 33, 4}, {70, 20, 5},
	}
	for _, sz := range sizes {
		for _, quality := range []int{0, 40, 100} {
			orig := gradientImage(rng, sz.w, sz.h)
			argb := slices.Clone(orig)
			m, err := SelectColorTransforms(argb, sz.w, sz.h, sz.bits, quality, nil)
			if err != nil {
				t.Fatal(err)
			}
			if m.Kind != TileCrossColor {
				t.Fatalf("map kind = %v, want cross-color", m.Kind)
			}
			InverseColorTransform(argb, sz.w, sz.h, m)
			if !slices.Equal(argb, orig) {
				t.Errorf("%dx%d bits=%d q=%d: inverse does not restore the image", sz.w, sz.h, sz.bits, quality)
			}
		}
	}
}

func grayImage(rng *rand.Rand, width, height int) []uint32 {
	argb := make([]uint32, width*height)
	for i := range argb {
		v := uint32(rng.Intn(256))
		argb[i] = 0xff000000 | v<<16 | v<<8 | v
	}
	return argb
}

func TestBestGreenToRed_NeverWorseThanZero(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	const size = 16
	for i := 0; i < 20; i++ {
		argb := grayImage(rng, size, size)
		tile := &colorTile{argb: argb, stride: size, width: size, height: size}
		var accumulated [256]uint32
		for j := range accumulated {
			accumulated[j] = uint32(rng.Intn(4))
		}
		prevX := dsp.Multipliers{GreenToRed: int8(rng.Intn(65) - 32)}
		prevY := dsp.Multipliers{GreenToRed: int8(rng.Intn(65) - 32)}
		for _, quality := range []int{0, 75, 100} {
			best := bestGreenToRed(tile, prevX, prevY, quality, &accumulated)
			got := greenToRedCost(tile, prevX, prevY, int(best), &accumulated)
			zero := greenToRedCost(tile, prevX, prevY, 0, &accumulated)
			if got > zero {
				t.Errorf("case %d q=%d: greenToRed %d costs %.2f, zero costs %.2f", i, quality, best, got, zero)
			}
		}
	}
}

func TestBestGreenRedToBlue_NeverWorseThanZero(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	const size = 16
	for i := 0; i < 20; i++ {
		argb := grayImage(rng, size, size)
		tile := &colorTile{argb: argb, stride: size, width: size, height: size}
		var accumulated [256]uint32
		prev := dsp.Multipliers{GreenToBlue: int8(rng.Intn(33) - 16), RedToBlue: int8(rng.Intn(33) - 16)}
		for _, quality := range []int{0, 40, 100} {
			g2b, r2b := bestGreenRedToBlue(tile, prev, dsp.Multipliers{}, quality, &accumulated)
			got := greenRedToBlueCost(tile, prev, dsp.Multipliers{}, int(g2b), int(r2b), &accumulated)
			zero := greenRedToBlueCost(tile, prev, dsp.Multipliers{}, 0, 0, &accumulated)
			if got > zero {
				t.Errorf("case %d q=%d: (%d, %d) costs %.2f, zero costs %.2f", i, quality, g2b, r2b, got, zero)
			}
		}
	}
}

func TestSelectColorTransforms_GrayImage(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	const w, h = 64, 48
	orig := grayImage(rng, w, h)
	argb := slices.Clone(orig)
	m, err := SelectColorTransforms(argb, w, h, 4, 75, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(m.Codes), VP8LSubSampleSize(w, 4)*VP8LSubSampleSize(h, 4); got != want {
		t.Fatalf("len(Codes) = %d, want %d", got, want)
	}
	InverseColorTransform(argb, w, h, m)
	if !slices.Equal(argb, orig) {
		t.Error("inverse does not restore the gray image")
	}
}

func TestSelectColorTransforms_UncorrelatedKeepsZero(t *testing.T) {
	// Red and blue carry no signal, so any nonzero multiplier only adds
	// noise to them.
	rng := rand.New(rand.NewSource(23))
	const w, h = 48, 48
	argb := make([]uint32, w*h)
	for i := range argb {
		argb[i] = 0xff000000 | uint32(rng.Intn(256))<<8
	}
	orig := slices.Clone(argb)
	m, err := SelectColorTransforms(argb, w, h, 3, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range m.Codes {
		if c.Mult != (dsp.Multipliers{}) {
			t.Errorf("tile %d multipliers = %+v, want zero", i, c.Mult)
		}
	}
	if !slices.Equal(argb, orig) {
		t.Error("zero multipliers changed the image")
	}
}

func TestSelectColorTransforms_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	const w, h = 50, 40
	orig := gradientImage(rng, w, h)
	a, b := slices.Clone(orig), slices.Clone(orig)
	m1, err := SelectColorTransforms(a, w, h, 3, 75, nil)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := SelectColorTransforms(b, w, h, 3, 75, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(m1.Codes, m2.Codes) || !slices.Equal(a, b) {
		t.Error("two runs on the same input differ")
	}
}

func TestSelectColorTransforms_Abort(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	argb := gradientImage(rng, 32, 32)
	calls := 0
	_, err := SelectColorTransforms(argb, 32, 32, 3, 75, func(int) bool {
		calls++
		return false
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if calls != 1 {
		t.Errorf("progress called %d times, want 1", calls)
	}
}

func TestCoeffBias(t *testing.T) {
	tests := []struct {
		coeff, prevX, prevY int8
		want                float64
	}{
		{0, 0, 0, 3 * colorCoeffBias},
		{5, 5, 5, 2 * colorCoeffBias},
		{5, 5, 0, colorCoeffBias},
		{5, 1, 2, 0},
		{0, 1, 2, colorCoeffBias},
	}
	for _, tt := range tests {
		if got := coeffBias(tt.coeff, tt.prevX, tt.prevY); got != tt.want {
			t.Errorf("coeffBias(%d, %d, %d) = %f, want %f", tt.coeff, tt.prevX, tt.prevY, got, tt.want)
		}
	}
}

func TestAccumulateColorHisto_SkipsRepeats(t *testing.T) {
	total := func(h *[256]uint32) int {
		n := 0
		for _, v := range h {
			n += int(v)
		}
		return n
	}

	t.Run("run of equal pixels", func(t *testing.T) {
		argb := []uint32{0xff010203, 0xff010203, 0xff010203, 0xff010203}
		var red, blue [256]uint32
		accumulateColorHisto(argb, 4, 0, 0, 4, 1, &red, &blue)
		if got := total(&red); got != 2 {
			t.Errorf("counted %d red samples, want 2", got)
		}
		if blue[3] != 2 {
			t.Errorf("blue[3] = %d, want 2", blue[3])
		}
	})

	t.Run("row copies the one above", func(t *testing.T) {
		row := []uint32{0xff100000, 0xff200000, 0xff300000, 0xff400000}
		argb := append(slices.Clone(row), row...)
		var red, blue [256]uint32
		accumulateColorHisto(argb, 4, 0, 0, 4, 2, &red, &blue)
		if got := total(&red); got != 6 {
			t.Errorf("counted %d red samples, want 6", got)
		}
	})
}

func BenchmarkSelectColorTransforms(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const w, h = 256, 256
	src := gradientImage(rng, w, h)
	buf := make([]uint32, len(src))
	b.ReportAllocs()
	b.SetBytes(w * h * 4)
	for i := 0; i < b.N; i++ {
		copy(buf, src)
		if _, err := SelectColorTransforms(buf, w, h, 5, 75, nil); err != nil {
			b.Fatal(err)
		}
	}
}
