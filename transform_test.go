package vp8lpred

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/deepteams/vp8lpred/internal/lossless"
	"github.com/stretchr/testify/require"
)

func randomImage(rng *rand.Rand, width, height int, opaque bool) []uint32 {
	argb := make([]uint32, width*height)
	for i := range argb {
		argb[i] = rng.Uint32()
		if opaque {
			argb[i] |= 0xff000000
		}
	}
	return argb
}

// gradientImage returns smooth opaque content with a little noise.
func gradientImage(rng *rand.Rand, width, height int) []uint32 {
	argb := make([]uint32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint32(x*3+rng.Intn(4)) & 0xff
			g := uint32(y*2+x+rng.Intn(4)) & 0xff
			b := uint32(x+y+rng.Intn(4)) & 0xff
			argb[y*width+x] = 0xff000000 | r<<16 | g<<8 | b
		}
	}
	return argb
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 75, opts.Quality)
	require.Equal(t, 100, opts.NearLosslessQuality)
	require.True(t, opts.SubtractGreen)
	require.True(t, opts.CrossColor)
	require.True(t, opts.OptimizeSampling)
	require.False(t, opts.Exact)
	require.False(t, opts.LowEffort)
	require.Equal(t, 4, opts.PredictorBits)
	require.Equal(t, 5, opts.CrossColorBits)
	require.NoError(t, validateOptions(opts))
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   error
	}{
		{"quality_low", func(o *Options) { o.Quality = -1 }, ErrInvalidQuality},
		{"quality_high", func(o *Options) { o.Quality = 101 }, ErrInvalidQuality},
		{"near_lossless_high", func(o *Options) { o.NearLosslessQuality = 101 }, ErrInvalidQuality},
		{"near_lossless_low", func(o *Options) { o.NearLosslessQuality = -5 }, ErrInvalidQuality},
		{"pred_bits_zero", func(o *Options) { o.PredictorBits = 0 }, ErrInvalidBits},
		{"pred_bits_high", func(o *Options) { o.PredictorBits = 10 }, ErrInvalidBits},
		{"cc_bits_zero", func(o *Options) { o.CrossColorBits = 0 }, ErrInvalidBits},
		{"cc_bits_unused", func(o *Options) { o.CrossColor = false; o.CrossColorBits = 0 }, nil},
		{"bounds", func(o *Options) { o.Quality = 0; o.PredictorBits = 1; o.CrossColorBits = 9 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(opts)
			err := validateOptions(opts)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransform_InvalidInput(t *testing.T) {
	img := make([]uint32, 16)
	_, err := Transform(img, 0, 4, nil)
	require.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = Transform(img, 4, MaxDimension+1, nil)
	require.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = Transform(img, 5, 4, nil)
	require.ErrorIs(t, err, ErrBufferSize)
	_, err = Transform(img, 3, 4, nil)
	require.ErrorIs(t, err, ErrBufferSize)
	_, err = Transform(img, 4, 4, &Options{Quality: 200, PredictorBits: 4})
	require.ErrorIs(t, err, ErrInvalidQuality)
}

func TestTransform_ExactRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := [][2]int{{1, 1}, {1, 7}, {7, 1}, {2, 2}, {16, 16}, {33, 17}, {64, 48}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		for _, img := range [][]uint32{randomImage(rng, w, h, false), gradientImage(rng, w, h)} {
			opts := DefaultOptions()
			opts.Exact = true
			opts.PredictorBits = 2
			opts.CrossColorBits = 3
			orig := slices.Clone(img)

			res, err := Transform(img, w, h, opts)
			require.NoError(t, err)
			require.Equal(t, orig, img, "input modified")
			require.Len(t, res.Residuals, w*h)
			require.NotNil(t, res.Predictor)
			require.NotNil(t, res.CrossColor)
			require.False(t, res.NearLossless)

			recon, err := Reconstruct(res)
			require.NoError(t, err)
			require.Equal(t, orig, recon, "%dx%d", w, h)
		}
	}
}

func TestTransform_OptionCombinations(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const w, h = 37, 29
	img := gradientImage(rng, w, h)
	for _, sg := range []bool{false, true} {
		for _, cc := range []bool{false, true} {
			for _, optimize := range []bool{false, true} {
				opts := &Options{
					Quality:             50,
					NearLosslessQuality: 100,
					SubtractGreen:       sg,
					CrossColor:          cc,
					PredictorBits:       3,
					CrossColorBits:      2,
					OptimizeSampling:    optimize,
				}
				res, err := Transform(img, w, h, opts)
				require.NoError(t, err)
				require.Equal(t, sg, res.SubtractGreen)
				require.Equal(t, cc, res.CrossColor != nil)
				if !optimize {
					require.Equal(t, 3, res.Predictor.Bits)
				}

				recon, err := Reconstruct(res)
				require.NoError(t, err)
				require.Equal(t, img, recon, "sg=%v cc=%v optimize=%v", sg, cc, optimize)
			}
		}
	}
}

func TestTransform_UniformImageCollapsesMaps(t *testing.T) {
	const w, h = 64, 64
	img := make([]uint32, w*h)
	for i := range img {
		img[i] = 0xff336699
	}
	res, err := Transform(img, w, h, nil)
	require.NoError(t, err)
	require.Equal(t, MaxTransformBits, res.Predictor.Bits)
	require.Len(t, res.Predictor.Codes, 1)
	require.EqualValues(t, 1, res.Predictor.Codes[0].Mode)

	recon, err := Reconstruct(res)
	require.NoError(t, err)
	require.Equal(t, img, recon)
}

func TestTransform_TransparentCleanup(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const w, h = 24, 20
	img := randomImage(rng, w, h, true)
	for i := range img {
		if rng.Intn(3) == 0 {
			img[i] &= 0x00ffffff
		}
	}

	res, err := Transform(img, w, h, nil)
	require.NoError(t, err)
	recon, err := Reconstruct(res)
	require.NoError(t, err)
	for i, p := range img {
		if p>>24 == 0 {
			require.Zero(t, recon[i]>>24, "pixel %d", i)
			continue
		}
		require.Equal(t, p, recon[i], "pixel %d", i)
	}

	opts := DefaultOptions()
	opts.Exact = true
	res, err = Transform(img, w, h, opts)
	require.NoError(t, err)
	recon, err = Reconstruct(res)
	require.NoError(t, err)
	require.Equal(t, img, recon)
}

func TestTransform_NearLossless(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	const w, h = 40, 32
	img := gradientImage(rng, w, h)
	for _, subtractGreen := range []bool{false, true} {
		for _, quality := range []int{0, 40, 60, 80} {
			maxQ := lossless.MaxQuantization(quality)
			opts := DefaultOptions()
			opts.SubtractGreen = subtractGreen
			opts.NearLosslessQuality = quality
			res, err := Transform(img, w, h, opts)
			require.NoError(t, err)
			require.True(t, res.NearLossless)
			require.Equal(t, subtractGreen, res.SubtractGreen)

			recon, err := Reconstruct(res)
			require.NoError(t, err)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					i := y*w + x
					if y == 0 || y == h-1 || x == 0 || x == w-1 {
						require.Equal(t, img[i], recon[i], "sg=%v q=%d border (%d,%d)", subtractGreen, quality, x, y)
						continue
					}
					require.Equal(t, img[i]>>24, recon[i]>>24)
					for shift := 0; shift < 24; shift += 8 {
						d := int(img[i]>>shift&0xff) - int(recon[i]>>shift&0xff)
						d = max(d, -d)
						require.LessOrEqual(t, min(d, 256-d), maxQ, "sg=%v q=%d (%d,%d)", subtractGreen, quality, x, y)
					}
				}
			}
		}
	}
}

func TestTransform_NearLosslessDisabledByExact(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const w, h = 20, 20
	img := gradientImage(rng, w, h)
	opts := DefaultOptions()
	opts.NearLosslessQuality = 0
	opts.Exact = true
	res, err := Transform(img, w, h, opts)
	require.NoError(t, err)
	require.False(t, res.NearLossless)
	recon, err := Reconstruct(res)
	require.NoError(t, err)
	require.Equal(t, img, recon)
}

func TestTransform_LowEffort(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	const w, h = 30, 22
	img := randomImage(rng, w, h, false)
	opts := DefaultOptions()
	opts.LowEffort = true
	opts.NearLosslessQuality = 20
	res, err := Transform(img, w, h, opts)
	require.NoError(t, err)
	require.False(t, res.NearLossless)
	require.Equal(t, opts.PredictorBits, res.Predictor.Bits)
	for _, c := range res.Predictor.Codes {
		require.EqualValues(t, 11, c.Mode)
	}
	recon, err := Reconstruct(res)
	require.NoError(t, err)
	require.Equal(t, img, recon)
}

func TestTransform_HistogramMatchesResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const w, h = 19, 23
	res, err := Transform(gradientImage(rng, w, h), w, h, nil)
	require.NoError(t, err)
	var want Histogram
	for _, p := range res.Residuals {
		want.AddPixel(p)
	}
	require.Equal(t, want, res.Histogram)
	require.EqualValues(t, w*h, res.Histogram.Total())
}

func TestTransform_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	const w, h = 50, 34
	img := gradientImage(rng, w, h)
	a, err := Transform(img, w, h, nil)
	require.NoError(t, err)
	b, err := Transform(img, w, h, nil)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestTransform_Progress(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	const w, h = 64, 64
	img := gradientImage(rng, w, h)

	var seen []int
	opts := DefaultOptions()
	opts.Progress = func(p int) bool {
		seen = append(seen, p)
		return true
	}
	_, err := Transform(img, w, h, opts)
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	require.True(t, slices.IsSorted(seen), "progress went backwards: %v", seen)
	require.Equal(t, 100, seen[len(seen)-1])
	require.Contains(t, seen, 50)

	seen = nil
	opts.CrossColor = false
	_, err = Transform(img, w, h, opts)
	require.NoError(t, err)
	require.Equal(t, []int{25, 50, 75, 100}, seen)
}

func TestTransform_Abort(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	const w, h = 64, 64
	img := gradientImage(rng, w, h)

	for _, stopAt := range []int{1, 5} {
		calls := 0
		opts := DefaultOptions()
		opts.Progress = func(int) bool {
			calls++
			return calls < stopAt
		}
		res, err := Transform(img, w, h, opts)
		require.ErrorIs(t, err, ErrAborted)
		require.Nil(t, res)
		require.Equal(t, stopAt, calls)
	}
}

func TestStages_MatchTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const w, h = 41, 27
	img := gradientImage(rng, w, h)
	opts := DefaultOptions()
	opts.SubtractGreen = false
	opts.OptimizeSampling = false

	want, err := Transform(img, w, h, opts)
	require.NoError(t, err)

	buf := slices.Clone(img)
	modes, histo, err := SelectPredictors(buf, w, h, opts.PredictorBits, 100, false, false)
	require.NoError(t, err)
	require.Equal(t, img, buf)
	require.Equal(t, want.Predictor, modes)
	require.NoError(t, ApplyResiduals(buf, w, h, modes, 100, false, false))

	var got Histogram
	for _, p := range buf {
		got.AddPixel(p)
	}
	require.Equal(t, got, histo)

	cc, err := SelectColorTransforms(buf, w, h, opts.CrossColorBits, opts.Quality)
	require.NoError(t, err)
	require.Equal(t, want.CrossColor, cc)
	require.Equal(t, want.Residuals, buf)
}

func TestStages_InvalidInput(t *testing.T) {
	img := make([]uint32, 64)
	_, _, err := SelectPredictors(img, 8, 8, 0, 100, false, false)
	require.ErrorIs(t, err, ErrInvalidBits)
	_, _, err = SelectPredictors(img, 8, 8, 2, 101, false, false)
	require.ErrorIs(t, err, ErrInvalidQuality)
	_, _, err = SelectPredictors(img, 9, 8, 2, 100, false, false)
	require.ErrorIs(t, err, ErrBufferSize)

	_, err = SelectColorTransforms(img, 8, 8, 10, 50)
	require.ErrorIs(t, err, ErrInvalidBits)
	_, err = SelectColorTransforms(img, 8, 8, 2, -1)
	require.ErrorIs(t, err, ErrInvalidQuality)

	small := spatialMap4x4(t)
	require.ErrorIs(t, ApplyResiduals(img, 8, 8, small, 100, false, false), ErrModeMapSize)
	require.ErrorIs(t, ApplyResiduals(img, 8, 8, nil, 100, false, false), ErrModeMapSize)
}

// spatialMap4x4 returns a spatial map sized for a 4x4 image.
func spatialMap4x4(t *testing.T) *ModeMap {
	t.Helper()
	m, _, err := SelectPredictors(make([]uint32, 16), 4, 4, 1, 100, false, false)
	require.NoError(t, err)
	return m
}

func TestReconstruct_Invalid(t *testing.T) {
	_, err := Reconstruct(nil)
	require.ErrorIs(t, err, ErrModeMapSize)

	rng := rand.New(rand.NewSource(12))
	res, err := Transform(randomImage(rng, 8, 8, true), 8, 8, nil)
	require.NoError(t, err)

	bad := *res
	bad.Predictor = spatialMap4x4(t)
	_, err = Reconstruct(&bad)
	require.ErrorIs(t, err, ErrModeMapSize)

	bad = *res
	bad.CrossColor = res.Predictor
	_, err = Reconstruct(&bad)
	require.ErrorIs(t, err, ErrModeMapSize)

	bad = *res
	bad.Residuals = bad.Residuals[:10]
	_, err = Reconstruct(&bad)
	require.ErrorIs(t, err, ErrBufferSize)

	bad = *res
	bad.Residuals = append(slices.Clone(res.Residuals), 0)
	_, err = Reconstruct(&bad)
	require.ErrorIs(t, err, ErrBufferSize)
}

func FuzzTransformRoundTrip(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 7}, uint8(3), uint8(2), uint8(75))
	f.Add([]byte{0xff, 0, 0xff, 0, 0x80}, uint8(1), uint8(1), uint8(0))
	f.Fuzz(func(t *testing.T, data []byte, width, bits, quality uint8) {
		w := int(width%32) + 1
		n := len(data) / 4
		if n < w {
			return
		}
		h := min(n/w, 32)
		img := make([]uint32, w*h)
		for i := range img {
			img[i] = uint32(data[4*i])<<24 | uint32(data[4*i+1])<<16 | uint32(data[4*i+2])<<8 | uint32(data[4*i+3])
		}
		opts := DefaultOptions()
		opts.Exact = true
		opts.Quality = int(quality % 101)
		opts.PredictorBits = int(bits%9) + 1
		opts.CrossColorBits = int(bits%5) + 1

		res, err := Transform(img, w, h, opts)
		if err != nil {
			t.Fatal(err)
		}
		recon, err := Reconstruct(res)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(img, recon) {
			t.Fatalf("%dx%d round trip mismatch", w, h)
		}
	})
}

func BenchmarkTransform(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const w, h = 256, 256
	img := gradientImage(rng, w, h)
	for _, lowEffort := range []bool{false, true} {
		name := "search"
		if lowEffort {
			name = "low_effort"
		}
		b.Run(name, func(b *testing.B) {
			opts := DefaultOptions()
			opts.LowEffort = lowEffort
			b.SetBytes(w * h * 4)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Transform(img, w, h, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
