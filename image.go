package vp8lpred

import (
	"fmt"
	"image"
	"image/color"
)

// ImageToARGB converts img to a non-premultiplied ARGB raster, one uint32
// per pixel in row-major order, and returns it with its dimensions.
func ImageToARGB(img image.Image) ([]uint32, int, int) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	argb := make([]uint32, width*height)
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			rowOff := (y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride + (bounds.Min.X-src.Rect.Min.X)*4
			for x := 0; x < width; x++ {
				off := rowOff + x*4
				argb[y*width+x] = uint32(src.Pix[off+3])<<24 | uint32(src.Pix[off])<<16 | uint32(src.Pix[off+1])<<8 | uint32(src.Pix[off+2])
			}
		}
	case *image.RGBA:
		for y := 0; y < height; y++ {
			rowOff := (y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride + (bounds.Min.X-src.Rect.Min.X)*4
			for x := 0; x < width; x++ {
				off := rowOff + x*4
				a := src.Pix[off+3]
				r, g, b := src.Pix[off], src.Pix[off+1], src.Pix[off+2]
				if a > 0 && a < 255 {
					a16 := uint16(a)
					r = uint8(uint16(r) * 255 / a16)
					g = uint8(uint16(g) * 255 / a16)
					b = uint8(uint16(b) * 255 / a16)
				}
				argb[y*width+x] = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				argb[y*width+x] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
			}
		}
	}
	return argb, width, height
}

// ARGBToImage wraps a width x height ARGB raster in a new NRGBA image.
func ARGBToImage(argb []uint32, width, height int) (*image.NRGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(argb) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrBufferSize, len(argb), width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x, p := range argb[y*width : (y+1)*width] {
			off := x * 4
			row[off] = uint8(p >> 16)
			row[off+1] = uint8(p >> 8)
			row[off+2] = uint8(p)
			row[off+3] = uint8(p >> 24)
		}
	}
	return img, nil
}
