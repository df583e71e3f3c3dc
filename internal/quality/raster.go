package quality

import (
	"fmt"
	"image"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// MaxDimension caps the larger side of the working buffer.
const MaxDimension = 2048

// maxRasterPixels bounds the surface a Rasterizer will allocate.
const maxRasterPixels = MaxDimension * MaxDimension

// Resampler names the interpolation used when downscaling.
type Resampler string

const (
	ResampleNearest        Resampler = "nearest"
	ResampleApproxBiLinear Resampler = "approxbilinear"
	ResampleBiLinear       Resampler = "bilinear"
	ResampleCatmullRom     Resampler = "catmullrom"
)

// ParseResampler accepts a resampler name, case-insensitively.
func ParseResampler(name string) (Resampler, error) {
	r := Resampler(strings.ToLower(strings.TrimSpace(name)))
	switch r {
	case ResampleNearest, ResampleApproxBiLinear, ResampleBiLinear, ResampleCatmullRom:
		return r, nil
	case "":
		return ResampleBiLinear, nil
	}
	return "", fmt.Errorf("unknown resampler %q", name)
}

func (r Resampler) interpolator() xdraw.Interpolator {
	switch r {
	case ResampleNearest:
		return xdraw.NearestNeighbor
	case ResampleApproxBiLinear:
		return xdraw.ApproxBiLinear
	case ResampleCatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.BiLinear
	}
}

// Rasterizer draws a decoded image onto an addressable NRGBA surface of
// the given size.
type Rasterizer interface {
	Rasterize(src image.Image, width, height int) (*image.NRGBA, error)
}

type drawRasterizer struct {
	scaler xdraw.Interpolator
}

// NewRasterizer returns a Rasterizer backed by golang.org/x/image/draw.
func NewRasterizer(r Resampler) Rasterizer {
	return &drawRasterizer{scaler: r.interpolator()}
}

func (d *drawRasterizer) Rasterize(src image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || width*height > maxRasterPixels {
		return nil, &RasterContextError{Width: width, Height: height, Err: fmt.Errorf("unsupported surface size")}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		xdraw.Draw(dst, dst.Rect, src, sb.Min, xdraw.Src)
		return dst, nil
	}
	d.scaler.Scale(dst, dst.Rect, src, sb, xdraw.Src, nil)
	return dst, nil
}
