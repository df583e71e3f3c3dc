package quality

import (
	"image"
	"math"
)

// SharpnessWindow is the nominal side of the centered sampling window.
const SharpnessWindow = 500

// sharpnessWindow returns the centered window, clamped to the buffer.
func sharpnessWindow(width, height int) image.Rectangle {
	x0 := max(0, (width-SharpnessWindow)/2)
	y0 := max(0, (height-SharpnessWindow)/2)
	return image.Rect(x0, y0, x0+min(width, SharpnessWindow), y0+min(height, SharpnessWindow))
}

// AverageEdge is the mean 4-neighbour Laplacian magnitude over the
// interior of the centered window. A window without interior pixels
// has no edge energy.
func AverageEdge(buf *PixelBuffer) float64 {
	win := sharpnessWindow(buf.Width, buf.Height)
	if win.Dx() < 3 || win.Dy() < 3 {
		return 0
	}

	stride := buf.Width * 4
	lum := func(i int) float64 {
		return Luminance(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2])
	}

	var sum float64
	for y := win.Min.Y + 1; y < win.Max.Y-1; y++ {
		for x := win.Min.X + 1; x < win.Max.X-1; x++ {
			i := y*stride + x*4
			center := lum(i)
			up := lum(i - stride)
			down := lum(i + stride)
			left := lum(i - 4)
			right := lum(i + 4)
			sum += math.Abs(up + down + left + right - 4*center)
		}
	}

	interior := (win.Dx() - 2) * (win.Dy() - 2)
	return sum / float64(interior)
}

// SharpnessScore maps average edge energy onto 0..100; 8 scores 100.
func SharpnessScore(buf *PixelBuffer) float64 {
	return sharpnessFromEdge(AverageEdge(buf))
}

func sharpnessFromEdge(avgEdge float64) float64 {
	return clampScore((avgEdge / 8) * 100)
}
