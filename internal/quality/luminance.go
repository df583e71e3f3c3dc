package quality

import "math"

const (
	blackClipLevel = 5.0
	whiteClipLevel = 250.0
)

// Luminance returns the perceptual brightness 0.299R + 0.587G + 0.114B.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// AnalyzeLuminance makes a single pass over every pixel of buf.
func AnalyzeLuminance(buf *PixelBuffer) LuminanceStats {
	var stats LuminanceStats
	pixelCount := buf.Width * buf.Height
	if pixelCount == 0 {
		return stats
	}

	var total float64
	var blacks, whites int
	pix := buf.Pix[:pixelCount*4]
	for i := 0; i < len(pix); i += 4 {
		l := Luminance(pix[i], pix[i+1], pix[i+2])
		total += l
		stats.Histogram[histogramBin(l)]++
		if l < blackClipLevel {
			blacks++
		}
		if l > whiteClipLevel {
			whites++
		}
	}

	n := float64(pixelCount)
	stats.PixelCount = pixelCount
	stats.AvgLuminance = total / n
	stats.BlackClipRatio = float64(blacks) / n
	stats.WhiteClipRatio = float64(whites) / n
	return stats
}

// binEpsilon absorbs float error so luminance values that are exact
// integers (every grey level) floor into their own bin.
const binEpsilon = 1e-9

// histogramBin floors l into 0..255.
func histogramBin(l float64) int {
	bin := int(math.Floor(l + binEpsilon))
	if bin > 255 {
		return 255
	}
	if bin < 0 {
		return 0
	}
	return bin
}
