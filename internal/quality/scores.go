package quality

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ResolutionScore maps original megapixels onto 0..100.
//
//	>= 8MP      100
//	[2, 8)      80..100
//	[0.9, 2)    60..80
//	< 0.9       linear, capped at 60
func ResolutionScore(original Dimensions) float64 {
	mp := original.Megapixels()
	var score float64
	switch {
	case mp >= 8:
		score = 100
	case mp >= 2:
		score = 80 + ((mp-2)/6)*20
	case mp >= 0.9:
		score = 60 + ((mp-0.9)/1.1)*20
	default:
		score = math.Min(60, mp*66)
	}
	return clampScore(score)
}

// ExposureScore rewards a mean luminance near mid-grey and penalizes
// more than 5% clipped shadows or highlights.
func ExposureScore(stats LuminanceStats) float64 {
	score := 100 - math.Abs(128-stats.AvgLuminance)*0.8
	if stats.BlackClipRatio > 0.05 {
		score -= (stats.BlackClipRatio - 0.05) * 200
	}
	if stats.WhiteClipRatio > 0.05 {
		score -= (stats.WhiteClipRatio - 0.05) * 200
	}
	return clampScore(score)
}

// LuminanceStdDev is the population standard deviation of luminance,
// taken from the histogram about the exact mean.
func LuminanceStdDev(stats LuminanceStats) float64 {
	if stats.PixelCount == 0 {
		return 0
	}
	values := make([]float64, len(stats.Histogram))
	weights := make([]float64, len(stats.Histogram))
	for i, count := range stats.Histogram {
		values[i] = float64(i)
		weights[i] = float64(count)
	}
	variance := stat.MomentAbout(2, values, stats.AvgLuminance, weights)
	if math.IsNaN(variance) || variance < 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// ContrastScore is reported as colorDepth. A std dev of 60 scores 100.
func ContrastScore(stats LuminanceStats) float64 {
	return contrastFromStdDev(LuminanceStdDev(stats))
}

func contrastFromStdDev(stdDev float64) float64 {
	return clampScore(math.Min(100, (stdDev/60)*100))
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
