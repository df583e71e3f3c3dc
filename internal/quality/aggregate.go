package quality

import "math"

// Tags and warnings attached to a result.
const (
	TagHighRes       = "#HighRes"
	TagSharpFocus    = "#SharpFocus"
	TagGoodExposure  = "#GoodExposure"
	TagHighContrast  = "#HighContrast"
	TagMedicalImage  = "#MedicalImaging"
	WarnLowRes       = "Low Resolution"
	WarnBlurry       = "Blurry Image"
	WarnPoorExposure = "Poor Exposure"
)

// Placeholder is the locator that short-circuits to a canned result.
const Placeholder = "data:image/placeholder"

// PlaceholderResult returns the fixed result served for Placeholder.
func PlaceholderResult() QualityResult {
	return QualityResult{
		Quality: 94,
		Breakdown: Breakdown{
			Resolution: 98,
			Sharpness:  92,
			Exposure:   95,
			ColorDepth: 88,
			Tags:       []string{TagHighRes, TagSharpFocus, TagGoodExposure, TagMedicalImage},
			Warnings:   []string{},
		},
	}
}

// Composite is the weighted quality, before rounding.
func (s Scores) Composite() float64 {
	return 0.3*s.Resolution + 0.3*s.Sharpness + 0.2*s.Exposure + 0.2*s.ColorDepth
}

// Aggregate rounds the sub-scores into a QualityResult and derives tags
// and warnings. Thresholds compare the unrounded values.
func Aggregate(s Scores) QualityResult {
	s = Scores{
		Resolution: clampScore(s.Resolution),
		Sharpness:  clampScore(s.Sharpness),
		Exposure:   clampScore(s.Exposure),
		ColorDepth: clampScore(s.ColorDepth),
	}

	tags := []string{}
	warnings := []string{}

	switch {
	case s.Resolution > 90:
		tags = append(tags, TagHighRes)
	case s.Resolution < 50:
		warnings = append(warnings, WarnLowRes)
	}
	switch {
	case s.Sharpness > 80:
		tags = append(tags, TagSharpFocus)
	case s.Sharpness < 40:
		warnings = append(warnings, WarnBlurry)
	}
	switch {
	case s.Exposure > 80:
		tags = append(tags, TagGoodExposure)
	case s.Exposure < 40:
		warnings = append(warnings, WarnPoorExposure)
	}
	if s.ColorDepth > 80 {
		tags = append(tags, TagHighContrast)
	}

	return QualityResult{
		Quality: roundScore(s.Composite()),
		Breakdown: Breakdown{
			Resolution: roundScore(s.Resolution),
			Sharpness:  roundScore(s.Sharpness),
			Exposure:   roundScore(s.Exposure),
			ColorDepth: roundScore(s.ColorDepth),
			Tags:       tags,
			Warnings:   warnings,
		},
	}
}

func roundScore(v float64) int {
	return int(math.Round(clampScore(v)))
}
