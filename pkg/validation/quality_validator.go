package validation

import (
	"fmt"

	"github.com/anime-shed/image-quality-go/internal/quality"
)

// QualityThresholds are the minimum scores an image needs to pass the
// gate. A zero threshold disables that check.
type QualityThresholds struct {
	MinQuality    int
	MinResolution int
	MinSharpness  int
	MinExposure   int
	MinColorDepth int
}

// QualityIssue describes one failed threshold
type QualityIssue struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Severity    string `json:"severity"`
	ActualValue int    `json:"actual_value"`
	Threshold   int    `json:"threshold"`
}

// QualityGate decides whether a scored image is acceptable
type QualityGate struct {
	thresholds QualityThresholds
}

// NewQualityGate creates a gate with no thresholds; everything passes
func NewQualityGate() *QualityGate {
	return &QualityGate{}
}

// NewQualityGateWithThresholds creates a gate with custom thresholds
func NewQualityGateWithThresholds(thresholds QualityThresholds) *QualityGate {
	return &QualityGate{thresholds: thresholds}
}

// Evaluate returns one issue per sub-score below its threshold, in a
// fixed order: quality, resolution, sharpness, exposure, color depth.
func (g *QualityGate) Evaluate(result quality.QualityResult) []QualityIssue {
	checks := []struct {
		kind      string
		label     string
		actual    int
		threshold int
	}{
		{"low_quality", "Overall quality", result.Quality, g.thresholds.MinQuality},
		{"low_resolution", "Resolution", result.Breakdown.Resolution, g.thresholds.MinResolution},
		{"blurriness", "Sharpness", result.Breakdown.Sharpness, g.thresholds.MinSharpness},
		{"poor_exposure", "Exposure", result.Breakdown.Exposure, g.thresholds.MinExposure},
		{"low_color_depth", "Color depth", result.Breakdown.ColorDepth, g.thresholds.MinColorDepth},
	}

	var issues []QualityIssue
	for _, c := range checks {
		if c.threshold <= 0 || c.actual >= c.threshold {
			continue
		}
		issues = append(issues, QualityIssue{
			Type:        c.kind,
			Message:     fmt.Sprintf("%s score %d is below the minimum of %d", c.label, c.actual, c.threshold),
			Severity:    "error",
			ActualValue: c.actual,
			Threshold:   c.threshold,
		})
	}
	return issues
}

// Accepted reports whether result clears every threshold
func (g *QualityGate) Accepted(result quality.QualityResult) bool {
	return len(g.Evaluate(result)) == 0
}

// ConvertIssuesToMessages flattens issues to their messages
func ConvertIssuesToMessages(issues []QualityIssue) []string {
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}
