package quality

import (
	"image"
	"math"
	"testing"
)

func TestSharpnessWindow(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
		want          image.Rectangle
	}{
		{"Large", 1000, 800, image.Rect(250, 150, 750, 650)},
		{"Odd Offset", 1001, 501, image.Rect(250, 0, 750, 500)},
		{"Smaller Than Window", 300, 200, image.Rect(0, 0, 300, 200)},
		{"Wide And Short", 2048, 100, image.Rect(774, 0, 1274, 100)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sharpnessWindow(tc.width, tc.height); got != tc.want {
				t.Errorf("Expected window %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSharpnessScore_Uniform(t *testing.T) {
	buf := solidBuffer(600, 600, 90, 140, 30)
	if got := AverageEdge(buf); got > 1e-9 {
		t.Errorf("Expected no edge energy in uniform image, got %f", got)
	}
	if got := SharpnessScore(buf); got > 1e-9 {
		t.Errorf("Expected sharpness 0, got %f", got)
	}
}

func TestSharpnessScore_Checkerboard(t *testing.T) {
	buf := solidBuffer(64, 64, 0, 0, 0)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x+y)%2 == 0 {
				setPixel(buf, x, y, 255)
			}
		}
	}

	if got := AverageEdge(buf); math.Abs(got-1020) > 1e-6 {
		t.Errorf("Expected average edge 1020, got %f", got)
	}
	if got := SharpnessScore(buf); got != 100 {
		t.Errorf("Expected sharpness 100, got %f", got)
	}
}

func TestSharpnessScore_SingleEdge(t *testing.T) {
	// Left half black, right half white: two edge pixels per interior row,
	// each with Laplacian magnitude 255.
	buf := solidBuffer(100, 100, 0, 0, 0)
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			setPixel(buf, x, y, 255)
		}
	}

	wantEdge := 2 * 255.0 / 98
	if got := AverageEdge(buf); math.Abs(got-wantEdge) > 1e-6 {
		t.Errorf("Expected average edge %f, got %f", wantEdge, got)
	}
	wantScore := wantEdge / 8 * 100
	if got := SharpnessScore(buf); math.Abs(got-wantScore) > 1e-6 {
		t.Errorf("Expected sharpness %f, got %f", wantScore, got)
	}
}

func TestSharpnessScore_OnlyCenterIsSampled(t *testing.T) {
	// Noise outside the centered window must not count.
	buf := solidBuffer(900, 900, 128, 128, 128)
	for y := 0; y < 900; y++ {
		for x := 0; x < 150; x++ {
			if (x+y)%2 == 0 {
				setPixel(buf, x, y, 0)
			}
		}
	}
	if got := AverageEdge(buf); got > 1e-9 {
		t.Errorf("Expected edges outside window to be ignored, got %f", got)
	}
}

func TestSharpnessScore_TinyBuffer(t *testing.T) {
	for _, size := range []image.Point{{1, 1}, {2, 2}, {2, 50}, {50, 1}} {
		buf := solidBuffer(size.X, size.Y, 0, 0, 0)
		if got := AverageEdge(buf); got != 0 {
			t.Errorf("Expected 0 for %v buffer, got %f", size, got)
		}
	}
}
