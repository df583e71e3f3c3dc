package quality

import "image"

// PixelBuffer is the working raster: interleaved R, G, B, A samples,
// row-major, top-to-bottom. It is owned by a single analysis call.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// newPixelBuffer wraps an NRGBA image whose stride is exactly 4*width.
func newPixelBuffer(img *image.NRGBA) *PixelBuffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := img.Pix
	if img.Stride != w*4 {
		pix = make([]uint8, 0, w*h*4)
		for y := 0; y < h; y++ {
			off := y * img.Stride
			pix = append(pix, img.Pix[off:off+w*4]...)
		}
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// Dimensions are the natural size of the source image, before any
// working-buffer downscale.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Megapixels returns width*height in millions of pixels.
func (d Dimensions) Megapixels() float64 {
	return float64(d.Width) * float64(d.Height) / 1_000_000
}

// LuminanceStats is the output of the full-buffer luminance pass.
type LuminanceStats struct {
	AvgLuminance   float64
	Histogram      [256]int
	PixelCount     int
	BlackClipRatio float64
	WhiteClipRatio float64
}

// Breakdown holds the four sub-scores plus derived tags and warnings.
type Breakdown struct {
	Resolution int      `json:"resolution"`
	Sharpness  int      `json:"sharpness"`
	Exposure   int      `json:"exposure"`
	ColorDepth int      `json:"colorDepth"`
	Tags       []string `json:"tags"`
	Warnings   []string `json:"warnings"`
}

// QualityResult is the composite score returned for an image.
type QualityResult struct {
	Quality   int       `json:"quality"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scores are the unrounded sub-scores, each already clamped to [0,100].
type Scores struct {
	Resolution float64
	Sharpness  float64
	Exposure   float64
	ColorDepth float64
}

// Diagnostics exposes the raw statistics behind a result.
type Diagnostics struct {
	Original       Dimensions `json:"original"`
	Working        Dimensions `json:"working"`
	Megapixels     float64    `json:"megapixels"`
	AvgLuminance   float64    `json:"avg_luminance"`
	StdDev         float64    `json:"std_dev"`
	BlackClipRatio float64    `json:"black_clip_ratio"`
	WhiteClipRatio float64    `json:"white_clip_ratio"`
	AvgEdge        float64    `json:"avg_edge"`
}

// Report is a QualityResult plus the diagnostics it was derived from.
// Diagnostics is nil for the placeholder result.
type Report struct {
	Result      QualityResult `json:"result"`
	Diagnostics *Diagnostics  `json:"diagnostics,omitempty"`
}
