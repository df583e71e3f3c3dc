package quality

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fetcher resolves a locator to encoded image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ErrNoFetcher is returned for locator inputs when no Fetcher is set.
var ErrNoFetcher = errors.New("no fetcher configured for locators")

// MaxDecodePixels bounds the natural size of an image the decoder will
// expand. Headers claiming more are rejected before any pixel is read.
const MaxDecodePixels = 8192 * 8192

// ErrTooManyPixels is wrapped by the DecodeError for oversized images.
var ErrTooManyPixels = errors.New("image exceeds pixel budget")

// Decoder turns an Input into a capped working buffer.
type Decoder struct {
	fetcher    Fetcher
	handles    HandleProvider
	rasterizer Rasterizer
}

// NewDecoder builds a Decoder from opts.
func NewDecoder(opts Options) *Decoder {
	d := &Decoder{
		fetcher:    opts.Fetcher,
		handles:    opts.Handles,
		rasterizer: opts.Rasterizer,
	}
	if d.handles == nil {
		d.handles = MemoryProvider{}
	}
	if d.rasterizer == nil {
		d.rasterizer = NewRasterizer(opts.Resampler)
	}
	return d
}

// source is an opened input plus the release that must run exactly
// once when the analysis call ends.
type source struct {
	open    func() (io.ReadCloser, error)
	release func()
}

// acquire opens in. For binary inputs it acquires a Handle whose
// Release is returned in the source.
func (d *Decoder) acquire(ctx context.Context, in Input) (*source, error) {
	if !in.IsBinary() {
		if d.fetcher == nil {
			return nil, &DecodeError{Source: in.String(), Err: ErrNoFetcher}
		}
		data, err := d.fetcher.Fetch(ctx, in.Locator())
		if err != nil {
			return nil, &DecodeError{Source: in.String(), Err: err}
		}
		return &source{
			open:    func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
			release: func() {},
		}, nil
	}

	h, err := d.handles.Acquire(in)
	if err != nil {
		return nil, &DecodeError{Source: in.String(), Err: err}
	}
	release := func() {
		if err := h.Release(); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("source", in.String()).Warn("Failed to release input handle")
		}
	}
	return &source{open: h.Open, release: release}, nil
}

// decode loads the image behind src and rasterizes it into the working
// buffer. The returned Dimensions are the natural, oriented size.
func (d *Decoder) decode(name string, src *source) (*PixelBuffer, Dimensions, error) {
	if err := checkPixelBudget(src); err != nil {
		return nil, Dimensions{}, &DecodeError{Source: name, Err: err}
	}

	rc, err := src.open()
	if err != nil {
		return nil, Dimensions{}, &DecodeError{Source: name, Err: err}
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Dimensions{}, &DecodeError{Source: name, Err: err}
	}

	b := img.Bounds()
	original := Dimensions{Width: b.Dx(), Height: b.Dy()}
	if original.Width == 0 || original.Height == 0 {
		return nil, original, &DecodeError{Source: name, Err: fmt.Errorf("image has no pixels")}
	}

	working := WorkingDimensions(original)
	surface, err := d.rasterizer.Rasterize(img, working.Width, working.Height)
	if err != nil {
		var rce *RasterContextError
		if !errors.As(err, &rce) {
			err = &RasterContextError{Width: working.Width, Height: working.Height, Err: err}
		}
		return nil, original, err
	}
	if surface == nil || surface.Rect.Dx() != working.Width || surface.Rect.Dy() != working.Height {
		return nil, original, &RasterContextError{
			Width: working.Width, Height: working.Height,
			Err: fmt.Errorf("rasterizer returned wrong surface"),
		}
	}
	return newPixelBuffer(surface), original, nil
}

// checkPixelBudget reads only the image header.
func checkPixelBudget(src *source) error {
	rc, err := src.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return err
	}
	if cfg.Width < 0 || cfg.Height < 0 || int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

// WorkingDimensions scales d so its larger side is at most MaxDimension.
// Both axes share one ratio and round independently.
func WorkingDimensions(d Dimensions) Dimensions {
	longest := max(d.Width, d.Height)
	if longest <= MaxDimension {
		return d
	}
	ratio := float64(MaxDimension) / float64(longest)
	return Dimensions{
		Width:  max(1, int(math.Round(float64(d.Width)*ratio))),
		Height: max(1, int(math.Round(float64(d.Height)*ratio))),
	}
}
