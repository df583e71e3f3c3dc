package quality

// Options configures an Engine.
type Options struct {
	// Fetcher resolves locator inputs. Without one, locators fail with
	// a DecodeError.
	Fetcher Fetcher

	// Handles acquires temporary handles for binary inputs.
	Handles HandleProvider

	// Rasterizer draws the decoded image into the working buffer. When
	// nil, one is built from Resampler.
	Rasterizer Rasterizer
	Resampler  Resampler
}

// DefaultOptions returns in-memory handles and bilinear resampling.
func DefaultOptions() Options {
	return Options{
		Handles:   MemoryProvider{},
		Resampler: ResampleBiLinear,
	}
}

// WithFetcher sets the locator fetcher.
func (opts Options) WithFetcher(f Fetcher) Options {
	opts.Fetcher = f
	return opts
}

// WithHandleProvider sets the binary-input handle provider.
func (opts Options) WithHandleProvider(p HandleProvider) Options {
	opts.Handles = p
	return opts
}

// WithRasterizer overrides the rasterizer.
func (opts Options) WithRasterizer(r Rasterizer) Options {
	opts.Rasterizer = r
	return opts
}

// WithResampler selects the downscale interpolation.
func (opts Options) WithResampler(r Resampler) Options {
	opts.Resampler = r
	return opts
}
