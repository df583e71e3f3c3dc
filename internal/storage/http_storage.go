package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anime-shed/image-quality-go/internal/logger"

	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPOptions configures an HTTPImageFetcher.
type HTTPOptions struct {
	Timeout  time.Duration
	Retries  int
	Backoff  time.Duration
	MaxBytes int64

	// CacheBytes sizes the in-memory response cache; zero disables it.
	CacheBytes int64
	CacheTTL   time.Duration
}

// DefaultHTTPOptions returns three attempts with linear 1s backoff and a
// 64MB response cache.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:    30 * time.Second,
		Retries:    3,
		Backoff:    time.Second,
		MaxBytes:   25 * 1024 * 1024,
		CacheBytes: 64 * 1024 * 1024,
		CacheTTL:   10 * time.Minute,
	}
}

// HTTPImageFetcher downloads images over HTTP(S).
type HTTPImageFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts HTTPOptions) *HTTPImageFetcher {
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	// Connection pooling tuned for single image downloads
	var transport http.RoundTripper = &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	if opts.CacheBytes > 0 {
		cache := lrucache.New(opts.CacheBytes, int64(opts.CacheTTL.Seconds()))
		cached := httpcache.NewTransport(cache)
		cached.Transport = transport
		transport = cached
	}

	return &HTTPImageFetcher{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Fetch downloads imageURL. 4xx responses fail immediately; 5xx responses
// and transport errors are retried with linear backoff.
func (h *HTTPImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}

	// Headers for image downloads
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Image-Quality/1.0")

	var lastErr *FetchError
	for attempt := 0; attempt < h.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * h.opts.Backoff):
			case <-ctx.Done():
				return nil, &FetchError{Locator: req.URL.Redacted(), Err: ctx.Err()}
			}
		}

		data, ferr := h.attempt(req)
		if ferr == nil {
			return data, nil
		}
		if ferr.StatusCode == 0 && errors.Is(ferr.Err, ErrTooLarge) {
			return nil, ferr.Err
		}
		lastErr = ferr

		// 4xx client errors are non-retryable
		if ferr.StatusCode >= 400 && ferr.StatusCode < 500 {
			break
		}
	}

	lastErr.Err = errors.Wrapf(lastErr.Err, "failed to fetch image after %d attempts", h.opts.Retries)
	return nil, lastErr
}

func (h *HTTPImageFetcher) attempt(req *http.Request) ([]byte, *FetchError) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{Locator: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &FetchError{
			Locator: req.URL.Redacted(), StatusCode: resp.StatusCode,
			Err: fmt.Errorf("client error: status code %d", resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return nil, &FetchError{
			Locator: req.URL.Redacted(), StatusCode: resp.StatusCode,
			Err: fmt.Errorf("server error: status code %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{
			Locator: req.URL.Redacted(), StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	data, err := readLimited(resp.Body, h.opts.MaxBytes)
	if err != nil {
		return nil, &FetchError{Locator: req.URL.Redacted(), Err: err}
	}

	logger.WithFields(logrus.Fields{
		"url":        req.URL.Redacted(),
		"bytes":      len(data),
		"from_cache": resp.Header.Get(httpcache.XFromCache) != "",
	}).Debug("Fetched image")
	return data, nil
}
