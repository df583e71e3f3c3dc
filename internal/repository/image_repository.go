package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/storage"
	"github.com/anime-shed/image-quality-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// RoutingImageRepository validates locators and hands them to the
// storage backend registered for their scheme.
type RoutingImageRepository struct {
	backends  map[string]storage.Fetcher
	validator *validation.URLValidator
	timeout   time.Duration
}

// NewImageRepository creates a repository over backends keyed by scheme.
// A zero timeout leaves fetches bounded only by the caller's context.
func NewImageRepository(backends map[string]storage.Fetcher, timeout time.Duration, allowedHosts []string) (*RoutingImageRepository, error) {
	if len(backends) == 0 {
		return nil, ErrRepositoryUnavailable
	}
	r := &RoutingImageRepository{
		backends: make(map[string]storage.Fetcher, len(backends)),
		timeout:  timeout,
	}
	for scheme, f := range backends {
		r.backends[scheme] = f
	}
	r.validator = validation.NewURLValidatorWithOptions(r.Schemes(), allowedHosts)
	return r, nil
}

// Schemes returns the registered schemes in sorted order.
func (r *RoutingImageRepository) Schemes() []string {
	schemes := make([]string, 0, len(r.backends))
	for s := range r.backends {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// ValidateImageURL validates if the provided locator is acceptable
func (r *RoutingImageRepository) ValidateImageURL(locator string) error {
	return r.validator.ValidateImageURL(locator)
}

// Fetch validates locator and downloads it from the matching backend.
func (r *RoutingImageRepository) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := r.ValidateImageURL(locator); err != nil {
		return nil, err
	}

	scheme := validation.Scheme(locator)
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := backend.Fetch(ctx, locator)
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"scheme":      scheme,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("image fetch failed")
		return nil, err
	}
	log.WithField("bytes", len(data)).Debug("image fetched")
	return data, nil
}
