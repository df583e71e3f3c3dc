package repository

import (
	"context"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// Fetch retrieves the encoded bytes behind a locator
	Fetch(ctx context.Context, locator string) ([]byte, error)

	// ValidateImageURL validates if the provided locator is acceptable
	ValidateImageURL(locator string) error

	// Schemes lists the locator schemes with a configured backend
	Schemes() []string
}
