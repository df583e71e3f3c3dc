package repository

import "errors"

var (
	// ErrUnsupportedScheme indicates no backend serves the locator's scheme
	ErrUnsupportedScheme = errors.New("unsupported locator scheme")

	// ErrRepositoryUnavailable indicates the repository has no backends
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
