package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Fetcher resolves a locator to encoded image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ErrTooLarge is returned when an image exceeds the configured byte cap.
var ErrTooLarge = errors.New("image exceeds size limit")

// FetchError reports that a locator could not be retrieved.
type FetchError struct {
	Locator    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Locator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch marks the error as a retrieval failure.
func (e *FetchError) Fetch() bool { return true }

// readLimited reads r fully, failing with ErrTooLarge past max bytes.
// A max of zero or less disables the cap.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", max)
	}
	return data, nil
}
