package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileScheme names local file locators: file:///abs/path or a bare path.
const FileScheme = "file"

// FileStorage reads images from the local filesystem.
type FileStorage struct {
	MaxBytes int64
}

// Path resolves a file locator to a filesystem path.
func (FileStorage) Path(locator string) (string, error) {
	if strings.HasPrefix(locator, FileScheme+"://") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", errors.Wrap(err, "invalid file locator")
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", errors.Errorf("file locator host %q is not local", u.Host)
		}
		locator = u.Path
	}
	if locator == "" {
		return "", errors.New("empty file path")
	}
	return filepath.Clean(locator), nil
}

// Fetch implements Fetcher.
func (s FileStorage) Fetch(_ context.Context, locator string) ([]byte, error) {
	path, err := s.Path(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{Locator: path, Err: err}
	}
	defer f.Close()

	data, err := readLimited(f, s.MaxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, &FetchError{Locator: path, Err: errors.Wrap(err, "read file")}
	}
	return data, nil
}
