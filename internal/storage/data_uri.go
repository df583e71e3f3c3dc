package storage

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DataURIScheme prefixes inline image locators.
const DataURIScheme = "data"

// DataURIStorage decodes data:[<mediatype>][;base64],<payload> locators.
type DataURIStorage struct {
	MaxBytes int64
}

// Fetch implements Fetcher.
func (s DataURIStorage) Fetch(_ context.Context, locator string) ([]byte, error) {
	data, err := ParseDataURI(locator)
	if err != nil {
		return nil, err
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", s.MaxBytes)
	}
	return data, nil
}

// ParseDataURI returns the payload of a data URI. Only image media types,
// or none at all, are accepted.
func ParseDataURI(locator string) ([]byte, error) {
	rest, ok := strings.CutPrefix(locator, DataURIScheme+":")
	if !ok {
		return nil, errors.New("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("data URI has no payload separator")
	}

	params := strings.Split(header, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType != "" && !strings.HasPrefix(mediaType, "image/") {
		return nil, errors.Errorf("data URI media type %q is not an image", mediaType)
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid percent-encoding in data URI")
		}
		return []byte(decoded), nil
	}

	payload = strings.TrimSpace(payload)
	if unescaped, err := url.PathUnescape(payload); err == nil {
		payload = unescaped
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("invalid base64 payload in data URI")
}
