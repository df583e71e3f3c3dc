package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
)

// Locator schemes understood by the repository.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeAzure = "az"
	SchemeData  = "data"
	SchemeFile  = "file"
)

// URLValidator handles locator validation logic
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a validator that accepts http and https only
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{SchemeHTTP, SchemeHTTPS},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a validator with custom schemes and
// an optional host allow-list applied to http(s) locators.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Scheme returns the lowercase scheme of a locator. Paths without a
// scheme, including Windows drive paths, report SchemeFile.
func Scheme(locator string) string {
	locator = strings.TrimSpace(locator)
	if len(locator) >= 5 && strings.EqualFold(locator[:5], SchemeData+":") {
		return SchemeData
	}
	i := strings.Index(locator, "://")
	if i <= 1 {
		return SchemeFile
	}
	return strings.ToLower(locator[:i])
}

// ValidateImageURL checks that a locator is well formed for its scheme
// and that the scheme is allowed.
func (v *URLValidator) ValidateImageURL(locator string) error {
	if strings.TrimSpace(locator) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	scheme := Scheme(locator)
	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	switch scheme {
	case SchemeData:
		if !strings.Contains(locator, ",") {
			return apperrors.NewValidationError("Invalid data URI", nil)
		}
		return nil
	case SchemeFile:
		return nil
	}

	parsedURL, err := url.Parse(locator)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if scheme == SchemeAzure {
		if strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("Blob locator must name a blob", nil)
		}
		return nil
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
