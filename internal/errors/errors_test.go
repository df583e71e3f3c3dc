package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anime-shed/image-quality-go/internal/quality"
)

type fetchFailure struct{}

func (fetchFailure) Error() string { return "connection refused" }
func (fetchFailure) Fetch() bool   { return true }

func TestFromAnalysisError(t *testing.T) {
	validation := NewValidationError("URL scheme not allowed", nil)

	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantCode int
	}{
		{"app error passes through", fmt.Errorf("wrapped: %w", validation), ErrorTypeValidation, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"fetch inside decode", &quality.DecodeError{Source: "u", Err: fetchFailure{}}, ErrorTypeNetwork, http.StatusBadGateway},
		{"decode", &quality.DecodeError{Source: "u", Err: errors.New("bad header")}, ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"raster", &quality.RasterContextError{Width: 1, Height: 1, Err: errors.New("oom")}, ErrorTypeInternal, http.StatusInternalServerError},
		{"scoring", &quality.ScoringError{Value: "boom"}, ErrorTypeInternal, http.StatusInternalServerError},
		{"unknown", errors.New("mystery"), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromAnalysisError(tt.err)
			if appErr.Type != tt.wantType || appErr.StatusCode != tt.wantCode {
				t.Errorf("got %s/%d, want %s/%d", appErr.Type, appErr.StatusCode, tt.wantType, tt.wantCode)
			}
			if !IsType(appErr, tt.wantType) || GetStatusCode(appErr) != tt.wantCode {
				t.Error("IsType/GetStatusCode disagree with the mapped error")
			}
		})
	}

	if FromAnalysisError(nil) != nil {
		t.Error("nil error must map to nil")
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewPayloadTooLargeError("request body too large", cause)
	if !errors.Is(err, cause) {
		t.Error("expected AppError to unwrap to its cause")
	}
	if err.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", err.StatusCode)
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("plain errors should map to 500")
	}
}
