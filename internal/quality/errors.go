package quality

import "fmt"

// DecodeError reports an input that could not be loaded or parsed as an
// image. It is terminal for the call.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("quality: decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RasterContextError reports that the working surface could not be
// obtained.
type RasterContextError struct {
	Width, Height int
	Err           error
}

func (e *RasterContextError) Error() string {
	return fmt.Sprintf("quality: raster context %dx%d: %v", e.Width, e.Height, e.Err)
}

func (e *RasterContextError) Unwrap() error { return e.Err }

// ScoringError carries a panic recovered from a scoring pass.
type ScoringError struct {
	Value interface{}
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("quality: scoring failed: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *ScoringError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
