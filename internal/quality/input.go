package quality

import (
	"io"
	"strings"
)

type inputKind int

const (
	kindLocator inputKind = iota
	kindBytes
	kindReader
)

// Input is either binary image data or a locator string.
type Input struct {
	kind    inputKind
	locator string
	data    []byte
	reader  io.Reader
	name    string
}

// FromLocator wraps a URL, data URI or path.
func FromLocator(locator string) Input {
	return Input{kind: kindLocator, locator: locator}
}

// FromBytes wraps encoded image bytes.
func FromBytes(data []byte) Input {
	return Input{kind: kindBytes, data: data}
}

// FromReader wraps a stream of encoded image bytes. The stream is
// consumed once, when the call acquires its handle.
func FromReader(r io.Reader) Input {
	return Input{kind: kindReader, reader: r}
}

// Named attaches a display name (an upload's filename, say) used in logs
// and errors.
func (in Input) Named(name string) Input {
	in.name = name
	return in
}

// IsPlaceholder reports whether in is exactly the placeholder locator.
func (in Input) IsPlaceholder() bool {
	return in.kind == kindLocator && in.locator == Placeholder
}

// IsBinary reports whether in carries image data rather than a locator.
func (in Input) IsBinary() bool {
	return in.kind != kindLocator
}

// Locator returns the locator string, or "" for binary inputs.
func (in Input) Locator() string {
	if in.kind != kindLocator {
		return ""
	}
	return in.locator
}

// String describes the input without leaking payloads.
func (in Input) String() string {
	switch {
	case in.name != "":
		return in.name
	case in.kind == kindBytes:
		return "bytes"
	case in.kind == kindReader:
		return "stream"
	case strings.HasPrefix(in.locator, "data:"):
		if i := strings.IndexAny(in.locator, ";,"); i > 0 {
			return in.locator[:i]
		}
		return "data:"
	default:
		return in.locator
	}
}
