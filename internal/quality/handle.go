package quality

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Handle is a temporary, addressable view of binary input.
type Handle interface {
	Open() (io.ReadCloser, error)
	Release() error
}

// HandleProvider acquires handles for binary inputs.
type HandleProvider interface {
	Acquire(in Input) (Handle, error)
}

// MemoryProvider keeps binary input in memory.
type MemoryProvider struct {
	// MaxBytes caps streamed input; zero means no cap.
	MaxBytes int64
}

// Acquire implements HandleProvider.
func (p MemoryProvider) Acquire(in Input) (Handle, error) {
	switch in.kind {
	case kindBytes:
		return &memoryHandle{data: in.data}, nil
	case kindReader:
		data, err := readAllLimited(in.reader, p.MaxBytes)
		if err != nil {
			return nil, err
		}
		return &memoryHandle{data: data}, nil
	default:
		return nil, fmt.Errorf("input %s is not binary", in)
	}
}

type memoryHandle struct {
	mu   sync.Mutex
	data []byte
}

func (h *memoryHandle) Open() (io.ReadCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data == nil {
		return nil, errors.New("handle released")
	}
	return io.NopCloser(bytes.NewReader(h.data)), nil
}

func (h *memoryHandle) Release() error {
	h.mu.Lock()
	h.data = nil
	h.mu.Unlock()
	return nil
}

// TempFileProvider spools binary input to a temporary file that is
// removed on Release.
type TempFileProvider struct {
	Dir      string
	MaxBytes int64
}

// Acquire implements HandleProvider.
func (p TempFileProvider) Acquire(in Input) (Handle, error) {
	var src io.Reader
	switch in.kind {
	case kindBytes:
		src = bytes.NewReader(in.data)
	case kindReader:
		src = in.reader
	default:
		return nil, fmt.Errorf("input %s is not binary", in)
	}

	f, err := os.CreateTemp(p.Dir, "quality-*.img")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	h := &fileHandle{path: f.Name()}

	_, copyErr := io.Copy(f, limitReader(src, p.MaxBytes))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return nil, fmt.Errorf("spool input: %w", errors.Join(err, h.Release()))
	}
	if p.MaxBytes > 0 {
		if fi, err := os.Stat(h.path); err == nil && fi.Size() > p.MaxBytes {
			return nil, errors.Join(fmt.Errorf("input exceeds %d bytes", p.MaxBytes), h.Release())
		}
	}
	return h, nil
}

type fileHandle struct {
	path string
	once sync.Once
	err  error
}

func (h *fileHandle) Open() (io.ReadCloser, error) {
	return os.Open(h.path)
}

func (h *fileHandle) Release() error {
	h.once.Do(func() {
		h.err = os.Remove(h.path)
	})
	return h.err
}

// limitReader lets one byte past max through so oversize input is
// detectable.
func limitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return io.LimitReader(r, max+1)
}

func readAllLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(limitReader(r, max))
	if err != nil {
		return nil, err
	}
	if max > 0 && int64(len(data)) > max {
		return nil, fmt.Errorf("input exceeds %d bytes", max)
	}
	return data, nil
}
