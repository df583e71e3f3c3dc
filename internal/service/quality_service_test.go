package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/observer"
	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/pkg/models"
	"github.com/anime-shed/image-quality-go/pkg/validation"

	"github.com/cespare/xxhash/v2"
)

// fakeRepository serves fixed bytes per locator
type fakeRepository struct {
	images   map[string][]byte
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (r *fakeRepository) Fetch(ctx context.Context, locator string) ([]byte, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	data, ok := r.images[locator]
	if !ok {
		return nil, &fetchFailure{locator: locator}
	}
	return data, nil
}

func (r *fakeRepository) ValidateImageURL(locator string) error {
	if !strings.HasPrefix(locator, "https://") {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	return nil
}

func (r *fakeRepository) Schemes() []string { return []string{"https"} }

type fetchFailure struct{ locator string }

func (e *fetchFailure) Error() string { return "no such image: " + e.locator }
func (e *fetchFailure) Fetch() bool   { return true }

func greyPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, repo *fakeRepository, thresholds validation.QualityThresholds, opts Options) (QualityService, *observer.MetricsObserver) {
	t.Helper()
	engine := quality.NewEngine(quality.DefaultOptions().WithFetcher(repo))
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)
	svc := NewQualityService(repo, engine, validation.NewQualityGateWithThresholds(thresholds), events, metrics, opts)
	return svc, metrics
}

func TestAnalyze(t *testing.T) {
	repo := &fakeRepository{images: map[string][]byte{"https://example.com/grey.png": greyPNG(t, 64)}}
	svc, metrics := newTestService(t, repo, validation.QualityThresholds{}, Options{})

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{URL: "https://example.com/grey.png"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.Quality != 20 || resp.Breakdown.Exposure != 100 || resp.Breakdown.ColorDepth != 0 {
		t.Errorf("unexpected scores: %+v", resp)
	}
	if !resp.Accepted || len(resp.Issues) != 0 {
		t.Errorf("expected acceptance without thresholds, got %+v", resp.Issues)
	}
	if resp.ID == "" || resp.Digest != "" || resp.Diagnostics != nil {
		t.Errorf("unexpected bookkeeping: id=%q digest=%q diagnostics=%v", resp.ID, resp.Digest, resp.Diagnostics)
	}
	if resp.Source != "https://example.com/grey.png" {
		t.Errorf("source = %q", resp.Source)
	}

	m := metrics.GetMetrics()
	if m.TotalAnalyses != 1 || m.SuccessfulAnalyses != 1 || m.AcceptedImages != 1 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestAnalyzeDetailedAndGate(t *testing.T) {
	repo := &fakeRepository{images: map[string][]byte{"https://example.com/grey.png": greyPNG(t, 64)}}
	svc, metrics := newTestService(t, repo, validation.QualityThresholds{MinQuality: 50}, Options{})

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{URL: "https://example.com/grey.png", Detailed: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.Accepted {
		t.Error("expected rejection below MinQuality")
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Type != "low_quality" || resp.Issues[0].Threshold != 50 {
		t.Errorf("unexpected issues: %+v", resp.Issues)
	}
	if resp.Diagnostics == nil || resp.Diagnostics.Original.Width != 64 {
		t.Errorf("expected diagnostics, got %+v", resp.Diagnostics)
	}
	if got := metrics.GetMetrics().RejectedImages; got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}

func TestAnalyzePlaceholderSkipsValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{}, validation.QualityThresholds{}, Options{})

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{URL: quality.Placeholder})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.Quality != 94 || len(resp.Breakdown.Tags) != 4 {
		t.Errorf("unexpected placeholder response: %+v", resp)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	repo := &fakeRepository{images: map[string][]byte{"https://example.com/junk": []byte("not an image")}}
	svc, metrics := newTestService(t, repo, validation.QualityThresholds{}, Options{})

	tests := []struct {
		url    string
		status int
	}{
		{url: "ftp://example.com/a.png", status: http.StatusBadRequest},
		{url: "https://example.com/missing.png", status: http.StatusBadGateway},
		{url: "https://example.com/junk", status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{URL: tt.url})
		if got := apperrors.GetStatusCode(err); got != tt.status {
			t.Errorf("Analyze(%q) status = %d, want %d (err %v)", tt.url, got, tt.status, err)
		}
	}

	if got := metrics.GetMetrics().FailedAnalyses; got != 2 {
		t.Errorf("failed = %d, want 2 (validation failures are not analyses)", got)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	repo := &fakeRepository{
		images: map[string][]byte{"https://example.com/slow.png": greyPNG(t, 8)},
		delay:  200 * time.Millisecond,
	}
	svc, _ := newTestService(t, repo, validation.QualityThresholds{}, Options{AnalysisTimeout: 20 * time.Millisecond})

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{URL: "https://example.com/slow.png"})
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestAnalyzeUpload(t *testing.T) {
	data := greyPNG(t, 32)
	svc, _ := newTestService(t, &fakeRepository{}, validation.QualityThresholds{}, Options{})

	resp, err := svc.AnalyzeUpload(context.Background(), "scan.png", bytes.NewReader(data), false)
	if err != nil {
		t.Fatalf("AnalyzeUpload: %v", err)
	}
	if want := strconv.FormatUint(xxhash.Sum64(data), 16); resp.Digest != want {
		t.Errorf("digest = %q, want %q", resp.Digest, want)
	}
	if resp.Source != "scan.png" {
		t.Errorf("source = %q, want scan.png", resp.Source)
	}

	if _, err := svc.AnalyzeUpload(context.Background(), "", nil, false); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error for nil upload, got %v", err)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	grey := greyPNG(t, 16)
	repo := &fakeRepository{
		images: map[string][]byte{
			"https://example.com/1.png": grey,
			"https://example.com/2.png": grey,
			"https://example.com/3.png": grey,
			"https://example.com/4.png": grey,
		},
		delay: 20 * time.Millisecond,
	}
	svc, metrics := newTestService(t, repo, validation.QualityThresholds{}, Options{BatchConcurrency: 2, MaxBatchSize: 8})

	urls := []string{
		"https://example.com/1.png",
		"ftp://example.com/bad.png",
		"https://example.com/2.png",
		"https://example.com/3.png",
		"https://example.com/4.png",
	}
	resp, err := svc.AnalyzeBatch(context.Background(), models.BatchRequest{URLs: urls})
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if resp.Succeeded != 4 || resp.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d", resp.Succeeded, resp.Failed)
	}
	for i, item := range resp.Items {
		if item.URL != urls[i] {
			t.Errorf("item %d url = %q, want %q", i, item.URL, urls[i])
		}
	}
	if resp.Items[1].Error == nil || resp.Items[1].Error.Error != "Bad Request" {
		t.Errorf("expected bad request for item 1, got %+v", resp.Items[1])
	}
	if peak := repo.peak.Load(); peak > 2 {
		t.Errorf("concurrency limit exceeded: peak %d", peak)
	}
	if got := metrics.GetMetrics().Batches; got != 1 {
		t.Errorf("batches = %d, want 1", got)
	}
}

func TestAnalyzeBatchLimits(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{}, validation.QualityThresholds{}, Options{MaxBatchSize: 2})

	for _, urls := range [][]string{nil, {"a", "b", "c"}} {
		_, err := svc.AnalyzeBatch(context.Background(), models.BatchRequest{URLs: urls})
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("AnalyzeBatch(%d urls): expected validation error, got %v", len(urls), err)
		}
	}
}
