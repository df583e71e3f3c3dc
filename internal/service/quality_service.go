package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/observer"
	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/internal/repository"
	"github.com/anime-shed/image-quality-go/pkg/models"
	"github.com/anime-shed/image-quality-go/pkg/validation"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QualityService scores images and applies the acceptance gate
type QualityService interface {
	// Analyze scores the image behind a locator
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.QualityResponse, error)

	// AnalyzeUpload scores an uploaded image stream
	AnalyzeUpload(ctx context.Context, name string, r io.Reader, detailed bool) (*models.QualityResponse, error)

	// AnalyzeBatch scores several locators; per-item failures do not fail
	// the batch
	AnalyzeBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error)

	// ValidateImageURL validates a locator without fetching it
	ValidateImageURL(locator string) error

	// Metrics returns the running counters
	Metrics() observer.Metrics
}

// Options tune a QualityService.
type Options struct {
	// AnalysisTimeout bounds how long a caller waits for one score; zero
	// means no bound
	AnalysisTimeout  time.Duration
	BatchConcurrency int
	MaxBatchSize     int
}

// qualityService implements QualityService
type qualityService struct {
	imageRepo repository.ImageRepository
	engine    *quality.Engine
	gate      *validation.QualityGate
	events    observer.Subject
	metrics   *observer.MetricsObserver
	opts      Options
}

// NewQualityService creates a new quality service. The engine is expected
// to fetch locators through imageRepo.
func NewQualityService(
	imageRepository repository.ImageRepository,
	engine *quality.Engine,
	gate *validation.QualityGate,
	events observer.Subject,
	metrics *observer.MetricsObserver,
	opts Options,
) QualityService {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	if gate == nil {
		gate = validation.NewQualityGate()
	}
	return &qualityService{
		imageRepo: imageRepository,
		engine:    engine,
		gate:      gate,
		events:    events,
		metrics:   metrics,
		opts:      opts,
	}
}

// Analyze validates the locator, then scores it
func (s *qualityService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.QualityResponse, error) {
	in := quality.FromLocator(req.URL)
	if !in.IsPlaceholder() {
		if err := s.ValidateImageURL(req.URL); err != nil {
			return nil, err
		}
	}
	return s.score(ctx, in, nil, req.Detailed)
}

// AnalyzeUpload scores r, hashing the bytes as the engine consumes them
func (s *qualityService) AnalyzeUpload(ctx context.Context, name string, r io.Reader, detailed bool) (*models.QualityResponse, error) {
	if r == nil {
		return nil, apperrors.NewValidationError("image upload is empty", nil)
	}
	digest := xxhash.New()
	in := quality.FromReader(io.TeeReader(r, digest))
	if name != "" {
		in = in.Named(name)
	}
	return s.score(ctx, in, func() string {
		return strconv.FormatUint(digest.Sum64(), 16)
	}, detailed)
}

// AnalyzeBatch scores req.URLs with bounded concurrency. Items keep the
// request order.
func (s *qualityService) AnalyzeBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	if len(req.URLs) == 0 {
		return nil, apperrors.NewValidationError("batch must contain at least one URL", nil)
	}
	if s.opts.MaxBatchSize > 0 && len(req.URLs) > s.opts.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch of %d URLs exceeds the limit of %d", len(req.URLs), s.opts.MaxBatchSize), nil)
	}

	start := time.Now()
	items := make([]models.BatchItem, len(req.URLs))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, u := range req.URLs {
		i, u := i, u
		g.Go(func() error {
			items[i].URL = u
			resp, err := s.Analyze(ctx, models.AnalyzeRequest{URL: u, Detailed: req.Detailed})
			if err != nil {
				items[i].Error = toErrorResponse(err)
				return nil
			}
			items[i].Result = resp
			return nil
		})
	}
	_ = g.Wait()

	out := &models.BatchResponse{Items: items}
	for _, item := range items {
		if item.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.BatchCompleted,
		Source:         fmt.Sprintf("batch of %d", len(items)),
		ProcessingTime: time.Since(start),
		Metadata: map[string]interface{}{
			"succeeded": out.Succeeded,
			"failed":    out.Failed,
		},
	})
	return out, nil
}

// ValidateImageURL validates the image locator
func (s *qualityService) ValidateImageURL(locator string) error {
	return s.imageRepo.ValidateImageURL(locator)
}

func (s *qualityService) Metrics() observer.Metrics {
	if s.metrics == nil {
		return observer.Metrics{}
	}
	return s.metrics.GetMetrics()
}

// score runs the engine on in and builds the response. digest, when set,
// is read after the engine has consumed the input.
func (s *qualityService) score(ctx context.Context, in quality.Input, digest func() string, detailed bool) (*models.QualityResponse, error) {
	source := in.String()
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, Source: source})

	waitCtx := ctx
	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	report, err := s.engine.AnalyzeDetailed(waitCtx, in)
	elapsed := time.Since(start)
	if err != nil {
		appErr := apperrors.FromAnalysisError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Source:         source,
			ProcessingTime: elapsed,
			ErrorMessage:   appErr.Error(),
		})
		return nil, appErr
	}

	issues := s.gate.Evaluate(report.Result)
	resp := &models.QualityResponse{
		ID:                uuid.NewString(),
		Source:            source,
		Quality:           report.Result.Quality,
		Breakdown:         report.Result.Breakdown,
		Accepted:          len(issues) == 0,
		Issues:            issues,
		Timestamp:         time.Now().UTC(),
		ProcessingTimeSec: elapsed.Seconds(),
	}
	if digest != nil {
		resp.Digest = digest()
	}
	if detailed {
		resp.Diagnostics = report.Diagnostics
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Source:         source,
		ProcessingTime: elapsed,
		Quality:        resp.Quality,
		Accepted:       resp.Accepted,
	})
	return resp, nil
}

func (s *qualityService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func toErrorResponse(err error) *models.ErrorResponse {
	appErr := apperrors.FromAnalysisError(err)
	return &models.ErrorResponse{
		Error:   http.StatusText(appErr.StatusCode),
		Message: appErr.Message,
	}
}
