package container

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/factory"
	"github.com/anime-shed/image-quality-go/internal/observer"
	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/internal/repository"
	"github.com/anime-shed/image-quality-go/internal/service"
	"github.com/anime-shed/image-quality-go/internal/transport"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	imageRepository repository.ImageRepository
	engine          *quality.Engine
	metrics         *observer.MetricsObserver
	qualityService  service.QualityService

	handlerOnce sync.Once
	handler     http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	components := factory.NewComponentFactory(cfg)

	backends, err := components.StorageFactory.Backends()
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backends: %w", err)
	}
	imageRepository, err := repository.NewImageRepository(backends, cfg.ImageFetchTimeout, cfg.AllowedHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create image repository: %w", err)
	}

	engine := components.EngineFactory.CreateEngine(imageRepository)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver())
	events.Subscribe(metrics)

	gate := validation.NewQualityGateWithThresholds(validation.QualityThresholds{
		MinQuality:    cfg.Thresholds.MinQuality,
		MinResolution: cfg.Thresholds.MinResolution,
		MinSharpness:  cfg.Thresholds.MinSharpness,
		MinExposure:   cfg.Thresholds.MinExposure,
		MinColorDepth: cfg.Thresholds.MinColorDepth,
	})

	qualityService := service.NewQualityService(imageRepository, engine, gate, events, metrics, service.Options{
		AnalysisTimeout:  cfg.AnalysisTimeout,
		BatchConcurrency: cfg.BatchConcurrency,
		MaxBatchSize:     cfg.MaxBatchSize,
	})

	return &Container{
		config:          cfg,
		imageRepository: imageRepository,
		engine:          engine,
		metrics:         metrics,
		qualityService:  qualityService,
	}, nil
}

// Handler returns the HTTP handler, building the router on first use
func (c *Container) Handler() http.Handler {
	c.handlerOnce.Do(func() {
		c.handler = transport.NewHandler(c.qualityService, c.config)
	})
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the quality service
func (c *Container) Service() service.QualityService {
	return c.qualityService
}

// Repository returns the locator-routing image repository
func (c *Container) Repository() repository.ImageRepository {
	return c.imageRepository
}
