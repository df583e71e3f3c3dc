package factory

import (
	"fmt"

	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/internal/storage"
	"github.com/anime-shed/image-quality-go/pkg/validation"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
	// DataURIStorage for inline data: locators
	DataURIStorage StorageType = "data"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.Fetcher, error)
	// Backends returns every enabled backend keyed by locator scheme
	Backends() (map[string]storage.Fetcher, error)
}

// EngineFactory creates scoring engines
type EngineFactory interface {
	CreateEngine(fetcher quality.Fetcher) *quality.Engine
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory driven by cfg
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.Fetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(storage.HTTPOptions{
			Timeout:    f.cfg.ImageFetchTimeout,
			Retries:    f.cfg.FetchRetries,
			Backoff:    f.cfg.FetchBackoff,
			MaxBytes:   f.cfg.MaxImageBytes,
			CacheBytes: f.cfg.FetchCacheSize,
			CacheTTL:   f.cfg.FetchCacheTTL,
		}), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.MaxImageBytes)
	case LocalStorage:
		if !f.cfg.AllowLocalFiles {
			return nil, fmt.Errorf("local storage is disabled (set ALLOW_LOCAL_FILES)")
		}
		return storage.FileStorage{MaxBytes: f.cfg.MaxImageBytes}, nil
	case DataURIStorage:
		return storage.DataURIStorage{MaxBytes: f.cfg.MaxImageBytes}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) Backends() (map[string]storage.Fetcher, error) {
	backends := make(map[string]storage.Fetcher)

	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}
	backends[validation.SchemeHTTP] = httpFetcher
	backends[validation.SchemeHTTPS] = httpFetcher

	dataFetcher, err := f.CreateStorage(DataURIStorage)
	if err != nil {
		return nil, err
	}
	backends[validation.SchemeData] = dataFetcher

	if f.cfg.AzureEnabled() {
		azure, err := f.CreateStorage(AzureStorage)
		if err != nil {
			return nil, err
		}
		backends[validation.SchemeAzure] = azure
	}
	if f.cfg.AllowLocalFiles {
		local, err := f.CreateStorage(LocalStorage)
		if err != nil {
			return nil, err
		}
		backends[validation.SchemeFile] = local
	}
	return backends, nil
}

// engineFactory implements EngineFactory
type engineFactory struct {
	cfg *config.Config
}

// NewEngineFactory creates an engine factory driven by cfg
func NewEngineFactory(cfg *config.Config) EngineFactory {
	return &engineFactory{cfg: cfg}
}

// CreateEngine builds an engine that spools streamed uploads to temp
// files and caps buffered input at MAX_IMAGE_BYTES.
func (f *engineFactory) CreateEngine(fetcher quality.Fetcher) *quality.Engine {
	opts := quality.DefaultOptions().
		WithFetcher(fetcher).
		WithResampler(f.cfg.Resampler).
		WithHandleProvider(quality.TempFileProvider{MaxBytes: f.cfg.MaxImageBytes})
	return quality.NewEngine(opts)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	EngineFactory  EngineFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
		EngineFactory:  NewEngineFactory(cfg),
	}
}
