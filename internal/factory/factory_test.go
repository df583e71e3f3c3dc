package factory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/anime-shed/image-quality-go/internal/config"
	"github.com/anime-shed/image-quality-go/internal/quality"
)

func testConfig() *config.Config {
	return &config.Config{
		ImageFetchTimeout: time.Second,
		FetchRetries:      1,
		FetchBackoff:      time.Millisecond,
		MaxImageBytes:     1024,
		Resampler:         quality.ResampleBiLinear,
	}
}

func schemes(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	backends, err := NewStorageFactory(cfg).Backends()
	if err != nil {
		t.Fatalf("Backends: %v", err)
	}
	var out []string
	for s := range backends {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{name: "defaults", mutate: func(*config.Config) {}, want: []string{"data", "http", "https"}},
		{name: "local files", mutate: func(c *config.Config) { c.AllowLocalFiles = true }, want: []string{"data", "file", "http", "https"}},
		{name: "azure", mutate: func(c *config.Config) {
			c.AzureAccountName = "acct"
			c.AzureAccountKey = "a2V5"
		}, want: []string{"az", "data", "http", "https"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			got := schemes(t, cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("schemes = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("schemes = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCreateStorageErrors(t *testing.T) {
	f := NewStorageFactory(testConfig())
	for _, st := range []StorageType{AzureStorage, LocalStorage, "ftp"} {
		if _, err := f.CreateStorage(st); err == nil {
			t.Errorf("CreateStorage(%s): expected error", st)
		}
	}
}

func TestCreateEngineScoresPlaceholder(t *testing.T) {
	engine := NewComponentFactory(testConfig()).EngineFactory.CreateEngine(nil)
	result, err := engine.Analyze(context.Background(), quality.FromLocator(quality.Placeholder))
	if err != nil {
		t.Fatal(err)
	}
	if result.Quality != 94 {
		t.Errorf("placeholder quality = %d, want 94", result.Quality)
	}
}
