package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/storage"
)

type fetchFunc func(ctx context.Context, locator string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f(ctx, locator)
}

func static(data string) storage.Fetcher {
	return fetchFunc(func(context.Context, string) ([]byte, error) { return []byte(data), nil })
}

func TestNewImageRepositoryRequiresBackends(t *testing.T) {
	if _, err := NewImageRepository(nil, 0, nil); !errors.Is(err, ErrRepositoryUnavailable) {
		t.Fatalf("expected ErrRepositoryUnavailable, got %v", err)
	}
}

func TestRoutingBySchemes(t *testing.T) {
	repo, err := NewImageRepository(map[string]storage.Fetcher{
		"https": static("web"),
		"az":    static("blob"),
		"data":  storage.DataURIStorage{},
	}, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := repo.Schemes(); len(got) != 3 || got[0] != "az" || got[1] != "data" || got[2] != "https" {
		t.Errorf("Schemes() = %v", got)
	}

	tests := []struct {
		locator string
		want    string
	}{
		{"https://example.com/a.png", "web"},
		{"az://scans/a.png", "blob"},
		{"data:image/png;base64,aGk=", "hi"},
	}
	for _, tt := range tests {
		data, err := repo.Fetch(context.Background(), tt.locator)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", tt.locator, err)
		}
		if string(data) != tt.want {
			t.Errorf("Fetch(%q) = %q, want %q", tt.locator, data, tt.want)
		}
	}
}

func TestFetchRejectsUnroutedScheme(t *testing.T) {
	repo, _ := NewImageRepository(map[string]storage.Fetcher{"https": static("web")}, 0, nil)

	for _, locator := range []string{"http://example.com/a.png", "/tmp/a.png", ""} {
		_, err := repo.Fetch(context.Background(), locator)
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Fetch(%q) error = %v, want validation error", locator, err)
		}
	}
}

func TestFetchAppliesTimeout(t *testing.T) {
	slow := fetchFunc(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	repo, _ := NewImageRepository(map[string]storage.Fetcher{"https": slow}, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := repo.Fetch(context.Background(), "https://example.com/slow.png")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not applied, took %s", elapsed)
	}
}

func TestFetchHostAllowList(t *testing.T) {
	repo, _ := NewImageRepository(map[string]storage.Fetcher{"https": static("web")}, 0, []string{"cdn.example.com"})

	if _, err := repo.Fetch(context.Background(), "https://cdn.example.com/a.png"); err != nil {
		t.Errorf("allowed host refused: %v", err)
	}
	if _, err := repo.Fetch(context.Background(), "https://other.example.com/a.png"); err == nil {
		t.Error("expected error for host outside allow-list")
	}
}
