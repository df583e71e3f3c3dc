package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anime-shed/image-quality-go/internal/quality"
	"github.com/anime-shed/image-quality-go/pkg/models"
)

func writePNG(t *testing.T, dir, name string, c color.Gray) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.SetGray(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "imgquality "+version) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestScoreLocalFile(t *testing.T) {
	path := writePNG(t, t.TempDir(), "grey.png", color.Gray{Y: 128})

	out, err := run(t, "score", path)
	if err != nil {
		t.Fatalf("score: %v (output %q)", err, out)
	}
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) < 4 || fields[0] != path || fields[1] != "20" || fields[2] != "ok" {
		t.Errorf("unexpected line %q", out)
	}
}

func TestScoreJSONWithPlaceholderAndFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.png")

	out, err := run(t, "score", "--json", "--detailed", quality.Placeholder, missing)
	if err == nil {
		t.Fatal("expected non-nil error when an input fails")
	}

	var items []models.BatchItem
	if jerr := json.Unmarshal([]byte(out), &items); jerr != nil {
		t.Fatalf("output is not JSON: %v (%q)", jerr, out)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Result == nil || items[0].Result.Quality != 94 {
		t.Errorf("placeholder item = %+v", items[0])
	}
	if items[1].Error == nil || items[1].URL != missing {
		t.Errorf("missing file item = %+v", items[1])
	}
}

func TestScoreMinQualityRejects(t *testing.T) {
	path := writePNG(t, t.TempDir(), "grey.png", color.Gray{Y: 128})

	out, err := run(t, "score", "--min-quality", "50", path)
	if err == nil {
		t.Fatal("expected rejection to fail the command")
	}
	if !strings.Contains(out, "REJECTED") || !strings.Contains(out, "below the minimum of 50") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestScoreRequiresArgs(t *testing.T) {
	if _, err := run(t, "score"); err == nil {
		t.Error("expected error without inputs")
	}
	if _, err := run(t, "score", "--concurrency", "0", "a.png"); err == nil {
		t.Error("expected error for zero concurrency")
	}
}
