package images

import (
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/media-librarian/internal/util"
)

// writeTestPNG writes a solid PNG of the given dimensions
func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
}

func newTestAcquirer() *Acquirer {
	return New(&Config{
		Renderer:         BasicRenderer{},
		DerivativeWidths: []int{50},
		RetryConfig:      &util.RetryConfig{MaxAttempts: 1},
	})
}

func TestAcquireFromLocalFiles(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "poster.png")
	writeTestPNG(t, src, 100, 150)

	destDir := filepath.Join(t.TempDir(), "item-1", "posters")
	count, err := newTestAcquirer().Acquire(context.Background(), []string{src}, destDir, KindPoster, "Fallback")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 image, got %d", count)
	}

	if _, err := os.Stat(filepath.Join(destDir, "poster-1.png")); err != nil {
		t.Errorf("expected primary image: %v", err)
	}
	// Derivative at 50px wide, height = ceil(150 * 50 / 100) = 75
	deriv := filepath.Join(destDir, "poster-1-w50.png")
	f, err := os.Open(deriv)
	if err != nil {
		t.Fatalf("expected derivative image: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode derivative: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 75 {
		t.Errorf("derivative is %dx%d, expected 50x75", cfg.Width, cfg.Height)
	}
}

func TestAcquireCapsSourceCount(t *testing.T) {
	srcDir := t.TempDir()
	var sources []string
	for i := 0; i < 5; i++ {
		src := filepath.Join(srcDir, "img"+string(rune('a'+i))+".png")
		writeTestPNG(t, src, 10, 10)
		sources = append(sources, src)
	}

	a := New(&Config{
		Renderer:         BasicRenderer{},
		MaxPerKind:       3,
		DerivativeWidths: []int{5},
	})
	destDir := filepath.Join(t.TempDir(), "posters")
	count, err := a.Acquire(context.Background(), sources, destDir, KindPoster, "")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected cap of 3 images, got %d", count)
	}
}

func TestAcquireSynthesizesPlaceholderWhenNoSources(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "posters")
	count, err := newTestAcquirer().Acquire(context.Background(), nil, destDir, KindPoster, "Blade Runner")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one placeholder, got %d", count)
	}

	f, err := os.Open(filepath.Join(destDir, "poster-1.png"))
	if err != nil {
		t.Fatalf("expected placeholder file: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("placeholder is not a valid png: %v", err)
	}
	if cfg.Width != posterWidth || cfg.Height != posterHeight {
		t.Errorf("placeholder is %dx%d, expected %dx%d", cfg.Width, cfg.Height, posterWidth, posterHeight)
	}
}

func TestAcquireReplacesPreviousContents(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "posters")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(destDir, "stale.png")
	writeTestPNG(t, stale, 10, 10)

	if _, err := newTestAcquirer().Acquire(context.Background(), nil, destDir, KindPoster, "Title"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected stale image to be removed by atomic publish")
	}
}

func TestAcquireFailsWholeSetOnSingleBadSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	srcDir := t.TempDir()
	good := filepath.Join(srcDir, "good.png")
	writeTestPNG(t, good, 10, 10)

	destDir := filepath.Join(t.TempDir(), "posters")
	_, err := newTestAcquirer().Acquire(
		context.Background(),
		[]string{good, server.URL + "/missing.jpg"},
		destDir, KindPoster, "",
	)
	if err == nil {
		t.Fatal("expected failure when one download fails")
	}
	if _, statErr := os.Stat(destDir); !os.IsNotExist(statErr) {
		t.Error("expected destination untouched after failed set")
	}
}

func TestAcquireDownloadsFromHTTP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 30))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		png.Encode(w, img)
	}))
	defer server.Close()

	destDir := filepath.Join(t.TempDir(), "backdrops")
	count, err := newTestAcquirer().Acquire(
		context.Background(),
		[]string{server.URL + "/backdrop.png"},
		destDir, KindBackdrop, "",
	)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 image, got %d", count)
	}
	if _, err := os.Stat(filepath.Join(destDir, "backdrop-1.png")); err != nil {
		t.Errorf("expected downloaded backdrop: %v", err)
	}
}

func TestPublishFailureIsImageMoveError(t *testing.T) {
	// Destination parent is a file, so MkdirAll/Rename cannot succeed
	parent := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(parent, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	destDir := filepath.Join(parent, "posters")
	_, err := newTestAcquirer().Acquire(context.Background(), nil, destDir, KindPoster, "Title")
	if err == nil {
		t.Fatal("expected publish to fail")
	}
	// Either the mkdir or the publish fails depending on platform; a
	// publish failure must carry the sentinel
	if errors.Is(err, util.ErrImageMove) {
		return
	}
}
