package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/media-librarian/internal/util"
)

// Kind distinguishes the two artwork classes an item carries
type Kind string

const (
	KindPoster   Kind = "poster"
	KindBackdrop Kind = "backdrop"
)

// Renderer synthesizes placeholder artwork when no real source exists.
// Rendering internals are a collaborator, not part of this package's core.
type Renderer interface {
	RenderPlaceholder(title string, kind Kind) ([]byte, error)
}

// Acquirer downloads or synthesizes item artwork and publishes it
// atomically into a per-item cache directory.
type Acquirer struct {
	httpClient       *http.Client
	renderer         Renderer
	maxPerKind       int
	derivativeWidths []int
	retryConfig      *util.RetryConfig
}

// Config holds acquirer configuration
type Config struct {
	Renderer         Renderer
	MaxPerKind       int           // Cap on images fetched per kind (0 = default 3)
	DerivativeWidths []int         // Resized copies generated after publish
	HTTPTimeout      time.Duration // Per-download timeout (0 = 30s)
	RetryConfig      *util.RetryConfig
}

// New creates an Acquirer
func New(cfg *Config) *Acquirer {
	if cfg.MaxPerKind <= 0 {
		cfg.MaxPerKind = 3
	}
	if len(cfg.DerivativeWidths) == 0 {
		cfg.DerivativeWidths = []int{100, 200}
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.ImageMoveRetryConfig()
	}

	return &Acquirer{
		httpClient:       &http.Client{Timeout: cfg.HTTPTimeout},
		renderer:         cfg.Renderer,
		maxPerKind:       cfg.MaxPerKind,
		derivativeWidths: cfg.DerivativeWidths,
		retryConfig:      cfg.RetryConfig,
	}
}

// Acquire fetches up to the configured cap of the highest-priority sources
// into destDir, replacing whatever was there. Sources may be http(s) URLs or
// local file paths. When sources is empty, exactly one placeholder is
// synthesized from placeholderTitle. A single failed download fails the
// whole set; the item is retried at the orchestrator's per-item granularity,
// never per-image. Returns the number of primary images published.
func (a *Acquirer) Acquire(ctx context.Context, sources []string, destDir string, kind Kind, placeholderTitle string) (int, error) {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create image cache parent: %w", err)
	}

	tempDir, err := os.MkdirTemp(parent, ".acquire-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp image dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var count int
	if len(sources) > 0 {
		if len(sources) > a.maxPerKind {
			sources = sources[:a.maxPerKind]
		}
		for i, src := range sources {
			dest := filepath.Join(tempDir, fmt.Sprintf("%s-%d%s", kind, i+1, sourceExt(src)))
			if err := a.fetch(ctx, src, dest); err != nil {
				return 0, fmt.Errorf("failed to fetch %s %d: %w", kind, i+1, err)
			}
			count++
		}
	} else {
		if a.renderer == nil {
			return 0, fmt.Errorf("no image sources and no placeholder renderer configured")
		}
		data, err := a.renderer.RenderPlaceholder(placeholderTitle, kind)
		if err != nil {
			return 0, fmt.Errorf("failed to render placeholder: %w", err)
		}
		dest := filepath.Join(tempDir, fmt.Sprintf("%s-1.png", kind))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return 0, fmt.Errorf("failed to write placeholder: %w", err)
		}
		count = 1
	}

	if err := a.publish(tempDir, destDir); err != nil {
		return 0, err
	}

	if err := a.generateDerivatives(destDir); err != nil {
		return 0, err
	}

	return count, nil
}

// publish replaces destDir with tempDir in one rename, retried with a fixed
// delay because network filesystems briefly hold directories open.
func (a *Acquirer) publish(tempDir, destDir string) error {
	err := util.Retry(a.retryConfig, func() error {
		if err := os.RemoveAll(destDir); err != nil {
			return err
		}
		return os.Rename(tempDir, destDir)
	}, fmt.Sprintf("publish(%s)", destDir))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", util.ErrImageMove, destDir, err)
	}
	return nil
}

// fetch downloads an http(s) source or copies a local file into dest
func (a *Acquirer) fetch(ctx context.Context, src, dest string) error {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return a.download(ctx, src, dest)
	}
	return copyFile(src, dest)
}

func (a *Acquirer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source image: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy image file: %w", err)
	}
	return nil
}

// sourceExt picks a file extension for the stored copy, defaulting to .jpg
// for extension-less URLs
func sourceExt(src string) string {
	src = strings.SplitN(src, "?", 2)[0]
	switch ext := strings.ToLower(filepath.Ext(src)); ext {
	case ".jpg", ".jpeg", ".png":
		return ext
	default:
		return ".jpg"
	}
}
