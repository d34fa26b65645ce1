package images

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// generateDerivatives writes resized copies of every primary image in dir
// at each configured target width, e.g. poster-1.jpg -> poster-1-w200.jpg.
// Derivatives from a previous publish never survive because the whole
// directory was just replaced.
func (a *Acquirer) generateDerivatives(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read image dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			continue
		}

		srcPath := filepath.Join(dir, name)
		base := strings.TrimSuffix(name, filepath.Ext(name))

		for _, width := range a.derivativeWidths {
			destPath := filepath.Join(dir, fmt.Sprintf("%s-w%d%s", base, width, ext))
			if err := resizeFile(srcPath, destPath, width); err != nil {
				return fmt.Errorf("failed to resize %s to %dpx: %w", name, width, err)
			}
		}
	}
	return nil
}

// resizeFile writes a copy of src scaled to targetWidth, preserving aspect
// ratio: targetHeight = ceil(sourceHeight * targetWidth / sourceWidth).
func resizeFile(src, dest string, targetWidth int) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 {
		return fmt.Errorf("image has no width")
	}

	// Ceiling division keeps at least one pixel of height
	targetHeight := (srcH*targetWidth + srcW - 1) / srcW
	if targetHeight < 1 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(dest)) {
	case ".png":
		return png.Encode(out, scaled)
	default:
		return jpeg.Encode(out, scaled, &jpeg.Options{Quality: 90})
	}
}
