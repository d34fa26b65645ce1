package images

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder dimensions follow the common 2:3 poster and 16:9 backdrop
// aspect ratios
const (
	posterWidth    = 500
	posterHeight   = 750
	backdropWidth  = 1280
	backdropHeight = 720
)

// BasicRenderer draws a flat-color placeholder with the item title. The
// background color is derived from the title so placeholders are stable
// across runs and visually distinct between items.
type BasicRenderer struct{}

var _ Renderer = (*BasicRenderer)(nil)

// RenderPlaceholder returns PNG bytes for a synthesized poster or backdrop
func (BasicRenderer) RenderPlaceholder(title string, kind Kind) ([]byte, error) {
	w, h := posterWidth, posterHeight
	if kind == KindBackdrop {
		w, h = backdropWidth, backdropHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(titleColor(title)), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, title).Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			max((w-textWidth)/2, 8),
			h/2,
		),
	}
	drawer.DrawString(title)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// titleColor maps a title to a muted, deterministic background color
func titleColor(title string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(title))
	sum := h.Sum32()

	// Keep channels in the 40-140 range so white text stays readable
	return color.RGBA{
		R: uint8(40 + sum%100),
		G: uint8(40 + (sum>>8)%100),
		B: uint8(40 + (sum>>16)%100),
		A: 255,
	}
}
