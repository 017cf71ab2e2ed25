// renderer.go — Caption rendering orchestration.
// Resolves the request's regions against the base image and format geometry,
// fits and paints every region into one shared canvas, then builds the halo
// once and composites once: regions -> canvas -> halo -> overlay -> PNG.
package caption

import (
	"fmt"
	"image"
	"image/color"
	"time"
)

// Renderer renders caption requests. A Renderer holds only read-only state
// and is safe for concurrent use; every call allocates its own canvas.
type Renderer struct {
	font    *FontSource
	fill    color.Color
	outline color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont overrides the default bold display font.
func WithFont(fs *FontSource) Option {
	return func(r *Renderer) { r.font = fs }
}

// WithColors sets the glyph fill and halo outline colours.
func WithColors(fill, outline color.Color) Option {
	return func(r *Renderer) {
		if fill != nil {
			r.fill = fill
		}
		if outline != nil {
			r.outline = outline
		}
	}
}

// NewRenderer creates a caption renderer. Without WithFont it uses
// DefaultFont, which is loaded here on first use.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		fill:    DefaultFill,
		outline: DefaultOutline,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.font == nil {
		fs, err := DefaultFont()
		if err != nil {
			return nil, err
		}
		r.font = fs
	}
	return r, nil
}

// Render draws req onto base and returns the encoded PNG.
func (r *Renderer) Render(base image.Image, geometry Geometry, req Request) ([]byte, error) {
	img, err := r.RenderImage(base, geometry, req)
	if err != nil {
		return nil, err
	}
	return Encode(img)
}

// RenderImage draws req onto a copy of base and returns the pixels. If any
// insert cannot be resolved nothing is drawn and an *UnknownInsertError is
// returned.
func (r *Renderer) RenderImage(base image.Image, geometry Geometry, req Request) (*image.NRGBA, error) {
	if base == nil {
		return nil, fmt.Errorf("render: base image is nil")
	}
	start := time.Now()
	b := base.Bounds()

	regions, err := ResolveRegions(b, geometry, req)
	if err != nil {
		return nil, err
	}

	canvas := NewAlphaCanvas(b.Dx(), b.Dy())
	fitter := NewTextFitter(r.font)
	painter := NewGlyphPainter(r.font)
	for _, reg := range regions {
		layout := fitter.Fit(reg.Text, reg.Rect, reg.Align)
		painter.Paint(layout, canvas)
		Logger().Debug("region painted",
			"region", reg.Region.String(), "size", layout.Size,
			"lines", len(layout.Lines), "forced", layout.Forced)
	}

	comp := &Compositor{Fill: r.fill, Outline: r.outline}
	if canvas.Empty() {
		return comp.Composite(base, canvas, nil), nil
	}

	halo := BuildHalo(canvas)
	out := comp.Composite(base, canvas, halo)
	Logger().Debug("caption rendered",
		"regions", len(regions), "width", b.Dx(), "height", b.Dy(),
		"elapsed", time.Since(start))
	return out, nil
}
