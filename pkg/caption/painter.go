// painter.go — Rasterize fitted glyphs into the shared alpha canvas.
package caption

import (
	"image"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// GlyphPainter rasterizes glyph outlines. It reuses an sfnt buffer and a
// vector rasterizer between glyphs, so a painter is not safe for concurrent
// use; create one per render.
type GlyphPainter struct {
	font *FontSource
	buf  sfnt.Buffer
	rast *vector.Rasterizer
}

// NewGlyphPainter creates a painter for the given font.
func NewGlyphPainter(fs *FontSource) *GlyphPainter {
	return &GlyphPainter{
		font: fs,
		rast: vector.NewRasterizer(0, 0),
	}
}

// Paint writes every glyph of layout into canvas. Coverage is combined with
// max, never summed; pixels that land outside the canvas are skipped.
func (p *GlyphPainter) Paint(layout FittedLayout, canvas *AlphaCanvas) {
	bounds := image.Rect(0, 0, canvas.Width, canvas.Height)
	for _, g := range layout.Glyphs {
		mask, origin, ok := p.rasterize(g, layout.Size, bounds)
		if !ok {
			continue
		}
		mb := mask.Bounds()
		for y := 0; y < mb.Dy(); y++ {
			row := mask.Pix[y*mask.Stride : y*mask.Stride+mb.Dx()]
			for x, v := range row {
				if v == 0 {
					continue
				}
				canvas.Blend(origin.X+x, origin.Y+y, v)
			}
		}
	}
}

// rasterize renders one glyph into a tight alpha bitmap. origin is the
// canvas position of the bitmap's top-left pixel. ok is false for glyphs
// without outlines (spaces), unknown glyphs, and bitmaps that miss clip
// entirely.
func (p *GlyphPainter) rasterize(g PlacedGlyph, size float64, clip image.Rectangle) (mask *image.Alpha, origin image.Point, ok bool) {
	ppem := fixed.Int26_6(size * 64)
	segments, err := p.font.Outlines().LoadGlyph(&p.buf, sfnt.GlyphIndex(g.ID), ppem, nil)
	if err != nil {
		Logger().Debug("glyph skipped", "glyph", g.ID, "error", err)
		return nil, image.Point{}, false
	}
	if len(segments) == 0 {
		return nil, image.Point{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range segments {
		for _, pt := range seg.Args[:segmentArgs(seg.Op)] {
			x, y := g.X+fixedToFloat(pt.X), g.Y+fixedToFloat(pt.Y)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}

	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Ceil(maxX)), int(math.Ceil(maxY))
	box := image.Rect(x0, y0, x1, y1)
	if box.Empty() || !box.Overlaps(clip) {
		return nil, image.Point{}, false
	}

	// Rasterizer coordinates are relative to the bitmap's top-left corner.
	dx, dy := g.X-float64(x0), g.Y-float64(y0)
	pt := func(v fixed.Point26_6) (float32, float32) {
		return float32(dx + fixedToFloat(v.X)), float32(dy + fixedToFloat(v.Y))
	}

	p.rast.Reset(box.Dx(), box.Dy())
	started := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				p.rast.ClosePath()
			}
			started = true
			p.rast.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			p.rast.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			p.rast.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			ex, ey := pt(seg.Args[2])
			p.rast.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}
	if started {
		p.rast.ClosePath()
	}

	mask = image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	p.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, box.Min, true
}

// segmentArgs returns how many of seg.Args a segment op uses.
func segmentArgs(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
