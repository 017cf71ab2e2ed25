package caption

import (
	"testing"

	"golang.org/x/image/font/sfnt"
)

func glyphID(t *testing.T, fs *FontSource, r rune) uint16 {
	t.Helper()
	var buf sfnt.Buffer
	gi, err := fs.Outlines().GlyphIndex(&buf, r)
	if err != nil || gi == 0 {
		t.Fatalf("no glyph for %q: %v", r, err)
	}
	return uint16(gi)
}

func TestPaintMaxCompositing(t *testing.T) {
	fs := mustDefaultFont(t)
	a := FittedLayout{Size: 40, Glyphs: []PlacedGlyph{{ID: glyphID(t, fs, 'O'), X: 10, Y: 50}}}
	b := FittedLayout{Size: 40, Glyphs: []PlacedGlyph{{ID: glyphID(t, fs, 'I'), X: 18, Y: 52}}}

	ca, cb, cab := NewAlphaCanvas(80, 80), NewAlphaCanvas(80, 80), NewAlphaCanvas(80, 80)
	NewGlyphPainter(fs).Paint(a, ca)
	NewGlyphPainter(fs).Paint(b, cb)
	p := NewGlyphPainter(fs)
	p.Paint(a, cab)
	p.Paint(b, cab)

	if ca.Empty() || cb.Empty() {
		t.Fatalf("expected both glyphs to paint pixels")
	}
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			va, pa := ca.At(x, y)
			vb, pb := cb.At(x, y)
			v, pr := cab.At(x, y)
			if v != max(va, vb) {
				t.Fatalf("coverage at (%d,%d) = %d, want max(%d,%d)", x, y, v, va, vb)
			}
			if pr != max(pa, pb) {
				t.Fatalf("presence at (%d,%d) = %d, want max(%d,%d)", x, y, pr, pa, pb)
			}
		}
	}
}

func TestPaintPresenceMatchesCoverage(t *testing.T) {
	fs := mustDefaultFont(t)
	c := NewAlphaCanvas(60, 60)
	NewGlyphPainter(fs).Paint(FittedLayout{Size: 40, Glyphs: []PlacedGlyph{{ID: glyphID(t, fs, 'A'), X: 10, Y: 45}}}, c)

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			v, p := c.At(x, y)
			if (v > 0) != (p == 0xff) {
				t.Fatalf("pixel (%d,%d) coverage %d presence %d", x, y, v, p)
			}
		}
	}
}

func TestPaintClipsAtCanvasEdges(t *testing.T) {
	fs := mustDefaultFont(t)
	id := glyphID(t, fs, 'M')
	c := NewAlphaCanvas(50, 50)

	layout := FittedLayout{Size: 60, Glyphs: []PlacedGlyph{
		{ID: id, X: -30, Y: 20},
		{ID: id, X: 30, Y: 90},
		{ID: id, X: 1000, Y: 1000},
	}}
	NewGlyphPainter(fs).Paint(layout, c)

	if c.Empty() {
		t.Fatalf("expected the partially visible glyphs to paint")
	}
}

func TestPaintSkipsBlankGlyphs(t *testing.T) {
	fs := mustDefaultFont(t)
	c := NewAlphaCanvas(50, 50)
	NewGlyphPainter(fs).Paint(FittedLayout{Size: 30, Glyphs: []PlacedGlyph{{ID: glyphID(t, fs, ' '), X: 10, Y: 30}}}, c)
	if !c.Empty() {
		t.Fatalf("a space must not paint any pixel")
	}
}

func TestAlphaCanvasBounds(t *testing.T) {
	c := NewAlphaCanvas(4, 3)
	if c.Blend(-1, 0, 10) || c.Blend(4, 0, 10) || c.Blend(0, 3, 10) {
		t.Fatalf("expected out-of-range blends to be dropped")
	}
	if v, p := c.At(10, 10); v != 0 || p != 0 {
		t.Fatalf("expected zero outside the canvas, got %d %d", v, p)
	}

	c.Blend(1, 1, 100)
	c.Blend(1, 1, 50)
	if v, p := c.At(1, 1); v != 100 || p != 0xff {
		t.Fatalf("got coverage %d presence %d, want 100 255", v, p)
	}

	c.Blend(2, 2, 0)
	if _, p := c.At(2, 2); p != 0 {
		t.Fatalf("zero coverage must not mark presence")
	}
}
