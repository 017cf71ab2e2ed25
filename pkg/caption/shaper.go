// shaper.go — Text shaping and line measurement.
package caption

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// HarfbuzzShaper keeps internal buffers and is not safe for concurrent use.
var shaperPool = sync.Pool{
	New: func() any { return &shaping.HarfbuzzShaper{} },
}

// shapedGlyph is a glyph positioned relative to the start of its line's
// baseline, y growing down.
type shapedGlyph struct {
	id      uint16
	x, y    float64
	advance float64
}

// lineShaper measures and positions single lines of text. It owns a go-text
// face, so one lineShaper must stay on one goroutine.
type lineShaper struct {
	face *gotext.Face
	size fixed.Int26_6
}

func newLineShaper(fs *FontSource, size float64) *lineShaper {
	return &lineShaper{
		face: gotext.NewFace(fs.shaped),
		size: fixed.Int26_6(size * 64),
	}
}

// shape returns the glyphs of text and the total advance in pixels.
func (s *lineShaper) shape(text string) ([]shapedGlyph, float64) {
	if text == "" {
		return nil, 0
	}
	runes := []rune(text)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      s.face,
		Size:      s.size,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	shaperPool.Put(hb)

	glyphs := make([]shapedGlyph, 0, len(output.Glyphs))
	var pen float64
	for _, g := range output.Glyphs {
		adv := fixedToFloat(g.Advance)
		glyphs = append(glyphs, shapedGlyph{
			id:      uint16(g.GlyphID),
			x:       pen + fixedToFloat(g.XOffset),
			y:       -fixedToFloat(g.YOffset),
			advance: adv,
		})
		pen += adv
	}
	return glyphs, pen
}

// measure returns only the advance width of text.
func (s *lineShaper) measure(text string) float64 {
	_, w := s.shape(text)
	return w
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
