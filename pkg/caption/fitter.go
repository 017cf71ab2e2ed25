// fitter.go — Find the largest font size whose wrapped text fits a rectangle.
package caption

import (
	"image"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	startSizeRatio = 0.8 // first candidate size, relative to the rectangle height
	sizeStep       = 3.0
	minSize        = 6.0
)

// TextFitter chooses a font size and lays out text inside a rectangle.
// It is stateless apart from the shared read-only font.
type TextFitter struct {
	font *FontSource
}

// NewTextFitter creates a fitter for the given font.
func NewTextFitter(fs *FontSource) *TextFitter {
	return &TextFitter{font: fs}
}

// blockMetrics describes the vertical metrics of one candidate size.
type blockMetrics struct {
	ascent     float64
	lineHeight float64
}

// trial is a candidate layout at one size, before placement.
type trial struct {
	size    float64
	metrics blockMetrics
	lines   []Line
	shaper  *lineShaper
}

func (t *trial) height() float64 {
	return float64(len(t.lines)) * t.metrics.lineHeight
}

// Fit lays out text in rect using the largest size that fits, walking down
// from 80% of the rectangle height in fixed steps. A size fits when the
// wrapped block is no taller than rect and does not need more lines than the
// text has whitespace break points plus one. When no size above the floor
// fits, the floor size is used anyway and the layout may overflow.
//
// Fit never fails: text that cannot fit is rendered clipped, not rejected.
func (f *TextFitter) Fit(text string, rect image.Rectangle, align VerticalAlignment) FittedLayout {
	text = normalizeText(text)
	if text == "" {
		return FittedLayout{Size: minSize}
	}

	maxLines := countBreaks(text) + 1
	limit := float64(rect.Dx())
	height := float64(rect.Dy())

	for size := height * startSizeRatio; size > minSize; size -= sizeStep {
		t := f.layout(text, size, limit)
		if t.height() <= height && len(t.lines) <= maxLines {
			Logger().Debug("caption fitted",
				"size", size, "lines", len(t.lines), "rect", rect.String())
			return f.place(t, rect, align, false)
		}
	}

	t := f.layout(text, minSize, limit)
	forced := t.height() > height || len(t.lines) > maxLines
	if forced {
		Logger().Debug("caption forced to floor size",
			"size", minSize, "lines", len(t.lines), "rect", rect.String())
	}
	return f.place(t, rect, align, forced)
}

// layout wraps text at size without placing it.
func (f *TextFitter) layout(text string, size, limit float64) *trial {
	s := newLineShaper(f.font, size)
	t := &trial{
		size:    size,
		metrics: f.metrics(size),
		shaper:  s,
	}
	for _, para := range strings.Split(text, "\n") {
		for _, ln := range wrapParagraph(s, para, limit) {
			t.lines = append(t.lines, Line{Text: ln, Width: s.measure(ln)})
		}
	}
	return t
}

// metrics reads ascent and line height from an x/image face at size.
func (f *TextFitter) metrics(size float64) blockMetrics {
	face, err := f.font.Face(size)
	if err != nil {
		Logger().Warn("font face unavailable, estimating metrics", "size", size, "error", err)
		return blockMetrics{ascent: size * 0.8, lineHeight: size * 1.2}
	}
	defer face.Close()

	m := face.Metrics()
	lh := fixedToFloat(m.Height)
	if asc, desc := fixedToFloat(m.Ascent), fixedToFloat(m.Descent); lh < asc+desc {
		lh = asc + desc
	}
	return blockMetrics{ascent: fixedToFloat(m.Ascent), lineHeight: lh}
}

// place converts a trial into absolute glyph positions: each line centred
// horizontally, the block anchored vertically by align.
func (f *TextFitter) place(t *trial, rect image.Rectangle, align VerticalAlignment, forced bool) FittedLayout {
	total := t.height()

	top := float64(rect.Min.Y)
	switch align {
	case AlignMiddle:
		top += (float64(rect.Dy()) - total) / 2
	case AlignBottom:
		top += float64(rect.Dy()) - total
	}

	layout := FittedLayout{
		Size:       t.size,
		LineHeight: t.metrics.lineHeight,
		Height:     total,
		Lines:      t.lines,
		Forced:     forced,
	}

	for i, ln := range t.lines {
		if ln.Text == "" {
			continue
		}
		baseline := top + t.metrics.ascent + float64(i)*t.metrics.lineHeight
		x0 := float64(rect.Min.X) + (float64(rect.Dx())-ln.Width)/2

		glyphs, _ := t.shaper.shape(ln.Text)
		for _, g := range glyphs {
			layout.Glyphs = append(layout.Glyphs, PlacedGlyph{
				ID: g.id,
				X:  x0 + g.x,
				Y:  baseline + g.y,
			})
		}
	}
	return layout
}

// wrapParagraph greedily breaks a paragraph (no hard breaks) into lines no
// wider than limit. Breaks happen at whitespace; a word wider than the limit
// on its own is split between runes.
func wrapParagraph(s *lineShaper, para string, limit float64) []string {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []string
	var b strings.Builder
	emit := func() {
		lines = append(lines, strings.TrimRightFunc(b.String(), unicode.IsSpace))
		b.Reset()
	}

	for _, tok := range tokenize(para) {
		if isSpaceToken(tok) {
			if b.Len() > 0 {
				b.WriteString(tok)
			}
			continue
		}

		if s.measure(b.String()+tok) <= limit {
			b.WriteString(tok)
			continue
		}

		if strings.TrimSpace(b.String()) != "" {
			emit()
		} else {
			b.Reset()
		}

		if s.measure(tok) <= limit {
			b.WriteString(tok)
			continue
		}

		chunks := splitByWidth(s, tok, limit)
		lines = append(lines, chunks[:len(chunks)-1]...)
		b.WriteString(chunks[len(chunks)-1])
	}

	if b.Len() > 0 || len(lines) == 0 {
		emit()
	}
	return lines
}

// tokenize splits s into alternating runs of whitespace and non-whitespace.
func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if b.Len() > 0 && isSpace != lastWasSpace {
			tokens = append(tokens, b.String())
			b.Reset()
		}
		lastWasSpace = isSpace
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func isSpaceToken(tok string) bool {
	for _, r := range tok {
		return unicode.IsSpace(r)
	}
	return false
}

// splitByWidth cuts a single word into chunks no wider than limit. A chunk
// always holds at least one rune, so a glyph wider than the limit still
// makes progress.
func splitByWidth(s *lineShaper, word string, limit float64) []string {
	var parts []string
	var b strings.Builder
	for _, r := range word {
		prev := b.String()
		b.WriteRune(r)
		if prev != "" && s.measure(b.String()) > limit {
			parts = append(parts, prev)
			b.Reset()
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// countBreaks counts whitespace runes, each a potential line break.
func countBreaks(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// normalizeText composes the text to NFC and folds CRLF/CR to LF.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}
