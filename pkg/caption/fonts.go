// fonts.go — The process-wide caption font.
// Parses the font twice: once with golang.org/x/image/font/opentype for
// metrics and outlines, once with go-text/typesetting for shaping. Both parsed
// fonts are read-only and safe to share between concurrent renders.
package caption

import (
	"bytes"
	"fmt"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontSource owns one rasterizable font.
type FontSource struct {
	name   string
	data   []byte
	parsed *opentype.Font
	shaped *gotext.Font
}

var (
	defaultFontOnce sync.Once
	defaultFont     *FontSource
	errDefaultFont  error
)

// DefaultFont returns the preloaded bold display font (Go Bold). It is parsed
// on first use and shared afterwards.
func DefaultFont() (*FontSource, error) {
	defaultFontOnce.Do(func() {
		defaultFont, errDefaultFont = NewFontSource(gobold.TTF)
		if errDefaultFont != nil {
			errDefaultFont = fmt.Errorf("load default font: %w", errDefaultFont)
		}
	})
	return defaultFont, errDefaultFont
}

// NewFontSource parses TrueType/OpenType font bytes.
func NewFontSource(data []byte) (*FontSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font for shaping: %w", err)
	}

	name, err := parsed.Name(nil, sfnt.NameIDFull)
	if err != nil || name == "" {
		name = "unnamed"
	}

	return &FontSource{
		name:   name,
		data:   data,
		parsed: parsed,
		shaped: face.Font,
	}, nil
}

// Name returns the font's full name from its name table.
func (fs *FontSource) Name() string { return fs.name }

// Face returns a font.Face at size pixels (72 DPI, so points equal pixels).
// Callers must not share the face between goroutines.
func (fs *FontSource) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(fs.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// Outlines exposes the parsed sfnt font for glyph outline loading.
func (fs *FontSource) Outlines() *sfnt.Font { return fs.parsed }
