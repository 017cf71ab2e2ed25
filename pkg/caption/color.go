// color.go — Hex colour parsing for caption fill and outline colours.
package caption

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Default caption colours: white glyphs over a black halo.
var (
	DefaultFill    = color.RGBA{255, 255, 255, 255}
	DefaultOutline = color.RGBA{0, 0, 0, 255}
)

// ParseColor parses "#rrggbb" or "#rrggbbaa" into a non-premultiplied colour.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected 6 or 8 hex digits", s)
	}

	var ch [4]uint8
	ch[3] = 0xff
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// MustParseColor is ParseColor for literals; it panics on bad input.
func MustParseColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// premultiply converts any colour to premultiplied 8-bit RGBA.
func premultiply(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
