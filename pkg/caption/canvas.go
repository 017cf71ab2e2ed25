// canvas.go — Two-channel glyph coverage buffer.
package caption

import "image"

// Channel offsets inside an AlphaCanvas pixel.
const (
	chanCoverage = 0
	chanPresence = 1
	canvasStride = 2
)

// AlphaCanvas accumulates glyph coverage for a whole image. Each pixel holds
// two bytes: coverage (0–255) and a presence flag (0 or 255). Accessors are
// bounds-checked; writes outside the canvas are dropped.
type AlphaCanvas struct {
	Width, Height int
	Pix           []uint8
}

// NewAlphaCanvas allocates an empty canvas.
func NewAlphaCanvas(width, height int) *AlphaCanvas {
	width, height = max(width, 0), max(height, 0)
	return &AlphaCanvas{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*canvasStride),
	}
}

func (c *AlphaCanvas) offset(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return 0, false
	}
	return (y*c.Width + x) * canvasStride, true
}

// At returns coverage and presence at (x, y); both are zero outside.
func (c *AlphaCanvas) At(x, y int) (coverage, presence uint8) {
	i, ok := c.offset(x, y)
	if !ok {
		return 0, 0
	}
	return c.Pix[i+chanCoverage], c.Pix[i+chanPresence]
}

// Blend raises coverage at (x, y) to v if v is larger and marks the pixel
// present when v > 0. It reports whether (x, y) was inside the canvas.
func (c *AlphaCanvas) Blend(x, y int, v uint8) bool {
	i, ok := c.offset(x, y)
	if !ok {
		return false
	}
	if v > c.Pix[i+chanCoverage] {
		c.Pix[i+chanCoverage] = v
	}
	if v > 0 {
		c.Pix[i+chanPresence] = 0xff
	}
	return true
}

// Empty reports whether no glyph pixel has been painted.
func (c *AlphaCanvas) Empty() bool {
	for i := chanPresence; i < len(c.Pix); i += canvasStride {
		if c.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Coverage extracts the coverage channel as a grayscale plane.
func (c *AlphaCanvas) Coverage() *image.Gray { return c.plane(chanCoverage) }

// Presence extracts the presence channel as a grayscale plane.
func (c *AlphaCanvas) Presence() *image.Gray { return c.plane(chanPresence) }

func (c *AlphaCanvas) plane(ch int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, c.Width, c.Height))
	for i := range g.Pix {
		g.Pix[i] = c.Pix[i*canvasStride+ch]
	}
	return g
}
