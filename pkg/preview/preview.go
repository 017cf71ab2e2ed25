// Package preview draws a format's caption regions over its base image, so
// repository maintainers can check insert coordinates by eye.
//
// Insert rectangles are outlined in hues 45° apart with their names; the
// built-in top, center and bottom bands are shown as thin white frames.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/xob0t/mdlchef/pkg/caption"
)

// Options controls what the preview shows.
type Options struct {
	Bands     bool    // draw the top, center and bottom bands
	LabelSize float64 // label height in pixels; 0 picks one from the image size
}

// mmPerPt converts font points to canvas millimetres. Previews use one
// millimetre per pixel.
const mmPerPt = 25.4 / 72

var (
	familyOnce sync.Once
	family     *canvas.FontFamily
	errFamily  error
)

func labelFamily() (*canvas.FontFamily, error) {
	familyOnce.Do(func() {
		f := canvas.NewFontFamily("mdlchef-preview")
		if err := f.LoadFont(gobold.TTF, 0, canvas.FontRegular); err != nil {
			errFamily = fmt.Errorf("load preview font: %w", err)
			return
		}
		family = f
	})
	return family, errFamily
}

// Render rasterizes the preview at the base image's resolution.
func Render(base image.Image, geometry caption.Geometry, opts Options) (*image.RGBA, error) {
	c, err := build(base, geometry, opts)
	if err != nil {
		return nil, err
	}
	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace), nil
}

// WritePDF writes the preview as a single-page PDF.
func WritePDF(w io.Writer, base image.Image, geometry caption.Geometry, opts Options) error {
	c, err := build(base, geometry, opts)
	if err != nil {
		return err
	}
	b := base.Bounds()
	writer := pdf.New(w, float64(b.Dx()), float64(b.Dy()), nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("write preview PDF: %w", err)
	}
	return nil
}

// build draws the preview onto a canvas whose units are base-image pixels.
// The canvas uses its default y-up system; flipY converts image rows.
func build(base image.Image, geometry caption.Geometry, opts Options) (*canvas.Canvas, error) {
	if base == nil {
		return nil, fmt.Errorf("preview: base image is nil")
	}
	fam, err := labelFamily()
	if err != nil {
		return nil, err
	}

	b := base.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, base, canvas.DPMM(1))

	stroke := math.Max(1, (w+h)/600)
	labelSize := opts.LabelSize
	if labelSize <= 0 {
		labelSize = math.Max(10, (w+h)/60)
	}
	flipY := func(y int) float64 { return h - float64(y) }

	drawRect := func(r image.Rectangle, col color.Color, fill color.Color) {
		ctx.SetFillColor(fill)
		ctx.SetStrokeColor(col)
		ctx.SetStrokeWidth(stroke)
		ctx.DrawPath(float64(r.Min.X), flipY(r.Max.Y), canvas.Rectangle(float64(r.Dx()), float64(r.Dy())))
	}

	if opts.Bands {
		top, center, bottom := caption.Bands(b.Dx(), b.Dy())
		for _, r := range []image.Rectangle{top, center, bottom} {
			drawRect(r, color.RGBA{255, 255, 255, 200}, color.RGBA{0, 0, 0, 0})
		}
	}

	names := make([]string, 0, len(geometry))
	for name := range geometry {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		r := geometry[name].Rect()
		col := InsertColor(i)
		drawRect(r, col, color.RGBA{col.R / 4, col.G / 4, col.B / 4, 96})

		face := fam.Face(labelSize/mmPerPt, col, canvas.FontRegular, canvas.FontNormal)
		line := canvas.NewTextLine(face, name, canvas.Left)
		ctx.DrawText(float64(r.Min.X)+stroke*2, flipY(r.Min.Y)-labelSize, line)
	}

	caption.Logger().Debug("preview built", "inserts", len(names), "bands", opts.Bands)
	return c, nil
}

// InsertColor returns the outline colour of the i-th insert:
// hsl(i*45°, 100%, 50%).
func InsertColor(i int) color.RGBA {
	hue := math.Mod(float64(i)*45, 360)
	return hslToRGB(hue, 1, 0.5)
}

func hslToRGB(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return color.RGBA{to8(r), to8(g), to8(b), 255}
}
