// compositor.go — Merge halo and glyph layers onto the base image and encode.
package caption

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Compositor combines the halo and glyph coverage into one layer and lays it
// over the base image.
type Compositor struct {
	Fill    color.Color
	Outline color.Color
}

// NewCompositor returns a compositor with the default white-on-black colours.
func NewCompositor() *Compositor {
	return &Compositor{Fill: DefaultFill, Outline: DefaultOutline}
}

// Layer builds the premultiplied caption layer: glyph coverage in the fill
// colour source-over the halo in the outline colour.
func (c *Compositor) Layer(canvas *AlphaCanvas, halo *image.Gray) *image.RGBA {
	fill, outline := premultiply(c.Fill), premultiply(c.Outline)
	layer := image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height))

	for y := 0; y < canvas.Height; y++ {
		for x := 0; x < canvas.Width; x++ {
			cov, _ := canvas.At(x, y)
			h := halo.GrayAt(x, y).Y
			if cov == 0 && h == 0 {
				continue
			}
			g := scale(fill, cov)
			o := scale(outline, h)
			inv := 255 - uint32(g.A)

			i := layer.PixOffset(x, y)
			px := layer.Pix[i : i+4 : i+4]
			px[0] = g.R + uint8(uint32(o.R)*inv/255)
			px[1] = g.G + uint8(uint32(o.G)*inv/255)
			px[2] = g.B + uint8(uint32(o.B)*inv/255)
			px[3] = g.A + uint8(uint32(o.A)*inv/255)
		}
	}
	return layer
}

// Composite returns a copy of base with the caption layer drawn over it.
// The copy is non-premultiplied so that pixels the caption does not touch
// keep their exact colour at every alpha. The result always has a zero
// origin.
func (c *Compositor) Composite(base image.Image, canvas *AlphaCanvas, halo *image.Gray) *image.NRGBA {
	out := cloneNRGBA(base)
	if canvas.Empty() {
		return out
	}
	over(out, c.Layer(canvas, halo))
	return out
}

// over composites the premultiplied layer source-over dst. Pixels where
// the layer is fully transparent are left alone.
func over(dst *image.NRGBA, layer *image.RGBA) {
	b := dst.Bounds().Intersect(layer.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := layer.PixOffset(x, y)
			s := layer.Pix[i : i+4 : i+4]
			if s[3] == 0 {
				continue
			}
			j := dst.PixOffset(x, y)
			d := dst.Pix[j : j+4 : j+4]
			if s[3] == 255 {
				// Opaque layer pixels are already final.
				d[3] = 255
				for k := 0; k < 3; k++ {
					d[k] = s[k]
				}
				continue
			}
			inv := 255 - uint32(s[3])
			da := uint32(d[3]) * inv / 255
			a := uint32(s[3]) + da
			for k := 0; k < 3; k++ {
				p := uint32(s[k])*255 + uint32(d[k])*da
				d[k] = uint8((p + a/2) / a)
			}
			d[3] = uint8(a)
		}
	}
}

// scale multiplies a premultiplied colour by a 0–255 opacity.
func scale(c color.RGBA, a uint8) color.RGBA {
	k := uint32(a)
	return color.RGBA{
		R: uint8(uint32(c.R) * k / 255),
		G: uint8(uint32(c.G) * k / 255),
		B: uint8(uint32(c.B) * k / 255),
		A: uint8(uint32(c.A) * k / 255),
	}
}

// cloneNRGBA copies img into a new zero-origin *image.NRGBA. NRGBA sources
// are copied byte for byte; anything else goes through draw.Src.
func cloneNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+4*b.Dx()], src.Pix[i:i+4*b.Dx()])
		}
		return out
	}
	draw.Copy(out, image.Point{}, img, b, draw.Src, nil)
	return out
}

// Encode writes img as a PNG with colour type RGBA and 8 bits per channel,
// whatever its opacity. Every row uses the Paeth filter and the stream is
// zlib-compressed at the default level, so the same pixels always produce
// the same bytes.
func Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, &EncodingError{Err: errors.New("nil image")}
	}
	src, ok := img.(*image.NRGBA)
	if !ok || src.Rect.Min != (image.Point{}) {
		src = cloneNRGBA(img)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w <= 0 || h <= 0 || int64(w) >= 1<<31 || int64(h) >= 1<<31 {
		return nil, &EncodingError{Err: fmt.Errorf("invalid image size %dx%d", w, h)}
	}

	var buf bytes.Buffer
	buf.WriteString(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8] = 8            // bit depth
	ihdr[9] = pngColorRGBA // colour type
	writeChunk(&buf, "IHDR", ihdr)

	idat, err := compressRows(src)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	writeChunk(&buf, "IDAT", idat)
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes(), nil
}

const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	pngColorRGBA = 6
	filterPaeth  = 4
)

// compressRows Paeth-filters each scanline of img and deflates the result.
func compressRows(img *image.NRGBA) ([]byte, error) {
	n := 4 * img.Rect.Dx()
	prev := make([]byte, n)
	row := make([]byte, n+1)
	row[0] = filterPaeth

	var z bytes.Buffer
	zw, err := zlib.NewWriterLevel(&z, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.Rect.Dy(); y++ {
		cur := img.Pix[y*img.Stride : y*img.Stride+n]
		for i := 0; i < n; i++ {
			var left, upLeft byte
			if i >= 4 {
				left, upLeft = cur[i-4], prev[i-4]
			}
			row[i+1] = cur[i] - paeth(left, prev[i], upLeft)
		}
		if _, err := zw.Write(row); err != nil {
			return nil, err
		}
		copy(prev, cur)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return z.Bytes(), nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// writeChunk appends a length-prefixed, CRC-terminated PNG chunk.
func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(len(data)))
	buf.Write(word[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	binary.BigEndian.PutUint32(word[:], crc.Sum32())
	buf.Write(word[:])
}
