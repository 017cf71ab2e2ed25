// outline.go — Grow the glyph mask into a soft halo.
package caption

import (
	"image"

	"github.com/disintegration/imaging"
)

// haloScale is the image-size divisor for the halo radius: radius is
// (width+height) / (2*haloScale).
const haloScale = 150

// boxKernel is a normalised 3×3 box filter.
var boxKernel = [9]float64{
	1, 1, 1,
	1, 1, 1,
	1, 1, 1,
}

// HaloRadius returns the dilation radius for an image of the given size,
// never less than one pixel.
func HaloRadius(width, height int) int {
	return max((width+height)/(2*haloScale), 1)
}

// BuildHalo derives the halo opacity plane from canvas: the presence
// channel is dilated by HaloRadius and then box-smoothed.
func BuildHalo(canvas *AlphaCanvas) *image.Gray {
	r := HaloRadius(canvas.Width, canvas.Height)
	Logger().Debug("building halo", "radius", r, "width", canvas.Width, "height", canvas.Height)
	return BuildHaloRadius(canvas, r)
}

// BuildHaloRadius is BuildHalo with an explicit dilation radius.
func BuildHaloRadius(canvas *AlphaCanvas, radius int) *image.Gray {
	return Smooth(Dilate(canvas.Presence(), radius))
}

// Dilate grows every lit pixel of plane to a (2r+1)×(2r+1) square
// (Chebyshev distance r). The square element is separable, so a horizontal
// then a vertical running max gives the same result as the 2-D pass.
func Dilate(plane *image.Gray, radius int) *image.Gray {
	b := plane.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if radius <= 0 {
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+w], plane.Pix[y*plane.Stride:y*plane.Stride+w])
		}
		return out
	}

	tmp := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		src := plane.Pix[y*plane.Stride : y*plane.Stride+w]
		maxFilter(src, tmp[y*w:(y+1)*w], radius)
	}

	col := make([]uint8, h)
	res := make([]uint8, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = tmp[y*w+x]
		}
		maxFilter(col, res, radius)
		for y := 0; y < h; y++ {
			out.Pix[y*out.Stride+x] = res[y]
		}
	}
	return out
}

// maxFilter writes to dst the max of src over [i-r, i+r] for each i.
// Values are spread forward from lit pixels, which is cheap for sparse masks.
func maxFilter(src, dst []uint8, r int) {
	n := len(src)
	clear(dst)
	for i := 0; i < n; i++ {
		v := src[i]
		if v == 0 {
			continue
		}
		lo, hi := max(i-r, 0), min(i+r, n-1)
		for j := lo; j <= hi; j++ {
			if v > dst[j] {
				dst[j] = v
			}
		}
	}
}

// Smooth applies a 3×3 box filter (radius 1) with edge replication.
func Smooth(plane *image.Gray) *image.Gray {
	b := plane.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Empty() {
		return out
	}
	blurred := imaging.Convolve3x3(plane, boxKernel, &imaging.ConvolveOptions{Normalize: true})
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return out
}
