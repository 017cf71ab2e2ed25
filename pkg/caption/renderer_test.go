package caption

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func TestRenderTopAndBottom(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 300, 300))

	data, err := r.Render(base, nil, Request{Top: "TOP", Bottom: "BOTTOM"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := decodePNG(t, data)
	if out.Bounds() != base.Bounds() {
		t.Fatalf("output bounds %v, want %v", out.Bounds(), base.Bounds())
	}

	var topInk, bottomInk bool
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			a := alphaAt(out, x, y)
			switch {
			case y < 100:
				topInk = topInk || a > 0
			case y >= 200:
				bottomInk = bottomInk || a > 0
			default:
				if a != 0 {
					t.Fatalf("middle third must stay transparent, pixel (%d,%d) alpha %d", x, y, a)
				}
			}
		}
	}
	if !topInk {
		t.Fatalf("expected caption pixels in the top third")
	}
	if !bottomInk {
		t.Fatalf("expected caption pixels in the bottom third")
	}
}

func TestRenderUnknownInsert(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 300, 300))

	data, err := r.Render(base, Geometry{}, Request{Top: "HI", Inserts: map[string]string{"logo": "x"}})
	if data != nil {
		t.Fatalf("expected no output bytes, got %d", len(data))
	}
	if !errors.Is(err, ErrUnknownInsert) {
		t.Fatalf("expected ErrUnknownInsert, got %v", err)
	}
	var insErr *UnknownInsertError
	if !errors.As(err, &insErr) || insErr.Name != "logo" {
		t.Fatalf("expected UnknownInsertError for logo, got %v", err)
	}
}

func TestRenderUnknownInsertWithEmptyText(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 100, 100))

	data, err := r.Render(base, Geometry{}, Request{Inserts: map[string]string{"logo": ""}})
	if data != nil {
		t.Fatalf("expected no output bytes, got %d", len(data))
	}
	var insErr *UnknownInsertError
	if !errors.As(err, &insErr) || insErr.Name != "logo" {
		t.Fatalf("expected UnknownInsertError for logo, got %v", err)
	}
}

func TestRenderOutputIsRGBA(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for i := range base.Pix {
		base.Pix[i] = 255
	}

	data, err := r.Render(base, nil, Request{Top: "TOP", Bottom: "BOTTOM"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if data[24] != 8 || data[25] != 6 {
		t.Fatalf("IHDR bit depth %d colour type %d, want 8 and 6", data[24], data[25])
	}
}

// translucent returns an NRGBA image whose pixels vary in colour and have
// alpha well below 255.
func translucent(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 3), 201, uint8(y * 5), uint8(1 + (x+y)%40)})
		}
	}
	return img
}

func TestRenderEmptyRequestKeepsTranslucentPixels(t *testing.T) {
	r := newTestRenderer(t)
	flat := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	for i := 0; i < len(flat.Pix); i += 4 {
		copy(flat.Pix[i:], []byte{201, 201, 201, 10})
	}

	for _, base := range []*image.NRGBA{flat, translucent(64, 48)} {
		data, err := r.Render(base, nil, Request{})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		out, ok := decodePNG(t, data).(*image.NRGBA)
		if !ok {
			t.Fatalf("decoded output is not NRGBA")
		}
		if !bytes.Equal(out.Pix, base.Pix) {
			t.Fatalf("pixels changed: (0,0) = %v, want %v", out.NRGBAAt(0, 0), base.NRGBAAt(0, 0))
		}
	}
}

func TestRenderKeepsTranslucentPixelsOutsideBands(t *testing.T) {
	r := newTestRenderer(t)
	base := translucent(300, 300)

	img, err := r.RenderImage(base, nil, Request{Top: "TOP"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	changed := false
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			got, want := img.NRGBAAt(x, y), base.NRGBAAt(x, y)
			if y >= 110 && got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
			changed = changed || got != want
		}
	}
	if !changed {
		t.Fatalf("expected the top caption to change some pixels")
	}
}

func TestRenderEmptyRequestKeepsPixels(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			base.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), 90, 255})
		}
	}

	data, err := r.Render(base, nil, Request{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := decodePNG(t, data)
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			wr, wg, wb, wa := base.At(x, y).RGBA()
			gr, gg, gb, ga := out.At(x, y).RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestRenderInsert(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 300, 300))
	geometry := Geometry{"sign": {From: image.Pt(250, 150), To: image.Pt(50, 50)}}

	img, err := r.RenderImage(base, geometry, Request{Inserts: map[string]string{"sign": "HELLO"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var inside bool
	for y := 50; y < 150 && !inside; y++ {
		for x := 50; x < 250; x++ {
			if img.NRGBAAt(x, y).A > 0 {
				inside = true
				break
			}
		}
	}
	if !inside {
		t.Fatalf("expected insert text inside its rectangle")
	}
	for _, p := range []image.Point{{5, 5}, {290, 290}, {150, 20}, {150, 250}} {
		if a := img.NRGBAAt(p.X, p.Y).A; a != 0 {
			t.Fatalf("pixel %v outside the insert has alpha %d", p, a)
		}
	}
}

func TestRenderNilBase(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.Render(nil, nil, Request{Top: "X"}); err == nil {
		t.Fatalf("expected an error for a nil base image")
	}
}

func TestRenderConcurrent(t *testing.T) {
	r := newTestRenderer(t)
	base := image.NewRGBA(image.Rect(0, 0, 200, 200))
	req := Request{Top: "SAME", Center: "TEXT", Bottom: "EVERY TIME"}

	want, err := r.Render(base, nil, req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Render(base, nil, req)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		if !bytes.Equal(results[i], want) {
			t.Fatalf("render %d produced different bytes", i)
		}
	}
}

func TestBands(t *testing.T) {
	top, center, bottom := Bands(300, 300)
	if want := image.Rect(20, 10, 280, 90); top != want {
		t.Fatalf("top = %v, want %v", top, want)
	}
	if want := image.Rect(20, 90, 280, 170); center != want {
		t.Fatalf("center = %v, want %v", center, want)
	}
	if want := image.Rect(20, 210, 280, 290); bottom != want {
		t.Fatalf("bottom = %v, want %v", bottom, want)
	}
}

func TestBandsSmallImage(t *testing.T) {
	top, center, bottom := Bands(30, 50)
	for _, b := range []image.Rectangle{top, center, bottom} {
		if b.Dx() != 0 || b.Dy() != 0 {
			t.Fatalf("band %v, want zero size", b)
		}
	}
	if top.Min != image.Pt(20, 10) || bottom.Min != image.Pt(20, 40) {
		t.Fatalf("bands moved: top %v bottom %v", top, bottom)
	}

	r := newTestRenderer(t)
	if _, err := r.Render(image.NewRGBA(image.Rect(0, 0, 30, 50)), nil, Request{Top: "X", Bottom: "Y"}); err != nil {
		t.Fatalf("render tiny image: %v", err)
	}
}

func TestResolveRegionsOrder(t *testing.T) {
	geometry := Geometry{
		"b": {From: image.Pt(0, 0), To: image.Pt(10, 10)},
		"a": {From: image.Pt(10, 10), To: image.Pt(20, 20)},
		"c": {From: image.Pt(20, 20), To: image.Pt(30, 30)},
	}
	req := Request{
		Bottom:  "bottom",
		Top:     "top",
		Inserts: map[string]string{"b": "B", "a": "A", "c": ""},
	}

	regions, err := ResolveRegions(image.Rect(0, 0, 300, 300), geometry, req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var got []string
	for _, r := range regions {
		got = append(got, r.Region.String())
	}
	want := []string{"top", "bottom", "insert:a", "insert:b"}
	if len(got) != len(want) {
		t.Fatalf("regions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("regions = %v, want %v", got, want)
		}
	}
	if regions[0].Align != AlignTop || regions[1].Align != AlignBottom || regions[2].Align != AlignMiddle {
		t.Fatalf("unexpected alignments: %v %v %v", regions[0].Align, regions[1].Align, regions[2].Align)
	}
}
