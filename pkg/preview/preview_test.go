package preview

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/xob0t/mdlchef/pkg/caption"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestInsertColor(t *testing.T) {
	tests := []struct {
		i    int
		want color.RGBA
	}{
		{0, color.RGBA{255, 0, 0, 255}},
		{1, color.RGBA{255, 191, 0, 255}},
		{4, color.RGBA{0, 255, 255, 255}},
		{8, color.RGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := InsertColor(tt.i); got != tt.want {
			t.Fatalf("InsertColor(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestRenderMarksInserts(t *testing.T) {
	base := whiteImage(100, 100)
	geo := caption.Geometry{"a": {From: image.Pt(10, 10), To: image.Pt(60, 40)}}

	out, err := Render(base, geo, Options{LabelSize: 5})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("bounds = %v", out.Bounds())
	}

	inside := out.RGBAAt(45, 32)
	if inside.G > 230 || inside.R < 200 {
		t.Fatalf("insert interior %v not tinted", inside)
	}
	mirrored := out.RGBAAt(45, 100-32)
	if mirrored.G < 240 {
		t.Fatalf("tint found at the vertically mirrored position %v", mirrored)
	}
	far := out.RGBAAt(90, 90)
	if far.R < 240 || far.G < 240 || far.B < 240 {
		t.Fatalf("pixel outside inserts changed: %v", far)
	}
}

func TestRenderNilBase(t *testing.T) {
	if _, err := Render(nil, nil, Options{}); err == nil {
		t.Fatalf("expected an error for a nil base")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	geo := caption.Geometry{"sign": {From: image.Pt(5, 5), To: image.Pt(40, 20)}}
	if err := WritePDF(&buf, whiteImage(64, 48), geo, Options{Bands: true}); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
