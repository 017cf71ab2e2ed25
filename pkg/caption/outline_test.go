package caption

import (
	"image"
	"math/rand/v2"
	"testing"
)

func TestHaloRadius(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{10, 10, 1},
		{300, 300, 2},
		{640, 480, 3},
		{1500, 1500, 10},
	}
	for _, tt := range tests {
		if got := HaloRadius(tt.w, tt.h); got != tt.want {
			t.Fatalf("HaloRadius(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestDilateSquareElement(t *testing.T) {
	plane := image.NewGray(image.Rect(0, 0, 21, 21))
	plane.Pix[10*plane.Stride+10] = 0xff

	out := Dilate(plane, 2)
	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			inside := abs(x-10) <= 2 && abs(y-10) <= 2
			lit := out.GrayAt(x, y).Y == 0xff
			if inside != lit {
				t.Fatalf("pixel (%d,%d) lit=%v, want %v", x, y, lit, inside)
			}
		}
	}
}

func TestDilateMonotonicInRadius(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	plane := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range plane.Pix {
		if rng.IntN(40) == 0 {
			plane.Pix[i] = 0xff
		}
	}

	d1 := Dilate(plane, 1)
	d3 := Dilate(plane, 3)
	for i := range plane.Pix {
		if plane.Pix[i] > d1.Pix[i] {
			t.Fatalf("dilation lost pixel %d", i)
		}
		if d1.Pix[i] > d3.Pix[i] {
			t.Fatalf("pixel %d lit at r=1 but not at r=3", i)
		}
	}
}

func TestDilateZeroRadiusCopies(t *testing.T) {
	plane := image.NewGray(image.Rect(0, 0, 5, 5))
	plane.Pix[7] = 0xff
	out := Dilate(plane, 0)
	for i := range plane.Pix {
		if out.Pix[i] != plane.Pix[i] {
			t.Fatalf("pixel %d changed", i)
		}
	}
}

func TestSmoothSoftensIsolatedPixel(t *testing.T) {
	plane := image.NewGray(image.Rect(0, 0, 9, 9))
	plane.Pix[4*plane.Stride+4] = 0xff

	out := Smooth(plane)
	center := out.GrayAt(4, 4).Y
	if center < 27 || center > 29 {
		t.Fatalf("center = %d, want about 255/9", center)
	}
	if out.GrayAt(3, 3).Y == 0 || out.GrayAt(5, 4).Y == 0 {
		t.Fatalf("expected neighbours to pick up coverage")
	}
	if out.GrayAt(0, 0).Y != 0 || out.GrayAt(4, 7).Y != 0 {
		t.Fatalf("smoothing spread beyond radius 1")
	}
}

func TestBuildHaloCoversGlyphs(t *testing.T) {
	c := NewAlphaCanvas(300, 300)
	c.Blend(150, 150, 40)

	halo := BuildHalo(c)
	if halo.GrayAt(150, 150).Y == 0 {
		t.Fatalf("halo must cover the painted pixel")
	}
	// Radius 2 plus one pixel of smoothing.
	if halo.GrayAt(153, 150).Y == 0 {
		t.Fatalf("halo must reach the smoothing fringe")
	}
	if halo.GrayAt(154, 150).Y != 0 {
		t.Fatalf("halo spread past radius plus smoothing")
	}
}

func TestBuildHaloUsesPresenceNotCoverage(t *testing.T) {
	faint := NewAlphaCanvas(30, 30)
	faint.Blend(15, 15, 1)
	solid := NewAlphaCanvas(30, 30)
	solid.Blend(15, 15, 0xff)

	hf, hs := BuildHaloRadius(faint, 2), BuildHaloRadius(solid, 2)
	for i := range hf.Pix {
		if hf.Pix[i] != hs.Pix[i] {
			t.Fatalf("halo depends on coverage at pixel %d: %d vs %d", i, hf.Pix[i], hs.Pix[i])
		}
	}
}
