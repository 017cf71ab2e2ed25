// sample.go — Starter repository and MDL for mdlchef init.
package generator

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/formats"
)

// ExampleMDL returns a sample MDL document for the sample repository.
func ExampleMDL(repoName string) string {
	if repoName == "" {
		repoName = formats.DefaultName
	}
	return fmt.Sprintf(`{
  // Render with: mdlchef render -mdl example.mdl -o meme.png
  version: "MDL/1.1",
  type: "meme",
  base: { format: "%[1]s.sign" },
  caption: {
    top: "when the build is green",
    bottom: "on the first try",
  },
  inserts: {
    board: "ship it",
  },
}
`, repoName)
}

// sampleFormat is one generated base image.
type sampleFormat struct {
	path    string
	w, h    int
	inserts caption.Geometry
}

var sampleFormats = []sampleFormat{
	{path: "plain.png", w: 600, h: 600},
	{
		path: "sign.png", w: 640, h: 480,
		inserts: caption.Geometry{
			"board": {From: image.Pt(180, 170), To: image.Pt(460, 310)},
		},
	},
	{path: filepath.Join("wide", "banner.png"), w: 900, h: 300},
}

// WriteSamples creates a small format repository under dir: solid-colour
// base images in bg ("#rrggbb" or "random") and one sidecar with an insert.
// It returns the files written.
func WriteSamples(dir, bg string) ([]string, error) {
	fill, err := ParseColor(bg)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, sf := range sampleFormats {
		path := filepath.Join(dir, sf.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}

		img := NewSolidImage(sf.w, sf.h, fill)
		if sf.inserts != nil {
			paintInserts(img, sf.inserts)
		}
		if err := Generate(path, img); err != nil {
			return written, err
		}
		written = append(written, path)

		if sf.inserts != nil {
			if err := formats.WriteSidecar(path, sf.inserts); err != nil {
				return written, err
			}
			written = append(written, formats.SidecarPath(path))
		}
	}
	return written, nil
}

// paintInserts lightens the insert areas so they are visible on the sample.
func paintInserts(img *image.RGBA, geo caption.Geometry) {
	for _, c := range geo {
		r := c.Rect().Intersect(img.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				p := img.RGBAAt(x, y)
				img.SetRGBA(x, y, color.RGBA{
					R: p.R/2 + 128,
					G: p.G/2 + 128,
					B: p.B/2 + 128,
					A: 255,
				})
			}
		}
	}
}
