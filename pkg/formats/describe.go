// describe.go — Human-readable format descriptions.
package formats

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Describe returns a description of a format: its image, size and insert
// rectangles. The size is omitted when the image header cannot be read.
func Describe(f *Format) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Format: %s\n", f.ID)
	fmt.Fprintf(&b, "Image:  %s\n", filepath.Base(f.ImagePath))
	if w, h, err := imageSize(f.ImagePath); err == nil {
		fmt.Fprintf(&b, "Size:   %dx%d\n", w, h)
	}

	names := f.InsertNames()
	if len(names) == 0 {
		b.WriteString("\nThis format has no inserts. Use the top, center and bottom captions.\n")
		return b.String()
	}

	b.WriteString("\nInserts:\n")
	for _, name := range names {
		r := f.Inserts[name].Rect()
		fmt.Fprintf(&b, "  %-16s (%d,%d)-(%d,%d)  %dx%d\n",
			name+":", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, r.Dx(), r.Dy())
	}
	return b.String()
}

// ListLine is the one-line summary used by listings.
func ListLine(f *Format) string {
	if n := len(f.Inserts); n > 0 {
		return fmt.Sprintf("%s (%d inserts: %s)", f.ID, n, strings.Join(f.InsertNames(), ", "))
	}
	return f.ID
}

func imageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
