// Package generator writes rendered images to files and writers.
//
// The output format is inferred from the file extension. Only lossless
// formats are offered: PNG (the default captioned output), BMP and TIFF.
package generator

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extensions lists the supported output extensions.
var Extensions = []string{".png", ".bmp", ".tif", ".tiff"}

// Generate writes img to output. The format is inferred from the extension:
//   - ".png" → PNG, 8 bits per channel
//   - ".bmp" → BMP
//   - ".tif", ".tiff" → TIFF, deflate-compressed
func Generate(output string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(output))
	if !Supported(ext) {
		return unsupported(ext)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := GenerateToWriter(f, ext, img); err != nil {
		return err
	}
	return f.Sync()
}

// GenerateToWriter writes img to w in the format named by ext.
// This is useful for in-memory generation (e.g., WASM, HTTP responses).
func GenerateToWriter(w io.Writer, ext string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("generate: image is nil")
	}
	switch strings.ToLower(ext) {
	case ".png":
		return writePNG(w, img)
	case ".bmp":
		return writeBMP(w, img)
	case ".tif", ".tiff":
		return writeTIFF(w, img)
	default:
		return unsupported(ext)
	}
}

// Supported reports whether ext (with its dot) is a known output format.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func unsupported(ext string) error {
	return fmt.Errorf("unsupported format %q: use %s", ext, strings.Join(Extensions, ", "))
}
