// png.go — PNG file writer.
package generator

import (
	"fmt"
	"image"
	"io"

	"github.com/xob0t/mdlchef/pkg/caption"
)

// writePNG uses the caption encoder so files match the bytes served by the
// API for the same render.
func writePNG(w io.Writer, img image.Image) error {
	data, err := caption.Encode(img)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write PNG: %w", err)
	}
	return nil
}
