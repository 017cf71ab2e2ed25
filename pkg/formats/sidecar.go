// sidecar.go — Read and write .meme insert metadata.
package formats

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xob0t/mdlchef/pkg/caption"
)

// SidecarExt is the extension of insert metadata files. A sidecar sits next
// to its image with the same stem: drake.png and drake.meme.
const SidecarExt = ".meme"

// sidecarFile is the on-disk shape:
//
//	{"inserts": {"sign": {"coords": [[x1, y1], [x2, y2]]}}}
type sidecarFile struct {
	Inserts map[string]sidecarInsert `json:"inserts"`
}

type sidecarInsert struct {
	Coords [][]int `json:"coords"`
}

// SidecarPath returns the metadata path for an image.
func SidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + SidecarExt
}

// readSidecar loads the inserts for imagePath. A missing sidecar is not an
// error. Malformed metadata yields warnings and no inserts, so the format
// stays usable for band captions.
func readSidecar(imagePath string) (caption.Geometry, []string, error) {
	path := SidecarPath(imagePath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return caption.Geometry{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	geo, warnings := ParseSidecar(filepath.Base(path), data)
	return geo, warnings, nil
}

// ParseSidecar decodes insert metadata. name only labels the warnings.
// Malformed input never fails: it yields warnings and whatever inserts
// could be read.
func ParseSidecar(name string, data []byte) (caption.Geometry, []string) {
	var sc sidecarFile
	if err := json.Unmarshal(data, &sc); err != nil {
		return caption.Geometry{}, []string{fmt.Sprintf("malformed %s: %v; no inserts", name, err)}
	}
	if sc.Inserts == nil {
		return caption.Geometry{}, []string{fmt.Sprintf("%s has no inserts object", name)}
	}

	geo := make(caption.Geometry, len(sc.Inserts))
	var warnings []string
	for _, insert := range sortedKeys(sc.Inserts) {
		corners, err := sc.Inserts[insert].corners()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: insert %q %v; ignored", name, insert, err))
			continue
		}
		geo[insert] = corners
	}
	return geo, warnings
}

func (si sidecarInsert) corners() (caption.Corners, error) {
	if len(si.Coords) != 2 {
		return caption.Corners{}, fmt.Errorf("needs a coords pair, got %d points", len(si.Coords))
	}
	for i, pt := range si.Coords {
		if len(pt) != 2 {
			return caption.Corners{}, fmt.Errorf("coords[%d] needs 2 values, got %d", i, len(pt))
		}
	}
	return caption.Corners{
		From: image.Pt(si.Coords[0][0], si.Coords[0][1]),
		To:   image.Pt(si.Coords[1][0], si.Coords[1][1]),
	}, nil
}

// WriteSidecar stores geometry as the metadata of imagePath, replacing any
// existing sidecar.
func WriteSidecar(imagePath string, geometry caption.Geometry) error {
	sc := sidecarFile{Inserts: make(map[string]sidecarInsert, len(geometry))}
	for name, c := range geometry {
		if name == "" || strings.ContainsAny(name, " \t\n") {
			return fmt.Errorf("invalid insert name %q", name)
		}
		sc.Inserts[name] = sidecarInsert{Coords: [][]int{
			{c.From.X, c.From.Y},
			{c.To.X, c.To.Y},
		}}
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	path := SidecarPath(imagePath)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
