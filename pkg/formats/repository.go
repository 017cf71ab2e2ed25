// Package formats indexes a directory of meme base images ("formats") and
// their insert metadata.
//
// Every image under the repository root becomes a format whose id is the
// repository name followed by the directory path and the file stem, joined
// with dots: <root>/animals/cat.png in repository "Meme" is "Meme.animals.cat".
package formats

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/mdlchef/pkg/caption"
)

// DefaultName is the repository name used when none is configured.
const DefaultName = "Meme"

// imageExts are the base image types the repository indexes.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// ErrUnknownFormat is wrapped by UnknownFormatError.
var ErrUnknownFormat = errors.New("formats: unknown format")

// UnknownFormatError is returned when no format has the requested id.
type UnknownFormatError struct {
	ID string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("Meme format %s not found.", e.ID)
}

func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

// Format is one base image and its insert rectangles.
type Format struct {
	ID        string
	ImagePath string
	Inserts   caption.Geometry

	image image.Image
}

// NewFormat returns a format backed by an already decoded image instead of
// a file.
func NewFormat(id string, img image.Image, inserts caption.Geometry) *Format {
	if inserts == nil {
		inserts = caption.Geometry{}
	}
	return &Format{ID: id, Inserts: inserts, image: img}
}

// Geometry returns the format's insert rectangles.
func (f *Format) Geometry() caption.Geometry {
	return f.Inserts
}

// InsertNames returns the insert names, sorted.
func (f *Format) InsertNames() []string {
	return sortedKeys(f.Inserts)
}

// LoadImage decodes the base image, applying any EXIF orientation.
func (f *Format) LoadImage() (image.Image, error) {
	if f.image != nil {
		return f.image, nil
	}
	img, err := imaging.Open(f.ImagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load format image %s: %w", f.ID, err)
	}
	return img, nil
}

// Repository is a read-only index of formats. It is safe for concurrent
// use once opened.
type Repository struct {
	Name     string
	Root     string
	formats  map[string]*Format
	ids      []string
	warnings []string
	cleanup  func()
}

// Open indexes the formats under root, which may be a directory or a .zip
// archive of one. name prefixes every format id; empty means DefaultName.
// Problems with individual sidecars are collected as warnings, not errors.
func Open(root, name string) (*Repository, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, ". ") {
		return nil, fmt.Errorf("invalid repository name %q", name)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open format repository: %w", err)
	}

	repo := &Repository{
		Name:    name,
		Root:    root,
		formats: make(map[string]*Format),
		cleanup: func() {},
	}

	dir := root
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(root), ".zip") {
			return nil, fmt.Errorf("open format repository: %s is neither a directory nor a .zip", root)
		}
		tmp, cleanup, err := unpackZip(root)
		if err != nil {
			return nil, err
		}
		dir, repo.cleanup = tmp, cleanup
	}

	if err := repo.index(dir); err != nil {
		repo.Close()
		return nil, err
	}

	for _, w := range repo.warnings {
		caption.Logger().Warn("format repository", "warning", w)
	}
	caption.Logger().Info("format repository loaded", "name", name, "root", root, "formats", len(repo.ids))
	return repo, nil
}

// index walks dir in lexical order and registers every image file.
func (r *Repository) index(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if ext == SidecarExt {
			return nil
		}
		if !imageExts[ext] {
			caption.Logger().Debug("skipping non-image file", "path", p)
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		id := r.formatID(rel)

		if prev, dup := r.formats[id]; dup {
			r.warnings = append(r.warnings, fmt.Sprintf("%s: id %s already used by %s; skipped", rel, id, prev.ImagePath))
			return nil
		}

		inserts, warnings, err := readSidecar(p)
		if err != nil {
			return err
		}
		r.warnings = append(r.warnings, warnings...)

		r.formats[id] = &Format{ID: id, ImagePath: p, Inserts: inserts}
		r.ids = append(r.ids, id)
		caption.Logger().Debug("format indexed", "id", id, "path", p, "inserts", len(inserts))
		return nil
	})
}

// formatID builds "<Name>.<dir>.<dir>.<stem>" from a root-relative path.
// The stem ends at the first dot of the file name.
func (r *Repository) formatID(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	last := parts[len(parts)-1]
	if i := strings.IndexByte(last, '.'); i >= 0 {
		last = last[:i]
	}
	parts[len(parts)-1] = last
	return r.Name + "." + strings.Join(parts, ".")
}

// Close removes any temporary files created while opening the repository.
func (r *Repository) Close() error {
	r.cleanup()
	r.cleanup = func() {}
	return nil
}

// Len returns the number of formats.
func (r *Repository) Len() int { return len(r.ids) }

// Warnings returns the non-fatal problems found while indexing.
func (r *Repository) Warnings() []string { return r.warnings }

// Get returns the format with the given id.
func (r *Repository) Get(id string) (*Format, error) {
	f, ok := r.formats[id]
	if !ok {
		return nil, &UnknownFormatError{ID: id}
	}
	return f, nil
}

// List returns the formats whose id matches pattern, sorted by id. '*'
// matches any run of characters, including dots; an empty pattern lists
// everything.
func (r *Repository) List(pattern string) ([]*Format, error) {
	var match func(string) bool
	if pattern == "" {
		match = func(string) bool { return true }
	} else {
		// path.Match stops '*' at '/', and ids never contain one.
		glob := strings.ReplaceAll(pattern, "/", ".")
		if _, err := path.Match(glob, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		match = func(id string) bool {
			ok, _ := path.Match(glob, id)
			return ok
		}
	}

	var out []*Format
	for _, id := range r.ids {
		if match(id) {
			out = append(out, r.formats[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
