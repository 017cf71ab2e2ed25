package formats

import (
	"archive/zip"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xob0t/mdlchef/pkg/caption"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// buildRepo lays out a small repository:
//
//	drake.png + drake.meme (two inserts)
//	animals/cat.v2.png
//	animals/broken.png + broken.meme (malformed)
//	notes.txt, .hidden/x.png
func buildRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "drake.png"), 40, 30)
	writeFile(t, filepath.Join(root, "drake.meme"),
		`{"inserts": {"no": {"coords": [[20, 0], [40, 15]]}, "yes": {"coords": [[20, 15], [40, 30]]}}}`)
	writePNG(t, filepath.Join(root, "animals", "cat.v2.png"), 10, 10)
	writePNG(t, filepath.Join(root, "animals", "broken.png"), 10, 10)
	writeFile(t, filepath.Join(root, "animals", "broken.meme"), `{"inserts": {`)
	writeFile(t, filepath.Join(root, "notes.txt"), "not an image")
	writePNG(t, filepath.Join(root, ".hidden", "x.png"), 5, 5)
	return root
}

func TestOpenDirectory(t *testing.T) {
	repo, err := Open(buildRepo(t), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if repo.Name != DefaultName {
		t.Fatalf("name = %q, want %q", repo.Name, DefaultName)
	}
	all, err := repo.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, f := range all {
		ids = append(ids, f.ID)
	}
	want := []string{"Meme.animals.broken", "Meme.animals.cat", "Meme.drake"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	if repo.Len() != 3 {
		t.Fatalf("len = %d", repo.Len())
	}

	if len(repo.Warnings()) != 1 || !strings.Contains(repo.Warnings()[0], "broken.meme") {
		t.Fatalf("expected one warning about broken.meme, got %v", repo.Warnings())
	}
}

func TestGetFormatGeometry(t *testing.T) {
	repo, err := Open(buildRepo(t), "Meme")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	f, err := repo.Get("Meme.drake")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	geo := f.Geometry()
	if len(geo) != 2 {
		t.Fatalf("expected 2 inserts, got %v", geo)
	}
	if r := geo["yes"].Rect(); r != image.Rect(20, 15, 40, 30) {
		t.Fatalf("yes rect = %v", r)
	}

	img, err := f.LoadImage()
	if err != nil {
		t.Fatalf("load image: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("image bounds = %v", img.Bounds())
	}

	broken, err := repo.Get("Meme.animals.broken")
	if err != nil {
		t.Fatalf("get broken: %v", err)
	}
	if len(broken.Geometry()) != 0 {
		t.Fatalf("malformed sidecar must yield no inserts")
	}
}

func TestGetUnknownFormat(t *testing.T) {
	repo, err := Open(buildRepo(t), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	_, err = repo.Get("Meme.nope")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	var ufe *UnknownFormatError
	if !errors.As(err, &ufe) || ufe.ID != "Meme.nope" {
		t.Fatalf("expected UnknownFormatError for Meme.nope, got %v", err)
	}
}

func TestListWildcard(t *testing.T) {
	repo, err := Open(buildRepo(t), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	tests := []struct {
		pattern string
		want    int
	}{
		{"*", 3},
		{"Meme.animals.*", 2},
		{"*cat", 1},
		{"*.drake", 1},
		{"Meme.dog", 0},
	}
	for _, tt := range tests {
		got, err := repo.List(tt.pattern)
		if err != nil {
			t.Fatalf("list %q: %v", tt.pattern, err)
		}
		if len(got) != tt.want {
			t.Fatalf("list %q = %d formats, want %d", tt.pattern, len(got), tt.want)
		}
	}

	if _, err := repo.List("[bad"); err == nil {
		t.Fatalf("expected an error for a malformed pattern")
	}
}

func TestOpenZip(t *testing.T) {
	src := buildRepo(t)
	archive := filepath.Join(t.TempDir(), "repo.zip")
	zipDir(t, src, archive)

	repo, err := Open(archive, "Pack")
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	f, err := repo.Get("Pack.drake")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(f.Geometry()) != 2 {
		t.Fatalf("expected inserts from the zipped sidecar")
	}
	if _, err := f.LoadImage(); err != nil {
		t.Fatalf("load image: %v", err)
	}

	dir := filepath.Dir(f.ImagePath)
	repo.Close()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected temp dir %s to be removed, stat err = %v", dir, err)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Fatalf("expected an error for a missing root")
	}

	file := filepath.Join(t.TempDir(), "plain.txt")
	writeFile(t, file, "x")
	if _, err := Open(file, ""); err == nil {
		t.Fatalf("expected an error for a plain file root")
	}

	if _, err := Open(t.TempDir(), "bad.name"); err == nil {
		t.Fatalf("expected an error for a dotted repository name")
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	img := filepath.Join(t.TempDir(), "sign.jpg")
	geo := caption.Geometry{
		"board": {From: image.Pt(1, 2), To: image.Pt(30, 40)},
	}
	if err := WriteSidecar(img, geo); err != nil {
		t.Fatalf("write: %v", err)
	}
	if SidecarPath(img) != strings.TrimSuffix(img, ".jpg")+".meme" {
		t.Fatalf("sidecar path = %s", SidecarPath(img))
	}

	got, warnings, err := readSidecar(img)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("read: %v %v", err, warnings)
	}
	if got["board"] != geo["board"] {
		t.Fatalf("board = %+v, want %+v", got["board"], geo["board"])
	}

	if err := WriteSidecar(img, caption.Geometry{"two words": {}}); err == nil {
		t.Fatalf("expected an error for an insert name with a space")
	}
}

func TestSidecarBadCoords(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "x.png")
	writeFile(t, SidecarPath(img),
		`{"inserts": {"ok": {"coords": [[0,0],[5,5]]}, "short": {"coords": [[0,0]]}, "flat": {"coords": [[0],[1,1]]}}}`)

	geo, warnings, err := readSidecar(img)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(geo) != 1 {
		t.Fatalf("expected only the valid insert, got %v", geo)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
}

func TestDescribe(t *testing.T) {
	repo, err := Open(buildRepo(t), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	f, _ := repo.Get("Meme.drake")
	desc := Describe(f)
	for _, want := range []string{"Format: Meme.drake", "Size:   40x30", "no:", "yes:", "(20,15)-(40,30)"} {
		if !strings.Contains(desc, want) {
			t.Fatalf("description missing %q:\n%s", want, desc)
		}
	}

	cat, _ := repo.Get("Meme.animals.cat")
	if !strings.Contains(Describe(cat), "no inserts") {
		t.Fatalf("expected the no-inserts note:\n%s", Describe(cat))
	}
	if ListLine(f) != "Meme.drake (2 inserts: no, yes)" {
		t.Fatalf("list line = %q", ListLine(f))
	}
}

func zipDir(t *testing.T, src, dst string) {
	t.Helper()
	out, err := os.Create(dst)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		t.Fatalf("zip %s: %v", src, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestNewFormatInMemory(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	f := NewFormat("Web.upload", img, nil)
	got, err := f.LoadImage()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != image.Image(img) {
		t.Fatalf("in-memory format must return its own image")
	}
	if f.Geometry() == nil || len(f.InsertNames()) != 0 {
		t.Fatalf("nil inserts must become an empty geometry")
	}
}

func TestParseSidecar(t *testing.T) {
	geo, warnings := ParseSidecar("x.meme", []byte(`{"inserts": {"a": {"coords": [[5, 6], [1, 2]]}, "b": {"coords": [[1]]}}}`))
	if len(warnings) != 1 || !strings.Contains(warnings[0], `"b"`) {
		t.Fatalf("warnings = %v", warnings)
	}
	if geo["a"].Rect() != image.Rect(1, 2, 5, 6) {
		t.Fatalf("rect a = %v", geo["a"].Rect())
	}
	if _, ok := geo["b"]; ok {
		t.Fatalf("bad insert must be dropped")
	}

	geo, warnings = ParseSidecar("y.meme", []byte(`[]`))
	if len(geo) != 0 || len(warnings) != 1 {
		t.Fatalf("malformed: geo %v warnings %v", geo, warnings)
	}
}
