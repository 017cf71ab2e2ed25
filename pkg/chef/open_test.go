package chef

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/xob0t/mdlchef/pkg/config"
	"github.com/xob0t/mdlchef/pkg/generator"
)

func TestOpenFromConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := generator.WriteSamples(dir, "#204060"); err != nil {
		t.Fatalf("samples: %v", err)
	}

	cfg := config.Default()
	cfg.RepoFolder = dir
	cfg.FillColor = "#ffff00"
	svc, repo, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	data, _, err := svc.RenderMDL(generator.ExampleMDL(cfg.RepoName))
	if err != nil {
		t.Fatalf("render example: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode: %v", err)
	}

	cfg.RepoFolder = filepath.Join(dir, "missing")
	if _, _, err := Open(cfg); err == nil {
		t.Fatalf("expected an error for a missing repository")
	}
	cfg.RepoFolder = dir
	cfg.OutlineColor = "black"
	if _, _, err := Open(cfg); err == nil {
		t.Fatalf("expected an error for a bad colour")
	}
}
