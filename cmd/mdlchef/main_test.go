package main

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in   string
		want image.Point
		ok   bool
	}{
		{"10,20", image.Pt(10, 20), true},
		{" 3 , -4 ", image.Pt(3, -4), true},
		{"10", image.Point{}, false},
		{"a,1", image.Point{}, false},
		{"1,b", image.Point{}, false},
	}
	for _, tt := range tests {
		got, err := parsePoint(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parsePoint(%q) error = %v", tt.in, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReadInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mdl")
	if err := os.WriteFile(path, []byte(`{ version: "MDL/1.1" }`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readInput(path)
	if err != nil || got != `{ version: "MDL/1.1" }` {
		t.Fatalf("readInput = %q, %v", got, err)
	}
	if _, err := readInput(filepath.Join(t.TempDir(), "missing.mdl")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
