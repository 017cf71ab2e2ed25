// Package caption renders outlined text captions onto raster images.
//
// The pipeline is: fit a font size per region (TextFitter), rasterize glyphs
// into a shared alpha canvas (GlyphPainter), grow and smooth the glyph mask
// into a halo (OutlineBuilder), then composite and encode (Compositor).
package caption

import (
	"image"
	"sort"
)

// ── Alignment ──

// VerticalAlignment anchors a fitted text block inside its rectangle.
type VerticalAlignment int

const (
	AlignTop VerticalAlignment = iota
	AlignMiddle
	AlignBottom
)

func (a VerticalAlignment) String() string {
	switch a {
	case AlignTop:
		return "top"
	case AlignMiddle:
		return "middle"
	case AlignBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// ── Regions ──

// RegionKind is the closed set of caption placements.
type RegionKind int

const (
	RegionTop RegionKind = iota
	RegionCenter
	RegionBottom
	RegionInsert
)

// Region identifies one placement target: a built-in band or a named insert.
type Region struct {
	Kind RegionKind
	Name string // insert name, empty for built-in bands
}

// Insert returns the region for a named insert rectangle.
func Insert(name string) Region { return Region{Kind: RegionInsert, Name: name} }

// Alignment returns the vertical anchor used for the region.
func (r Region) Alignment() VerticalAlignment {
	switch r.Kind {
	case RegionTop:
		return AlignTop
	case RegionBottom:
		return AlignBottom
	default:
		return AlignMiddle
	}
}

func (r Region) String() string {
	switch r.Kind {
	case RegionTop:
		return "top"
	case RegionCenter:
		return "center"
	case RegionBottom:
		return "bottom"
	default:
		return "insert:" + r.Name
	}
}

// CaptionRegion is a resolved placement: where, how anchored, and what text.
type CaptionRegion struct {
	Region Region
	Rect   image.Rectangle
	Align  VerticalAlignment
	Text   string
}

// ── Requests ──

// Request is a structured caption: which format to use and the text per
// region. Empty strings mean the region is absent.
type Request struct {
	FormatID string
	Top      string
	Center   string
	Bottom   string
	Inserts  map[string]string
}

// Empty reports whether the request places no text at all.
func (r Request) Empty() bool {
	if r.Top != "" || r.Center != "" || r.Bottom != "" {
		return false
	}
	for _, text := range r.Inserts {
		if text != "" {
			return false
		}
	}
	return true
}

// InsertNames returns every insert name in the request, including those
// with empty text, sorted.
func (r Request) InsertNames() []string {
	names := make([]string, 0, len(r.Inserts))
	for name := range r.Inserts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Format geometry ──

// Corners are the two points that delimit an insert rectangle.
type Corners struct {
	From image.Point
	To   image.Point
}

// Rect returns the rectangle spanned by the corners, canonicalised so that
// corners given in either order produce the same rectangle.
func (c Corners) Rect() image.Rectangle {
	return image.Rect(c.From.X, c.From.Y, c.To.X, c.To.Y)
}

// Geometry maps insert names to their corners. It is read-only during a render.
type Geometry map[string]Corners

// ── Layout ──

// PlacedGlyph is a glyph id and its absolute baseline origin in pixels.
type PlacedGlyph struct {
	ID   uint16
	X, Y float64
}

// Line is one laid-out line of a fitted block.
type Line struct {
	Text  string
	Width float64
}

// FittedLayout is the result of fitting text into a rectangle.
type FittedLayout struct {
	Size       float64 // pixels per em
	LineHeight float64
	Height     float64 // total block height
	Lines      []Line
	Glyphs     []PlacedGlyph
	Forced     bool // floor size accepted without satisfying the fit checks
}
