// regions.go — Resolve a caption request into positioned regions.
package caption

import "image"

// Fixed band layout constants.
const (
	bandMarginX = 20 // left and right margin of the built-in bands
	bandMarginY = 10 // gap above the top band and below the bottom band
	bandShrink  = 20 // subtracted from a third of the image height
)

// Bands returns the top, center and bottom band rectangles for an image of
// the given size. The three bands share one height, a third of the image
// minus a fixed margin. On images too small for the margins the height or
// width is zero, never negative.
func Bands(width, height int) (top, center, bottom image.Rectangle) {
	ch := max(height/3-bandShrink, 0)
	w := max(width-2*bandMarginX, 0)

	top = image.Rect(bandMarginX, bandMarginY, bandMarginX+w, bandMarginY+ch)
	center = image.Rect(bandMarginX, ch+bandMarginY, bandMarginX+w, 2*ch+bandMarginY)
	bottom = image.Rect(bandMarginX, height-ch-bandMarginY, bandMarginX+w, height-bandMarginY)
	return top, center, bottom
}

// ResolveRegions maps every non-empty text of req to a rectangle. Built-in
// bands come first in top, center, bottom order, then inserts sorted by
// name. Every insert named in req must exist in geometry, even when its
// text is empty; a missing one fails the whole resolution.
func ResolveRegions(bounds image.Rectangle, geometry Geometry, req Request) ([]CaptionRegion, error) {
	top, center, bottom := Bands(bounds.Dx(), bounds.Dy())

	var regions []CaptionRegion
	add := func(r Region, rect image.Rectangle, text string) {
		if text == "" {
			return
		}
		regions = append(regions, CaptionRegion{
			Region: r,
			Rect:   rect,
			Align:  r.Alignment(),
			Text:   text,
		})
	}

	add(Region{Kind: RegionTop}, top, req.Top)
	add(Region{Kind: RegionCenter}, center, req.Center)
	add(Region{Kind: RegionBottom}, bottom, req.Bottom)

	for _, name := range req.InsertNames() {
		corners, ok := geometry[name]
		if !ok {
			return nil, &UnknownInsertError{Name: name}
		}
		add(Insert(name), corners.Rect(), req.Inserts[name])
	}
	return regions, nil
}
