package annot

import (
	"math"

	"github.com/golang/geo/r2"
)

// MinDragPx is the minimum drag span, in raw pixels, below which a gesture
// produces no annotation. The policy is zoom-independent: it applies to
// on-screen pixels before normalization.
const MinDragPx = 20.0

// Gesture is a pointer drag in pixel coordinates relative to the rendered
// page surface's top-left corner.
type Gesture struct {
	StartX   float64
	StartY   float64
	CurrentX float64
	CurrentY float64
}

// Normalize converts a finished drag into the fractional rectangle stored
// on an annotation. Coordinates outside the page surface are clamped, never
// extrapolated. Returns false when the clamped span is under MinDragPx in
// either dimension; a drag of exactly 20x20 passes.
func Normalize(g Gesture, pageWidth, pageHeight float64) (FracRect, bool) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return FracRect{}, false
	}

	r := r2.RectFromPoints(
		r2.Point{X: clamp(g.StartX, 0, pageWidth), Y: clamp(g.StartY, 0, pageHeight)},
		r2.Point{X: clamp(g.CurrentX, 0, pageWidth), Y: clamp(g.CurrentY, 0, pageHeight)},
	)

	size := r.Size()
	if size.X < MinDragPx || size.Y < MinDragPx {
		return FracRect{}, false
	}

	return FracRect{
		X:      clamp(r.X.Lo/pageWidth, 0, 1),
		Y:      clamp(r.Y.Lo/pageHeight, 0, 1),
		Width:  clamp(size.X/pageWidth, 0, 1),
		Height: clamp(size.Y/pageHeight, 0, 1),
	}, true
}

// PixelRect is annotation geometry projected onto a page surface at some
// render scale. Width and height are carried directly rather than derived
// from corner points, so re-normalizing reproduces the stored fraction
// without drift.
type PixelRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ToPixels projects a fractional rectangle back onto a page surface of the
// given pixel dimensions. Re-applied at the current scale on every render,
// which is what keeps annotations positioned correctly across zoom changes.
func ToPixels(r FracRect, pageWidth, pageHeight float64) PixelRect {
	return PixelRect{
		X:      r.X * pageWidth,
		Y:      r.Y * pageHeight,
		Width:  r.Width * pageWidth,
		Height: r.Height * pageHeight,
	}
}

// FromPixels re-normalizes a pixel rectangle against the given page
// dimensions.
func FromPixels(r PixelRect, pageWidth, pageHeight float64) FracRect {
	return FracRect{
		X:      r.X / pageWidth,
		Y:      r.Y / pageHeight,
		Width:  r.Width / pageWidth,
		Height: r.Height / pageHeight,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
