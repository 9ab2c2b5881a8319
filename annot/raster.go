package annot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gen2brain/go-fitz"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CaptureScale is the fixed device-pixel-ratio multiplier for captures.
const CaptureScale = 2.0

// PageSurface renders one page of the underlying document as a bitmap.
// scale 1.0 means the document's native 72dpi size.
type PageSurface interface {
	Render(ctx context.Context, pageNumber int, scale float64) (image.Image, error)
}

// FitzSurface renders pages of a PDF file via go-fitz.
type FitzSurface struct {
	doc *fitz.Document
}

// NewFitzSurface opens the PDF at path.
func NewFitzSurface(path string) (*FitzSurface, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &FitzSurface{doc: doc}, nil
}

func (s *FitzSurface) Render(ctx context.Context, pageNumber int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageNumber < 1 || pageNumber > s.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", pageNumber, s.doc.NumPage())
	}
	return s.doc.ImageDPI(pageNumber-1, 72.0*scale)
}

// NumPages returns the page count of the open document.
func (s *FitzSurface) NumPages() int {
	return s.doc.NumPage()
}

func (s *FitzSurface) Close() error {
	return s.doc.Close()
}

// Rasterizer bakes annotations into a bitmap snapshot of a page.
type Rasterizer struct {
	// Scale is the device-pixel-ratio multiplier. Zero means CaptureScale.
	Scale float64
}

// Capture renders pageNumber at the capture scale, composes it onto an
// opaque white clone buffer (the caller's surface is never drawn on), and
// paints every annotation belonging to that page: translucent accent fill,
// accent outline, and a label tag. The palette is re-resolved from the
// registry at capture time, so under an active isolation cycle the safe
// tokens are applied to the clone as well.
func (rz *Rasterizer) Capture(ctx context.Context, surface PageSurface, pageNumber int, annots []Annotation, reg *StyleRegistry) (image.Image, error) {
	scale := rz.Scale
	if scale == 0 {
		scale = CaptureScale
	}

	src, err := surface.Render(ctx, pageNumber, scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageNumber, err)
	}

	bounds := src.Bounds()
	clone := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(clone, clone.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(clone, clone.Bounds(), src, bounds.Min, draw.Over)

	pal := reg.Palette()
	pageW := float64(bounds.Dx())
	pageH := float64(bounds.Dy())
	stroke := int(math.Round(2 * scale))

	for i := range annots {
		a := &annots[i]
		if a.PageNumber != pageNumber {
			continue
		}

		px := ToPixels(a.Rect, pageW, pageH)
		box := image.Rect(
			int(math.Round(px.X)), int(math.Round(px.Y)),
			int(math.Round(px.X+px.Width)), int(math.Round(px.Y+px.Height)),
		)

		fillRect(clone, box, rgba(pal.Accent, 40))
		strokeRect(clone, box, stroke, rgba(pal.Accent, 255))

		label := a.Label
		if label == "" {
			label = "(unlabeled)"
		}
		drawLabelTag(clone, box, label, pal, scale)
	}

	return clone, nil
}

func rgba(c colorful.Color, alpha uint8) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabelTag paints a filled tag just above the annotation box, clamped
// inside the page when the box sits at the top edge.
func drawLabelTag(dst *image.RGBA, box image.Rectangle, label string, pal Palette, scale float64) {
	face := basicfont.Face7x13
	pad := int(math.Round(3 * scale))
	textW := font.MeasureString(face, label).Ceil()
	tagH := face.Height + 2*pad

	tagTop := box.Min.Y - tagH
	if tagTop < 0 {
		tagTop = box.Min.Y
	}
	tag := image.Rect(box.Min.X, tagTop, box.Min.X+textW+2*pad, tagTop+tagH)
	fillRect(dst, tag, rgba(pal.Accent, 255))

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(rgba(pal.Background, 255)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(tag.Min.X + pad),
			Y: fixed.I(tag.Min.Y + pad + face.Ascent),
		},
	}
	d.DrawString(label)
}
