// Package annot manages rectangular page annotations: an in-memory store
// with selection state, pixel-to-fraction coordinate normalization, and
// export of the annotation set as JSON, CSV, or a rasterized PDF report.
package annot

import "time"

// FracRect is a rectangle expressed as fractions of the rendered page's
// width and height. Values stay in [0, 1] so the geometry survives zoom
// changes without re-normalization.
type FracRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation is a labeled rectangular region tied to one page.
// ID and PageNumber are immutable after creation.
type Annotation struct {
	ID          string    `json:"id"`
	Rect        FracRect  `json:"rect"`
	PageNumber  int       `json:"pageNumber"`
	Label       string    `json:"label"`
	Selector    string    `json:"selector"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Complete reports whether both label and selector have been filled in.
func (a *Annotation) Complete() bool {
	return a.Label != "" && a.Selector != ""
}

// Stats summarizes the store contents.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Incomplete int `json:"incomplete"`
	Pages      int `json:"pages"`
}

type ByPageNumber []Annotation

func (a ByPageNumber) Len() int           { return len(a) }
func (a ByPageNumber) Less(i, j int) bool { return a[i].PageNumber < a[j].PageNumber }
func (a ByPageNumber) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

func statsOf(annots []Annotation) Stats {
	s := Stats{Total: len(annots)}
	pages := map[int]bool{}

	for i := range annots {
		if annots[i].Complete() {
			s.Completed++
		} else {
			s.Incomplete++
		}
		pages[annots[i].PageNumber] = true
	}

	s.Pages = len(pages)
	return s
}
