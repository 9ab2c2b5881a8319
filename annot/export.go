package annot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// csvHeader is the tabular export header. Downstream tooling consumes this
// format; do not reorder.
const csvHeader = "Component Label,CSS Selector,Description,Page,X Position (%),Y Position (%),Width (%),Height (%),Created Date,Updated Date"

const csvDateFormat = "2006-01-02 15:04:05"

type exportMetadata struct {
	ExportDate       string `json:"exportDate"`
	TotalAnnotations int    `json:"totalAnnotations"`
	Total            int    `json:"total"`
	Completed        int    `json:"completed"`
	Incomplete       int    `json:"incomplete"`
	Pages            int    `json:"pages"`
}

type exportPosition struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type exportRecord struct {
	ID             string         `json:"id"`
	ComponentLabel string         `json:"componentLabel"`
	CSSSelector    string         `json:"cssSelector"`
	Description    string         `json:"description"`
	Page           int            `json:"page"`
	Position       exportPosition `json:"position"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
}

type exportDocument struct {
	Metadata    exportMetadata `json:"metadata"`
	Annotations []exportRecord `json:"annotations"`
}

// pct converts a stored fraction to the nearest integer percentage.
// Accepted lossy: the export is not round-trippable back to the fraction.
func pct(f float64) int {
	return int(math.Round(f * 100))
}

// MarshalJSON produces the structured-data export payload.
func MarshalJSON(annots []Annotation, exportedAt time.Time) ([]byte, error) {
	stats := statsOf(annots)

	doc := exportDocument{
		Metadata: exportMetadata{
			ExportDate:       exportedAt.Format(time.RFC3339),
			TotalAnnotations: stats.Total,
			Total:            stats.Total,
			Completed:        stats.Completed,
			Incomplete:       stats.Incomplete,
			Pages:            stats.Pages,
		},
		Annotations: make([]exportRecord, 0, len(annots)),
	}

	for i := range annots {
		a := &annots[i]
		doc.Annotations = append(doc.Annotations, exportRecord{
			ID:             a.ID,
			ComponentLabel: a.Label,
			CSSSelector:    a.Selector,
			Description:    a.Description,
			Page:           a.PageNumber,
			Position: exportPosition{
				X:      pct(a.Rect.X),
				Y:      pct(a.Rect.Y),
				Width:  pct(a.Rect.Width),
				Height: pct(a.Rect.Height),
			},
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
			UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// MarshalCSV produces the tabular export payload. Every text field is
// quoted with embedded quotes doubled, whether or not escaping is
// structurally necessary; the page number is emitted bare.
func MarshalCSV(annots []Annotation) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for i := range annots {
		a := &annots[i]
		fmt.Fprintf(&b, "%s,%s,%s,%d,%s,%s,%s,%s,%s,%s\n",
			csvQuote(a.Label),
			csvQuote(a.Selector),
			csvQuote(a.Description),
			a.PageNumber,
			csvQuote(fmt.Sprintf("%d", pct(a.Rect.X))),
			csvQuote(fmt.Sprintf("%d", pct(a.Rect.Y))),
			csvQuote(fmt.Sprintf("%d", pct(a.Rect.Width))),
			csvQuote(fmt.Sprintf("%d", pct(a.Rect.Height))),
			csvQuote(a.CreatedAt.Format(csvDateFormat)),
			csvQuote(a.UpdatedAt.Format(csvDateFormat)),
		)
	}

	return []byte(b.String())
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// PayloadSink persists a named export payload. Implementations decide
// where the bytes land.
type PayloadSink interface {
	Persist(name string, payload []byte) error
}

// DirSink writes payloads as files under Dir, creating it on demand.
type DirSink struct {
	Dir string
}

func (s DirSink) Persist(name string, payload []byte) error {
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.Dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(s.Dir, name), payload, 0o644)
}
