package annot

import (
	"bytes"
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/mgmeyers/unipdf/v3/creator"
	"github.com/mgmeyers/unipdf/v3/model"
)

const (
	reportMargin   = 50.0
	reportLineH    = 15.0
	reportWrapCols = 90
)

// BuildReport assembles the multi-page export artifact: one page per
// captured bitmap (landscape or portrait, whichever matches the bitmap),
// followed by a text report. Entries are sorted by page number; an entry
// that would overflow the current page starts a new one, so no entry is
// split across pages.
func BuildReport(captures []image.Image, annots []Annotation, stats Stats, exportedAt time.Time) ([]byte, error) {
	c := creator.New()
	c.SetPageMargins(reportMargin, reportMargin, reportMargin, reportMargin)

	helv, err := model.NewStandard14Font("Helvetica")
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	helvBold, err := model.NewStandard14Font("Helvetica-Bold")
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	for _, img := range captures {
		if err := drawCapturePage(c, img); err != nil {
			return nil, err
		}
	}

	r := reportWriter{c: c, font: helv, bold: helvBold}
	r.start()

	r.line("Annotation Report", 18, true)
	r.gap(6)
	r.line("Exported: "+exportedAt.Format("2006-01-02 15:04:05"), 11, false)
	r.line(fmt.Sprintf("Total annotations: %d", stats.Total), 11, false)
	r.line(fmt.Sprintf("Completed: %d    Incomplete: %d", stats.Completed, stats.Incomplete), 11, false)
	r.line(fmt.Sprintf("Pages with annotations: %d", stats.Pages), 11, false)
	r.gap(10)

	sorted := make([]Annotation, len(annots))
	copy(sorted, annots)
	sortAnnotationsByPage(sorted)

	for i := range sorted {
		a := &sorted[i]

		label := a.Label
		if label == "" {
			label = "(unlabeled)"
		}
		selector := a.Selector
		if selector == "" {
			selector = "(no selector)"
		}

		entry := []reportLine{
			{text: fmt.Sprintf("%d. %s", i+1, label), size: 12, bold: true},
			{text: "Selector: " + selector, size: 11},
			{text: fmt.Sprintf("Page: %d", a.PageNumber), size: 11},
		}
		if a.Description != "" {
			for _, l := range wrapText(a.Description, reportWrapCols) {
				entry = append(entry, reportLine{text: l, size: 10})
			}
		}

		r.entry(entry)
		r.gap(8)
	}

	if r.err != nil {
		return nil, r.err
	}

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCapturePage embeds one bitmap on its own page, orientation chosen by
// comparing bitmap width to height, scaled to fit inside the margins.
func drawCapturePage(c *creator.Creator, img image.Image) error {
	size := creator.PageSizeA4
	if img.Bounds().Dx() > img.Bounds().Dy() {
		size = creator.PageSize{size[1], size[0]}
	}
	c.SetPageSize(size)
	c.NewPage()

	ci, err := c.NewImageFromGoImage(img)
	if err != nil {
		return fmt.Errorf("embed capture: %w", err)
	}

	maxW := size[0] - 2*reportMargin
	maxH := size[1] - 2*reportMargin
	ci.ScaleToWidth(maxW)
	if ci.Height() > maxH {
		ci.ScaleToHeight(maxH)
	}
	ci.SetPos((size[0]-ci.Width())/2, (size[1]-ci.Height())/2)

	if err := c.Draw(ci); err != nil {
		return fmt.Errorf("draw capture: %w", err)
	}
	return nil
}

type reportLine struct {
	text string
	size float64
	bold bool
}

// reportWriter tracks a manual cursor down A4 text pages.
type reportWriter struct {
	c    *creator.Creator
	font *model.PdfFont
	bold *model.PdfFont
	y    float64
	err  error
}

func (r *reportWriter) start() {
	r.c.SetPageSize(creator.PageSizeA4)
	r.c.NewPage()
	r.y = reportMargin
}

func (r *reportWriter) pageBreakIfNeeded(height float64) {
	if r.y+height > creator.PageSizeA4[1]-reportMargin {
		r.c.NewPage()
		r.y = reportMargin
	}
}

func (r *reportWriter) line(text string, size float64, bold bool) {
	r.pageBreakIfNeeded(reportLineH)
	r.draw(reportLine{text: text, size: size, bold: bold})
}

// entry writes a block of lines, breaking to a fresh page first when the
// whole block does not fit.
func (r *reportWriter) entry(lines []reportLine) {
	r.pageBreakIfNeeded(float64(len(lines)) * reportLineH)
	for _, l := range lines {
		r.draw(l)
	}
}

func (r *reportWriter) draw(l reportLine) {
	if r.err != nil {
		return
	}

	p := r.c.NewParagraph(l.text)
	p.SetFont(r.font)
	if l.bold {
		p.SetFont(r.bold)
	}
	p.SetFontSize(l.size)
	p.SetPos(reportMargin, r.y)

	if err := r.c.Draw(p); err != nil {
		r.err = fmt.Errorf("draw report line: %w", err)
		return
	}
	r.y += reportLineH
}

func (r *reportWriter) gap(h float64) {
	r.y += h
}

// sortAnnotationsByPage orders entries by page number, keeping store order
// within a page.
func sortAnnotationsByPage(annots []Annotation) {
	sort.Stable(ByPageNumber(annots))
}

// wrapText word-wraps s to at most cols runes per line. Words longer than
// cols land on their own line unbroken.
func wrapText(s string, cols int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if len([]rune(cur))+1+len([]rune(w)) > cols {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	return append(lines, cur)
}
