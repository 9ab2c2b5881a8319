package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdfmark/pdfmark/annot"
)

// sessionRecord is one recorded drag gesture plus the metadata the user
// attached afterwards. Pixel coordinates are relative to the page surface
// as it was rendered at recording time; viewport dimensions let the
// normalizer derive the scale-invariant fraction.
type sessionRecord struct {
	Page           int     `json:"page"`
	ViewportWidth  float64 `json:"viewportWidth"`
	ViewportHeight float64 `json:"viewportHeight"`
	StartX         float64 `json:"startX"`
	StartY         float64 `json:"startY"`
	CurrentX       float64 `json:"currentX"`
	CurrentY       float64 `json:"currentY"`
	Label          string  `json:"label"`
	Selector       string  `json:"selector"`
	Description    string  `json:"description"`
}

func loadSession(path string) ([]sessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return records, nil
}

// replaySession pushes each recorded gesture through the normalizer and
// creates annotations for the ones that pass the minimum-size policy.
// Undersized drags are dropped silently, same as a live miss.
func replaySession(store *annot.Store, records []sessionRecord) (created, rejected int) {
	for _, rec := range records {
		g := annot.Gesture{
			StartX:   rec.StartX,
			StartY:   rec.StartY,
			CurrentX: rec.CurrentX,
			CurrentY: rec.CurrentY,
		}

		rect, ok := annot.Normalize(g, rec.ViewportWidth, rec.ViewportHeight)
		if !ok {
			rejected++
			continue
		}

		store.Create(rect, rec.Page, rec.Label, rec.Selector, rec.Description)
		created++
	}

	return created, rejected
}
