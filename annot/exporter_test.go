package annot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func exporterFixture(surface PageSurface) (*Exporter, *Store, *StyleRegistry, *memSink) {
	store := testStore()
	store.Create(FracRect{X: 0.1, Y: 0.125, Width: 0.2, Height: 0.125}, 1, "Login Button", "#login-btn", "")
	store.Create(FracRect{X: 0.5, Y: 0.5, Width: 0.25, Height: 0.1}, 2, "", "", "needs a label")

	reg := styledRegistry()
	sink := newMemSink()
	e := NewExporter(store, reg, surface, sink,
		WithExportClock(func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) }),
		WithIsolator(NewIsolator(reg, WithFrameWaiter(&instantWaiter{}))),
	)
	return e, store, reg, sink
}

func TestExportJSONPersistsPayload(t *testing.T) {
	e, _, _, sink := exporterFixture(solidSurface{w: 100, h: 80, fill: pageGray})

	if err := e.ExportJSON("annotations"); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	payload, ok := sink.get("annotations.json")
	if !ok {
		t.Fatal("annotations.json not persisted")
	}
	if !json.Valid(payload) {
		t.Error("persisted payload is not valid JSON")
	}
}

func TestExportCSVPersistsPayload(t *testing.T) {
	e, _, _, sink := exporterFixture(solidSurface{w: 100, h: 80, fill: pageGray})

	if err := e.ExportCSV("annotations"); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	payload, ok := sink.get("annotations.csv")
	if !ok {
		t.Fatal("annotations.csv not persisted")
	}
	if !bytes.HasPrefix(payload, []byte("Component Label,")) {
		t.Errorf("csv payload starts with %q", payload[:min(len(payload), 20)])
	}
}

func TestExportSnapshotWritesPDF(t *testing.T) {
	e, _, _, sink := exporterFixture(solidSurface{w: 100, h: 80, fill: pageGray})

	if err := e.ExportSnapshot(context.Background(), []int{1, 2}, "annotated"); err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	payload, ok := sink.get("annotated.pdf")
	if !ok {
		t.Fatal("annotated.pdf not persisted")
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Errorf("payload does not start with %%PDF: %q", payload[:min(len(payload), 8)])
	}
}

func TestExportSnapshotDefaultName(t *testing.T) {
	e, _, _, sink := exporterFixture(solidSurface{w: 100, h: 80, fill: pageGray})

	if err := e.ExportSnapshot(context.Background(), []int{1}, ""); err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	if _, ok := sink.get("annotated-pdf-20240102-150405.pdf"); !ok {
		t.Errorf("timestamp-based default name missing; sink has %v", sinkNames(sink))
	}
}

func TestExportSnapshotWrapsFailureAndRestores(t *testing.T) {
	boom := errors.New("unsupported content")
	e, _, reg, sink := exporterFixture(solidSurface{err: boom})
	before := reg.Sheets()

	err := e.ExportSnapshot(context.Background(), []int{1}, "broken")
	if !errors.Is(err, boom) {
		t.Fatalf("ExportSnapshot error = %v, want wrapped backend failure", err)
	}

	if _, ok := sink.get("broken.pdf"); ok {
		t.Error("failed export still persisted a payload")
	}
	if got := reg.Sheets(); !reflect.DeepEqual(got, before) {
		t.Errorf("styles not restored after failed export: %+v", got)
	}
}

func TestExportSnapshotRequiresPages(t *testing.T) {
	e, _, _, _ := exporterFixture(solidSurface{w: 100, h: 80, fill: pageGray})

	if err := e.ExportSnapshot(context.Background(), nil, "x"); err == nil {
		t.Fatal("ExportSnapshot accepted an empty page list")
	}
}

func sinkNames(s *memSink) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.payloads))
	for n := range s.payloads {
		names = append(names, n)
	}
	return names
}
