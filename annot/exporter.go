package annot

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// captureConcurrency bounds parallel page captures inside one isolation
// cycle. Captures only read the registry, so they may overlap each other
// but never overlap a second isolate/restore cycle.
const captureConcurrency = 2

// Exporter fans an export request out to the serializers or to the
// isolate-then-capture pipeline, reading one store snapshot per request.
type Exporter struct {
	store   *Store
	reg     *StyleRegistry
	iso     *Isolator
	raster  *Rasterizer
	surface PageSurface
	sink    PayloadSink
	log     *slog.Logger
	now     func() time.Time
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExportClock sets the export timestamp source.
func WithExportClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// WithExportLogger sets the logger.
func WithExportLogger(l *slog.Logger) ExporterOption {
	return func(e *Exporter) { e.log = l }
}

// WithIsolator substitutes the isolation engine (tests inject fast frame
// waiters through it).
func WithIsolator(iso *Isolator) ExporterOption {
	return func(e *Exporter) { e.iso = iso }
}

// NewExporter wires an exporter over the store, style registry, page
// surface, and payload sink.
func NewExporter(store *Store, reg *StyleRegistry, surface PageSurface, sink PayloadSink, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		store:   store,
		reg:     reg,
		raster:  &Rasterizer{},
		surface: surface,
		sink:    sink,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.iso == nil {
		e.iso = NewIsolator(reg, WithIsolatorLogger(e.log))
	}
	return e
}

// ExportJSON writes the structured-data payload as <name>.json.
func (e *Exporter) ExportJSON(name string) error {
	payload, err := MarshalJSON(e.store.Snapshot(), e.now())
	if err != nil {
		return fmt.Errorf("annot: json export: %w", err)
	}
	if err := e.sink.Persist(name+".json", payload); err != nil {
		return fmt.Errorf("annot: json export: %w", err)
	}
	e.log.Info("export written", "format", "json", "name", name+".json")
	return nil
}

// ExportCSV writes the tabular payload as <name>.csv.
func (e *Exporter) ExportCSV(name string) error {
	payload := MarshalCSV(e.store.Snapshot())
	if err := e.sink.Persist(name+".csv", payload); err != nil {
		return fmt.Errorf("annot: csv export: %w", err)
	}
	e.log.Info("export written", "format", "csv", "name", name+".csv")
	return nil
}

// ExportSnapshot captures the given pages under style isolation, bakes the
// annotations in, and persists the paginated report as <baseName>.pdf.
// An empty baseName falls back to annotated-pdf-<timestamp>. Every failure
// inside the pipeline surfaces as a single wrapped error here; the style
// restoration still runs on all paths.
func (e *Exporter) ExportSnapshot(ctx context.Context, pages []int, baseName string) error {
	if len(pages) == 0 {
		return fmt.Errorf("annot: snapshot export: no pages requested")
	}
	if baseName == "" {
		baseName = "annotated-pdf-" + e.now().Format("20060102-150405")
	}

	snap := e.store.Snapshot()
	stats := statsOf(snap)

	captures := make([]image.Image, len(pages))
	err := e.iso.Isolate(ctx, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(captureConcurrency)
		for i, pageNumber := range pages {
			i, pageNumber := i, pageNumber
			g.Go(func() error {
				img, err := e.raster.Capture(ctx, e.surface, pageNumber, snap, e.reg)
				if err != nil {
					return err
				}
				captures[i] = img
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return fmt.Errorf("annot: snapshot export: %w", err)
	}

	payload, err := BuildReport(captures, snap, stats, e.now())
	if err != nil {
		return fmt.Errorf("annot: snapshot export: %w", err)
	}

	if err := e.sink.Persist(baseName+".pdf", payload); err != nil {
		return fmt.Errorf("annot: snapshot export: %w", err)
	}

	e.log.Info("export written", "format", "pdf", "name", baseName+".pdf", "pages", len(pages))
	return nil
}
