package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/pdfmark/pdfmark/annot"
)

var args struct {
	Format     string        `short:"f" enum:"json,csv,pdf,all" default:"all" help:"Export format"`
	OutputPath string        `short:"o" type:"path" default:"." help:"Directory export payloads are written to"`
	BaseName   string        `short:"n" help:"Base name of export payloads"`
	Pages      []int         `short:"p" help:"Pages to capture in the visual export. Defaults to every annotated page"`
	Session    string        `short:"s" type:"path" help:"Path to a drag session file replayed into the store"`
	Config     string        `short:"c" type:"path" help:"Path to a YAML config file"`
	Timeout    time.Duration `short:"t" default:"2m" help:"Upper bound on the visual export"`
	Verbose    bool          `short:"v" help:"Verbose logging"`

	InputPDF string `arg:"" name:"input" type:"path" help:"Path to input PDF"`
}

func main() {
	kong.Parse(&args)

	level := slog.LevelWarn
	if args.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(args.Config)
	endIfErr(err)
	cfg.merge(&args.Format, &args.OutputPath, &args.BaseName, &args.Pages)

	surface, err := annot.NewFitzSurface(args.InputPDF)
	endIfErr(err)
	defer surface.Close()

	registry := annot.NewStyleRegistry(nil)
	if sheet := cfg.Palette.sheet(); sheet != nil {
		registry.Add(sheet)
	}

	store := annot.NewStore()

	if args.Session != "" {
		records, err := loadSession(args.Session)
		endIfErr(err)

		created, rejected := replaySession(store, records)
		logger.Info("session replayed", "created", created, "rejected", rejected)
	}

	exporter := annot.NewExporter(store, registry, surface, annot.DirSink{Dir: args.OutputPath},
		annot.WithExportLogger(logger))

	baseName := args.BaseName
	if baseName == "" {
		baseName = "annotations"
	}

	if args.Format == "json" || args.Format == "all" {
		endIfErr(exporter.ExportJSON(baseName))
	}
	if args.Format == "csv" || args.Format == "all" {
		endIfErr(exporter.ExportCSV(baseName))
	}
	if args.Format == "pdf" || args.Format == "all" {
		pages := args.Pages
		if len(pages) == 0 {
			pages = annotatedPages(store, surface.NumPages())
		}

		ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
		defer cancel()

		// The visual export keeps its timestamp-based default name unless
		// the caller picked one explicitly.
		endIfErr(exporter.ExportSnapshot(ctx, pages, args.BaseName))
	}
}
