package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pdfmark/pdfmark/annot"
)

// Config carries CLI defaults from a YAML file. Flags given explicitly on
// the command line win over config values.
type Config struct {
	Format     string        `yaml:"format"`
	OutputPath string        `yaml:"output_path"`
	BaseName   string        `yaml:"base_name"`
	Pages      []int         `yaml:"pages"`
	Palette    PaletteConfig `yaml:"palette"`
}

// PaletteConfig overrides the render palette tokens with hex values. Empty
// tokens keep their defaults.
type PaletteConfig struct {
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
	Border     string `yaml:"border"`
	Accent     string `yaml:"accent"`
}

// loadConfig reads a YAML configuration file. An empty path yields an
// empty config.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// merge fills flag values the caller left at their zero/default with the
// config's values.
func (c *Config) merge(format, outputPath, baseName *string, pages *[]int) {
	if c.Format != "" && *format == "all" {
		*format = c.Format
	}
	if c.OutputPath != "" && *outputPath == "." {
		*outputPath = c.OutputPath
	}
	if c.BaseName != "" && *baseName == "" {
		*baseName = c.BaseName
	}
	if len(c.Pages) > 0 && len(*pages) == 0 {
		*pages = c.Pages
	}
}

// sheet renders the non-empty palette overrides as an inline style sheet
// for the registry, or nil when nothing is overridden.
func (p PaletteConfig) sheet() *annot.Sheet {
	var rules []string
	for _, tok := range []struct{ name, hex string }{
		{"background", p.Background},
		{"foreground", p.Foreground},
		{"border", p.Border},
		{"accent", p.Accent},
	} {
		if tok.hex != "" {
			rules = append(rules, tok.name+": "+tok.hex)
		}
	}

	if len(rules) == 0 {
		return nil
	}
	return &annot.Sheet{ID: "config-palette", Kind: annot.SheetInline, Rules: strings.Join(rules, "\n")}
}
