package annot

import (
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// SheetKind distinguishes the two kinds of style source the host registers.
type SheetKind int

const (
	// SheetLinked references rules by href, resolved through the
	// registry's Resolver. Suppressed by flipping Disabled.
	SheetLinked SheetKind = iota
	// SheetInline carries its rules verbatim. Suppressed by blanking Rules.
	SheetInline
)

// Sheet is one active style source of the host's render pipeline.
type Sheet struct {
	ID       string
	Kind     SheetKind
	Href     string
	Disabled bool
	Rules    string
}

// Palette is the effective token set the rasterizer draws with.
type Palette struct {
	Background colorful.Color
	Foreground colorful.Color
	Border     colorful.Color
	Accent     colorful.Color
}

// SafePalette is the deterministic capture palette: literal hex values,
// no indirection, safe for any rasterization backend.
var SafePalette = Palette{
	Background: mustHex("#ffffff"),
	Foreground: mustHex("#1a1a2e"),
	Border:     mustHex("#d1d5db"),
	Accent:     mustHex("#3b82f6"),
}

const safeSheetID = "capture-safe-styles"

// safeRules is the injected sheet: the four palette tokens plus the fixed
// utility classes that keep the chrome intelligible during capture.
const safeRules = `background: #ffffff
foreground: #1a1a2e
border: #d1d5db
accent: #3b82f6
.annot-box { border: 2px solid #3b82f6; background: rgba(59, 130, 246, 0.15); }
.annot-tag { background: #3b82f6; color: #ffffff; padding: 2px 4px; }
.annot-page { background: #ffffff; color: #1a1a2e; }
.annot-chrome { border: 1px solid #d1d5db; }`

func safeSheet() *Sheet {
	return &Sheet{ID: safeSheetID, Kind: SheetInline, Rules: safeRules}
}

// Resolver fetches the rules text behind a linked sheet's href.
type Resolver func(href string) (string, error)

// StyleRegistry is the ordered set of style sources for the live render
// pipeline. Later sheets override earlier ones during palette resolution.
type StyleRegistry struct {
	mu      sync.Mutex
	sheets  []*Sheet
	resolve Resolver
}

// NewStyleRegistry creates a registry. A nil resolver leaves linked sheets
// unresolvable; their tokens are simply skipped.
func NewStyleRegistry(resolve Resolver) *StyleRegistry {
	return &StyleRegistry{resolve: resolve}
}

// Add appends a sheet.
func (r *StyleRegistry) Add(s *Sheet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sheets = append(r.sheets, s)
}

// Remove drops the sheet with the given id, if present.
func (r *StyleRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sheets {
		if s.ID == id {
			r.sheets = append(r.sheets[:i], r.sheets[i+1:]...)
			return
		}
	}
}

// Sheets returns value copies of the registered sheets in order.
func (r *StyleRegistry) Sheets() []Sheet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sheet, len(r.sheets))
	for i, s := range r.sheets {
		out[i] = *s
	}
	return out
}

// Palette resolves the effective palette from the active sheets, starting
// from SafePalette defaults. Disabled links and blanked inline sheets
// contribute nothing, so resolution under an isolation cycle yields exactly
// the injected safe tokens.
func (r *StyleRegistry) Palette() Palette {
	r.mu.Lock()
	defer r.mu.Unlock()

	pal := SafePalette
	for _, s := range r.sheets {
		rules := s.Rules
		if s.Kind == SheetLinked {
			if s.Disabled || r.resolve == nil {
				continue
			}
			resolved, err := r.resolve(s.Href)
			if err != nil {
				continue
			}
			rules = resolved
		}
		applyRules(&pal, rules)
	}
	return pal
}

// applyRules scans "token: #hex" lines and overrides matching palette
// entries. Unknown tokens and unparseable values are ignored.
func applyRules(pal *Palette, rules string) {
	for _, line := range strings.Split(rules, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		c, err := colorful.Hex(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";")))
		if err != nil {
			continue
		}
		switch strings.TrimSpace(name) {
		case "background":
			pal.Background = c
		case "foreground":
			pal.Foreground = c
		case "border":
			pal.Border = c
		case "accent":
			pal.Accent = c
		}
	}
}

// sheetState captures one sheet's suppressible state for later restoration.
type sheetState struct {
	id       string
	disabled bool
	rules    string
}

func (r *StyleRegistry) snapshotStates() []sheetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sheetState, len(r.sheets))
	for i, s := range r.sheets {
		out[i] = sheetState{id: s.ID, disabled: s.Disabled, rules: s.Rules}
	}
	return out
}

// suppress disables every linked sheet and blanks every inline sheet.
func (r *StyleRegistry) suppress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sheets {
		switch s.Kind {
		case SheetLinked:
			s.Disabled = true
		case SheetInline:
			s.Rules = ""
		}
	}
}

// restoreStates rewrites each sheet's disabled flag and rules text from the
// snapshot. Sheets added or removed mid-cycle keep their current state.
func (r *StyleRegistry) restoreStates(states []sheetState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]*Sheet, len(r.sheets))
	for _, s := range r.sheets {
		byID[s.ID] = s
	}
	for _, st := range states {
		if s, ok := byID[st.id]; ok {
			s.Disabled = st.disabled
			s.Rules = st.rules
		}
	}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("annot: bad palette hex: " + s)
	}
	return c
}
