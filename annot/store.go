package annot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds the annotation set for one session, plus the transient
// selection and editing state the host UI renders from. All mutations are
// synchronous and total: unknown ids are ignored, nothing returns an error.
type Store struct {
	mu       sync.Mutex
	annots   []*Annotation
	selected *Annotation
	editing  *Annotation
	creating bool

	now   func() time.Time
	newID func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source. Tests use this for deterministic stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the id source.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore returns an empty store. Ids default to UUIDv7: time-ordered
// with a random suffix, collision-resistant within and across sessions.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create appends a new annotation and makes it both the selected one and
// the one open for editing. Label, selector, and description may be empty.
func (s *Store) Create(rect FracRect, pageNumber int, label, selector, description string) *Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a := &Annotation{
		ID:          s.newID(),
		Rect:        rect,
		PageNumber:  pageNumber,
		Label:       label,
		Selector:    selector,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.annots = append(s.annots, a)
	s.selected = a
	s.editing = a

	return a
}

// Patch carries the updatable fields. Nil fields are left untouched.
type Patch struct {
	Label       *string
	Selector    *string
	Description *string
}

// Update replaces the given fields and bumps UpdatedAt. A miss on the id is
// a silent no-op. If the target is currently selected, the selected
// reference is refreshed so observers never see a stale value.
func (s *Store) Update(id string, p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.find(id)
	if a == nil {
		return
	}

	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Selector != nil {
		a.Selector = *p.Selector
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	a.UpdatedAt = s.now()

	if s.selected != nil && s.selected.ID == id {
		s.selected = a
	}
}

// Delete removes the annotation and clears selected/editing if either
// pointed at it. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.annots {
		if a.ID == id {
			s.annots = append(s.annots[:i], s.annots[i+1:]...)
			if s.selected != nil && s.selected.ID == id {
				s.selected = nil
			}
			if s.editing != nil && s.editing.ID == id {
				s.editing = nil
			}
			return
		}
	}
}

// Select sets the selected annotation. Selecting always clears the editing
// pointer; editing must be explicitly re-armed via SetEditing.
func (s *Store) Select(a *Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = a
	s.editing = nil
}

// SetEditing sets the annotation open for editing.
func (s *Store) SetEditing(a *Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = a
}

// SetCreating flags whether pointer drags should be interpreted as new
// annotations.
func (s *Store) SetCreating(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = v
}

func (s *Store) Selected() *Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Store) Editing() *Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *Store) Creating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creating
}

// ByPage returns the annotations on the given page in creation order.
func (s *Store) ByPage(pageNumber int) []*Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Annotation
	for _, a := range s.annots {
		if a.PageNumber == pageNumber {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot returns value copies of all annotations in creation order, so
// exports read a stable view.
func (s *Store) Snapshot() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Annotation, len(s.annots))
	for i, a := range s.annots {
		out[i] = *a
	}
	return out
}

// Stats returns counts over the current contents.
func (s *Store) Stats() Stats {
	return statsOf(s.Snapshot())
}

func (s *Store) find(id string) *Annotation {
	for _, a := range s.annots {
		if a.ID == id {
			return a
		}
	}
	return nil
}
