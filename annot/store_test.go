package annot

import (
	"testing"
	"time"
)

var testRect = FracRect{X: 0.1, Y: 0.125, Width: 0.2, Height: 0.125}

func testStore() *Store {
	return NewStore(
		WithClock(tickingClock(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC))),
		WithIDGenerator(seqIDs()),
	)
}

func TestCreateSelectsAndArmsEditing(t *testing.T) {
	s := testStore()

	a := s.Create(testRect, 1, "", "", "")

	if a.ID == "" {
		t.Fatal("Create: empty id")
	}
	if !a.UpdatedAt.Equal(a.CreatedAt) {
		t.Errorf("Create: UpdatedAt %v != CreatedAt %v", a.UpdatedAt, a.CreatedAt)
	}
	if s.Selected() != a {
		t.Error("Create: new annotation not selected")
	}
	if s.Editing() != a {
		t.Error("Create: new annotation not open for editing")
	}
}

func TestSelectClearsEditing(t *testing.T) {
	s := testStore()
	a := s.Create(testRect, 1, "", "", "")
	b := s.Create(testRect, 2, "", "", "")

	s.Select(a)

	if s.Selected() != a {
		t.Error("Select: wrong selected annotation")
	}
	if s.Editing() != nil {
		t.Error("Select: editing pointer not cleared")
	}

	s.SetEditing(b)
	if s.Editing() != b {
		t.Error("SetEditing: editing pointer not set")
	}
}

func TestUpdateReplacesFieldsAndBumpsTimestamp(t *testing.T) {
	s := testStore()
	a := s.Create(testRect, 1, "", "", "")

	label := "Login Button"
	selector := "#login-btn"
	s.Update(a.ID, Patch{Label: &label, Selector: &selector})

	if a.Label != "Login Button" || a.Selector != "#login-btn" {
		t.Errorf("Update: got label %q selector %q", a.Label, a.Selector)
	}
	if !a.UpdatedAt.After(a.CreatedAt) {
		t.Errorf("Update: UpdatedAt %v not after CreatedAt %v", a.UpdatedAt, a.CreatedAt)
	}
	if a.Description != "" {
		t.Errorf("Update: description touched without a patch field: %q", a.Description)
	}
	if s.Selected() == nil || s.Selected().Label != "Login Button" {
		t.Error("Update: selected reference sees stale value")
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	s := testStore()
	a := s.Create(testRect, 1, "keep", "", "")

	label := "changed"
	s.Update("no-such-id", Patch{Label: &label})

	if a.Label != "keep" {
		t.Errorf("Update on unknown id mutated store: label %q", a.Label)
	}
}

func TestDeleteClearsReferences(t *testing.T) {
	s := testStore()
	a := s.Create(testRect, 1, "", "", "")

	s.Delete(a.ID)

	if got := s.Stats().Total; got != 0 {
		t.Errorf("Delete: total = %d, want 0", got)
	}
	if s.Selected() != nil {
		t.Error("Delete: selected not cleared")
	}
	if s.Editing() != nil {
		t.Error("Delete: editing not cleared")
	}

	// Deleting again is a silent no-op.
	s.Delete(a.ID)
}

func TestByPageKeepsCreationOrder(t *testing.T) {
	s := testStore()
	first := s.Create(testRect, 2, "first", "", "")
	s.Create(testRect, 1, "other", "", "")
	second := s.Create(testRect, 2, "second", "", "")

	got := s.ByPage(2)
	if len(got) != 2 {
		t.Fatalf("ByPage(2): len = %d, want 2", len(got))
	}
	if got[0] != first || got[1] != second {
		t.Errorf("ByPage(2): order %q, %q", got[0].Label, got[1].Label)
	}
}

func TestStatsConsistency(t *testing.T) {
	s := testStore()

	check := func(step string) {
		st := s.Stats()
		if st.Completed+st.Incomplete != st.Total {
			t.Fatalf("%s: completed %d + incomplete %d != total %d", step, st.Completed, st.Incomplete, st.Total)
		}
	}

	check("empty")
	a := s.Create(testRect, 1, "", "", "")
	b := s.Create(testRect, 3, "nav", "#nav", "")
	c := s.Create(testRect, 3, "", "", "")
	check("after creates")

	st := s.Stats()
	if st.Total != 3 || st.Completed != 1 || st.Pages != 2 {
		t.Errorf("Stats = %+v, want total 3 completed 1 pages 2", st)
	}

	label, selector := "Login Button", "#login-btn"
	s.Update(a.ID, Patch{Label: &label, Selector: &selector})
	check("after update")
	if got := s.Stats().Completed; got != 2 {
		t.Errorf("Completed = %d, want 2", got)
	}

	s.Delete(b.ID)
	s.Delete(c.ID)
	check("after deletes")
	st = s.Stats()
	if st.Total != 1 || st.Pages != 1 {
		t.Errorf("Stats = %+v, want total 1 pages 1", st)
	}
}

func TestLabelOnlyIsIncomplete(t *testing.T) {
	s := testStore()
	s.Create(testRect, 1, "label only", "", "")

	if got := s.Stats().Completed; got != 0 {
		t.Errorf("Completed = %d, want 0 for empty selector", got)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := NewStore()
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		a := s.Create(testRect, 1, "", "", "")
		if _, ok := seen[a.ID]; ok {
			t.Fatalf("duplicate id at iteration %d: %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
}

func TestSnapshotIsStable(t *testing.T) {
	s := testStore()
	a := s.Create(testRect, 1, "before", "", "")

	snap := s.Snapshot()

	label := "after"
	s.Update(a.ID, Patch{Label: &label})

	if snap[0].Label != "before" {
		t.Errorf("Snapshot mutated by later update: label %q", snap[0].Label)
	}
}
