package pages

import "testing"

func makePages(file string, n int) []*Page {
	pgs := make([]*Page, n)
	for i := 0; i < n; i++ {
		pgs[i] = &Page{
			ID:         file + "-" + string(rune('a'+i)),
			MIME:       "image/png",
			SourceFile: file,
			PageIndex:  i + 1,
		}
	}
	return pgs
}

func TestStore_AddFileReplacesSelection(t *testing.T) {
	s := NewStore()
	s.AddFile("doc.pdf", makePages("doc.pdf", 2))

	if _, err := s.ToggleSelect("doc.pdf-a"); err != nil {
		t.Fatalf("ToggleSelect() error = %v", err)
	}
	if len(s.Selected()) != 1 {
		t.Fatalf("Selected() = %d pages, want 1", len(s.Selected()))
	}

	// Re-uploading the same file replaces the group and clears its selections.
	s.AddFile("doc.pdf", makePages("doc.pdf", 3))
	if len(s.Selected()) != 0 {
		t.Errorf("Selected() = %d pages after replace, want 0", len(s.Selected()))
	}
	if got := len(s.Group("doc.pdf")); got != 3 {
		t.Errorf("Group() = %d pages, want 3", got)
	}
	if got := len(s.Files()); got != 1 {
		t.Errorf("Files() = %d, want 1", got)
	}
}

func TestStore_ToggleSelectSetsPreview(t *testing.T) {
	s := NewStore()
	s.AddFile("doc.pdf", makePages("doc.pdf", 2))

	on, err := s.ToggleSelect("doc.pdf-b")
	if err != nil || !on {
		t.Fatalf("ToggleSelect() = %v, %v", on, err)
	}
	if p := s.Preview(); p == nil || p.ID != "doc.pdf-b" {
		t.Errorf("Preview() = %+v, want doc.pdf-b", p)
	}

	// Toggling off leaves selection empty but does not error.
	on, err = s.ToggleSelect("doc.pdf-b")
	if err != nil || on {
		t.Fatalf("ToggleSelect() = %v, %v, want off", on, err)
	}
	if s.IsSelected("doc.pdf-b") {
		t.Error("page still selected after toggle off")
	}
}

func TestStore_RemoveAndUndo(t *testing.T) {
	s := NewStore()
	s.AddFile("doc.pdf", makePages("doc.pdf", 3))
	if _, err := s.ToggleSelect("doc.pdf-b"); err != nil {
		t.Fatal(err)
	}

	if err := s.RemovePage("doc.pdf-b"); err != nil {
		t.Fatalf("RemovePage() error = %v", err)
	}
	if s.IsSelected("doc.pdf-b") {
		t.Error("removed page still in selected set")
	}
	if got := len(s.Group("doc.pdf")); got != 2 {
		t.Errorf("Group() = %d pages, want 2", got)
	}

	restored, err := s.UndoRemove()
	if err != nil {
		t.Fatalf("UndoRemove() error = %v", err)
	}
	if restored.ID != "doc.pdf-b" {
		t.Errorf("restored page = %s", restored.ID)
	}

	// Restored in page-index order, but not re-selected.
	group := s.Group("doc.pdf")
	if len(group) != 3 {
		t.Fatalf("Group() = %d pages, want 3", len(group))
	}
	for i, p := range group {
		if p.PageIndex != i+1 {
			t.Errorf("group[%d].PageIndex = %d, want %d", i, p.PageIndex, i+1)
		}
	}
	if s.IsSelected("doc.pdf-b") {
		t.Error("undo re-added page to selected set")
	}
}

func TestStore_RemoveLastPageDropsGroup(t *testing.T) {
	s := NewStore()
	s.AddFile("one.png", makePages("one.png", 1))

	if err := s.RemovePage("one.png-a"); err != nil {
		t.Fatalf("RemovePage() error = %v", err)
	}
	if got := len(s.Files()); got != 0 {
		t.Errorf("Files() = %d, want 0", got)
	}

	// Undo recreates the group.
	if _, err := s.UndoRemove(); err != nil {
		t.Fatalf("UndoRemove() error = %v", err)
	}
	if got := len(s.Group("one.png")); got != 1 {
		t.Errorf("Group() = %d, want 1", got)
	}
}

func TestStore_UndoDepthBounded(t *testing.T) {
	s := NewStore()
	s.AddFile("doc.pdf", makePages("doc.pdf", 15))

	for i := 0; i < 12; i++ {
		id := "doc.pdf-" + string(rune('a'+i))
		if err := s.RemovePage(id); err != nil {
			t.Fatalf("RemovePage(%s) error = %v", id, err)
		}
	}

	undone := 0
	for {
		if _, err := s.UndoRemove(); err != nil {
			break
		}
		undone++
	}
	if undone != maxUndoDepth {
		t.Errorf("undo depth = %d, want %d", undone, maxUndoDepth)
	}
}

func TestStore_SelectedInOrder(t *testing.T) {
	s := NewStore()
	s.AddFile("a.pdf", makePages("a.pdf", 2))
	s.AddFile("b.pdf", makePages("b.pdf", 2))

	for _, id := range []string{"b.pdf-b", "a.pdf-a", "b.pdf-a"} {
		if _, err := s.ToggleSelect(id); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Selected()
	want := []string{"a.pdf-a", "b.pdf-a", "b.pdf-b"}
	if len(got) != len(want) {
		t.Fatalf("Selected() = %d pages, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.ID != want[i] {
			t.Errorf("Selected()[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}
