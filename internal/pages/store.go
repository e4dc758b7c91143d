package pages

import (
	"fmt"
	"sort"
	"sync"
)

// maxUndoDepth bounds the remove-undo stack.
const maxUndoDepth = 10

// removedPage remembers enough to restore a removed page to its group.
type removedPage struct {
	page       *Page
	sourceFile string
}

// Store holds uploaded file groups, their pages, and the cross-file selected
// set. The selected set is always a subset of the union of all groups' pages.
type Store struct {
	mu sync.RWMutex

	// order preserves upload order of file groups.
	order  []string
	groups map[string][]*Page

	selected map[string]struct{}
	preview  string // page ID of the most recently toggled-on page

	undo []removedPage
}

// NewStore creates an empty selection store.
func NewStore() *Store {
	return &Store{
		groups:   make(map[string][]*Page),
		selected: make(map[string]struct{}),
	}
}

// AddFile registers (or replaces) a file group. Replacing an existing group
// first drops its pages from the selected set.
func (s *Store) AddFile(name string, pgs []*Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.groups[name]; ok {
		for _, p := range existing {
			delete(s.selected, p.ID)
			if s.preview == p.ID {
				s.preview = ""
			}
		}
	} else {
		s.order = append(s.order, name)
	}
	s.groups[name] = pgs
}

// ToggleSelect flips a page's membership in the selected set. Toggling a page
// on also makes it the preview page. Returns the new selection state.
func (s *Store) ToggleSelect(pageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.findLocked(pageID)
	if page == nil {
		return false, fmt.Errorf("page not found: %s", pageID)
	}

	if _, ok := s.selected[pageID]; ok {
		delete(s.selected, pageID)
		return false, nil
	}
	s.selected[pageID] = struct{}{}
	s.preview = pageID
	return true, nil
}

// RemovePage removes a page from its group and the selected set, recording it
// on the bounded undo stack. An emptied group is removed entirely.
func (s *Store) RemovePage(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.findLocked(pageID)
	if page == nil {
		return fmt.Errorf("page not found: %s", pageID)
	}

	group := s.groups[page.SourceFile]
	kept := group[:0]
	for _, p := range group {
		if p.ID != pageID {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		delete(s.groups, page.SourceFile)
		for i, name := range s.order {
			if name == page.SourceFile {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		s.groups[page.SourceFile] = kept
	}

	delete(s.selected, pageID)
	if s.preview == pageID {
		s.preview = ""
	}

	s.undo = append(s.undo, removedPage{page: page, sourceFile: page.SourceFile})
	if len(s.undo) > maxUndoDepth {
		s.undo = s.undo[1:]
	}
	return nil
}

// UndoRemove restores the most recently removed page to its original file
// group, keeping the group sorted by page index. The page is NOT re-added to
// the selected set.
func (s *Store) UndoRemove() (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return nil, fmt.Errorf("nothing to undo")
	}

	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	if _, ok := s.groups[last.sourceFile]; !ok {
		s.order = append(s.order, last.sourceFile)
	}
	group := append(s.groups[last.sourceFile], last.page)
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].PageIndex < group[j].PageIndex
	})
	s.groups[last.sourceFile] = group

	return last.page, nil
}

// Selected returns the selected pages in upload order (group order, then page
// order within each group).
func (s *Store) Selected() []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Page
	for _, name := range s.order {
		for _, p := range s.groups[name] {
			if _, ok := s.selected[p.ID]; ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// IsSelected reports whether the page is in the selected set.
func (s *Store) IsSelected(pageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[pageID]
	return ok
}

// Preview returns the most recently toggled-on page, or nil.
func (s *Store) Preview() *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.preview == "" {
		return nil
	}
	return s.findLocked(s.preview)
}

// Page looks up a page by ID across all groups.
func (s *Store) Page(pageID string) *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(pageID)
}

// Files returns the file group names in upload order.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Group returns the pages of one file group in page order.
func (s *Store) Group(name string) []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group := s.groups[name]
	out := make([]*Page, len(group))
	copy(out, group)
	return out
}

// Reset drops all groups, selections, and undo history.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.groups = make(map[string][]*Page)
	s.selected = make(map[string]struct{})
	s.preview = ""
	s.undo = nil
}

// findLocked must be called with the lock held.
func (s *Store) findLocked(pageID string) *Page {
	for _, group := range s.groups {
		for _, p := range group {
			if p.ID == pageID {
				return p
			}
		}
	}
	return nil
}
