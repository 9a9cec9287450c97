package store

import (
	"slices"
)

// Select marks an application for a bulk action on jobID.
func (s *Store) Select(jobID string, applicationIDs ...string) {
	s.mu.Lock()
	set, ok := s.selections[jobID]
	if !ok {
		set = make(map[string]struct{})
		s.selections[jobID] = set
	}
	for _, id := range applicationIDs {
		set[id] = struct{}{}
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSelection, JobID: jobID})
}

// Deselect removes applications from the job's selection.
func (s *Store) Deselect(jobID string, applicationIDs ...string) {
	s.mu.Lock()
	for _, id := range applicationIDs {
		delete(s.selections[jobID], id)
	}
	if len(s.selections[jobID]) == 0 {
		delete(s.selections, jobID)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSelection, JobID: jobID})
}

// Toggle flips one application's membership and reports whether it is now selected.
func (s *Store) Toggle(jobID, applicationID string) bool {
	if s.IsSelected(jobID, applicationID) {
		s.Deselect(jobID, applicationID)
		return false
	}
	s.Select(jobID, applicationID)
	return true
}

// SelectAll selects every application currently in the job's bucket.
func (s *Store) SelectAll(jobID string) {
	apps := s.Applications(jobID)
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	s.Select(jobID, ids...)
}

// IsSelected reports whether the application is selected for jobID.
func (s *Store) IsSelected(jobID, applicationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selections[jobID][applicationID]
	return ok
}

// Selected returns the selected ids for jobID in sorted order.
func (s *Store) Selected(jobID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.selections[jobID]))
	for id := range s.selections[jobID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ClearSelection empties the job's selection.
func (s *Store) ClearSelection(jobID string) {
	s.mu.Lock()
	delete(s.selections, jobID)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSelection, JobID: jobID})
}

// ClearAllSelections empties every selection.
func (s *Store) ClearAllSelections() {
	s.mu.Lock()
	s.selections = make(map[string]map[string]struct{})
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeSelection})
}
