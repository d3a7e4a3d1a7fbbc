package panelstore

import (
	"fmt"
	"sync"
)

type TooManyPanelsError struct {
	TeamID    int
	MaxPanels int
}

func (e *TooManyPanelsError) Error() string {
	return fmt.Sprintf("Cannot assign panel for team id=%d - all %d panels are in use", e.TeamID, e.MaxPanels)
}

// Store maps team ids to display panel indices. Indices are assigned in
// arrival order and stay stable for the lifetime of a match; Reset is called
// on a full rebuild so the next match starts from a clean panel set.
type Store struct {
	maxPanels int

	mut_panels sync.RWMutex
	panels     map[int]int
}

func CreateStore(maxPanels int) *Store {
	return &Store{
		maxPanels:  maxPanels,
		mut_panels: sync.RWMutex{},
		panels:     make(map[int]int),
	}
}

// Assign returns the panel index for the given team, creating one if the
// team has never been displayed. The second return is true when a new panel
// was created.
func (s *Store) Assign(teamID int) (int, bool, error) {
	s.mut_panels.Lock()
	defer s.mut_panels.Unlock()

	if index, has := s.panels[teamID]; has {
		return index, false, nil
	}

	if len(s.panels) >= s.maxPanels {
		return 0, false, &TooManyPanelsError{TeamID: teamID, MaxPanels: s.maxPanels}
	}

	index := len(s.panels)
	s.panels[teamID] = index
	return index, true, nil
}

func (s *Store) Index(teamID int) (int, bool) {
	s.mut_panels.RLock()
	defer s.mut_panels.RUnlock()

	index, has := s.panels[teamID]
	return index, has
}

func (s *Store) Len() int {
	s.mut_panels.RLock()
	defer s.mut_panels.RUnlock()

	return len(s.panels)
}

func (s *Store) Full() bool {
	s.mut_panels.RLock()
	defer s.mut_panels.RUnlock()

	return len(s.panels) >= s.maxPanels
}

func (s *Store) Reset() {
	s.mut_panels.Lock()
	defer s.mut_panels.Unlock()

	s.panels = make(map[int]int)
}
