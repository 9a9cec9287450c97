package view

import (
	"sync"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// Model holds the criteria and window of one rendered list.
type Model struct {
	mu       sync.Mutex
	criteria Criteria
	window   *Window
}

// NewModel creates a model with the given window sizes.
func NewModel(base, batch int) *Model {
	return &Model{
		criteria: Criteria{StatusTab: TabAll, SortKey: SortNewest},
		window:   NewWindow(base, batch),
	}
}

// Criteria returns the current filter inputs.
func (m *Model) Criteria() Criteria {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria
}

// SetCriteria replaces the filter inputs. The window is reset when anything
// changed; the return value reports whether it was.
func (m *Model) SetCriteria(c Criteria) bool {
	c.SortKey = ParseSortKey(string(c.SortKey))
	if c.StatusTab == "" {
		c.StatusTab = TabAll
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c == m.criteria {
		return false
	}
	m.criteria = c
	m.window.Reset(m.window.total)
	return true
}

// Page returns the exposed prefix of the visible list.
func (m *Model) Page(apps []models.Application, lookup InterviewLookup) []models.Application {
	m.mu.Lock()
	defer m.mu.Unlock()

	visible := Visible(apps, m.criteria, lookup)
	m.window.SetTotal(len(visible))
	return visible[:m.window.Exposed()]
}

// CanGrow reports whether the last page hid results.
func (m *Model) CanGrow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.CanGrow()
}

// Grow exposes another batch.
func (m *Model) Grow() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Grow()
}
