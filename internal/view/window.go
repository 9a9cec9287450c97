package view

// Default window sizes.
const (
	DefaultBase  = 10
	DefaultBatch = 10
)

// Window exposes a growing prefix of a result list.
type Window struct {
	Base  int
	Batch int

	cursor int
	total  int
}

// NewWindow creates a window reset to base.
func NewWindow(base, batch int) *Window {
	if base <= 0 {
		base = DefaultBase
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Window{Base: base, Batch: batch, cursor: base}
}

// Reset moves the cursor back to the base for a new result set.
func (w *Window) Reset(total int) {
	w.cursor = w.Base
	w.total = max(total, 0)
}

// SetTotal updates the result size without moving the cursor.
func (w *Window) SetTotal(total int) {
	w.total = max(total, 0)
}

// Exposed returns how many results are visible.
func (w *Window) Exposed() int {
	return min(w.cursor, w.total)
}

// CanGrow reports whether more results are hidden.
func (w *Window) CanGrow() bool {
	return w.cursor < w.total
}

// Grow exposes one more batch and returns the new exposed count.
func (w *Window) Grow() int {
	if w.CanGrow() {
		w.cursor += w.Batch
	}
	return w.Exposed()
}
