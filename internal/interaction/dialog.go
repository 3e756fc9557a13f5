package interaction

import (
	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/markers"
)

// Dialog is the edit form bound to the pending marker. Mode is
// PendingCreate or PendingEdit while Open, Idle otherwise.
type Dialog struct {
	Open        bool
	Mode        State
	Name        string
	Description string
}

// Dialog returns the current form contents.
func (c *Controller) Dialog() Dialog { return c.dialog }

// DialogTitle returns the heading for the open dialog.
func (c *Controller) DialogTitle() string {
	if c.dialog.Mode == PendingEdit {
		return "Edit hazard location"
	}
	return "New hazard location"
}

// Snapshot is the serialisable controller state, used to carry a
// controller across stateless requests.
type Snapshot struct {
	State       State
	Placing     bool
	Pixel       geo.Pixel
	Editing     *markers.Marker
	Name        string
	Description string
	Hovered     int64 // 0 when no marker is hovered
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:       c.state,
		Placing:     c.placing,
		Pixel:       c.pixel,
		Editing:     c.Editing(),
		Name:        c.dialog.Name,
		Description: c.dialog.Description,
	}
	if id, ok := c.Hovered(); ok {
		s.Hovered = id
	}
	return s
}

// Restore replaces the controller state with s. Inconsistent snapshots
// (an edit without a marker) fall back to Idle.
func (c *Controller) Restore(s Snapshot) {
	c.reset()
	c.marks = map[int64]MarkerState{}
	c.placing = s.Placing

	switch {
	case s.State == PendingEdit && s.Editing != nil:
		m := *s.Editing
		c.state = PendingEdit
		c.editing = &m
		c.marks[m.ID] = MarkerSelected
	case s.State == PendingCreate:
		c.state = PendingCreate
	}

	if c.state != Idle {
		c.pixel = s.Pixel
		c.dialog = Dialog{Open: true, Mode: c.state, Name: s.Name, Description: s.Description}
	}
	if s.Hovered != 0 {
		c.Hover(s.Hovered)
	}
}
