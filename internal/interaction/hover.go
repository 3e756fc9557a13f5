package interaction

// MarkerState is the display state of a single marker.
type MarkerState int

const (
	MarkerIdle MarkerState = iota
	MarkerHovered
	MarkerSelected
)

func (s MarkerState) String() string {
	switch s {
	case MarkerHovered:
		return "hovered"
	case MarkerSelected:
		return "selected"
	default:
		return "idle"
	}
}

// Z-order for rendered markers.
const (
	zIdle     = 1
	zSelected = 5
	zHovered  = 10
)

// Hover marks id as hovered. At most one marker is hovered at a time; the
// selected marker keeps its state.
func (c *Controller) Hover(id int64) {
	for other, st := range c.marks {
		if st == MarkerHovered && other != id {
			delete(c.marks, other)
		}
	}
	if c.marks[id] != MarkerSelected {
		c.marks[id] = MarkerHovered
	}
}

// Unhover clears the hover on id.
func (c *Controller) Unhover(id int64) {
	if c.marks[id] == MarkerHovered {
		delete(c.marks, id)
	}
}

// Hovered returns the hovered marker ID, if any.
func (c *Controller) Hovered() (int64, bool) {
	for id, st := range c.marks {
		if st == MarkerHovered {
			return id, true
		}
	}
	return 0, false
}

// MarkerState returns the display state of id.
func (c *Controller) MarkerState(id int64) MarkerState {
	return c.marks[id]
}

// ShowActions reports whether the inline edit/delete buttons render for id.
func (c *Controller) ShowActions(id int64) bool {
	return c.marks[id] == MarkerHovered
}

// ZIndex returns the stacking order for id; hovered markers draw on top.
func (c *Controller) ZIndex(id int64) int {
	switch c.marks[id] {
	case MarkerHovered:
		return zHovered
	case MarkerSelected:
		return zSelected
	default:
		return zIdle
	}
}

func (c *Controller) clearSelected() {
	for id, st := range c.marks {
		if st == MarkerSelected {
			delete(c.marks, id)
		}
	}
}
