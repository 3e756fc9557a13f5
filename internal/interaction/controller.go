// Package interaction is the map editor's pointer and dialog state machine.
//
// A Controller is in one of three states:
//
//	Idle           nothing selected
//	PendingCreate  a background pixel chosen, dialog open with blank fields
//	PendingEdit    an existing marker chosen, dialog pre-filled from it
//
// Positions are held as pixels while the dialog is open and converted back
// to coordinates with the live viewport size only when the dialog is saved.
package interaction

import (
	"context"
	"errors"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/markers"
)

// State is the controller state.
type State int

const (
	Idle State = iota
	PendingCreate
	PendingEdit
)

func (s State) String() string {
	switch s {
	case PendingCreate:
		return "create"
	case PendingEdit:
		return "edit"
	default:
		return "idle"
	}
}

// ParseState is the inverse of State.String. Unknown values are Idle.
func ParseState(s string) State {
	switch s {
	case "create":
		return PendingCreate
	case "edit":
		return PendingEdit
	default:
		return Idle
	}
}

var (
	// ErrNameRequired rejects a save with an empty name.
	ErrNameRequired = errors.New("hazard location name is required")
	// ErrNothingPending rejects a save while Idle.
	ErrNothingPending = errors.New("no hazard location is being edited")
)

// Viewport reports the rendered size of the map element.
type Viewport interface {
	Size() geo.Size
}

// ViewportFunc adapts a function to Viewport.
type ViewportFunc func() geo.Size

// Size implements Viewport.
func (f ViewportFunc) Size() geo.Size { return f() }

// FixedViewport is a Viewport with a constant size.
type FixedViewport geo.Size

// Size implements Viewport.
func (v FixedViewport) Size() geo.Size { return geo.Size(v) }

// Persister saves markers. *markers.Store satisfies it.
type Persister interface {
	Create(ctx context.Context, name, description string, lat, lng float64) error
	Update(ctx context.Context, id int64, name, description string, lat, lng float64) error
}

// ClickEvent is a pointer click on the map. Marker is set when the click
// landed on an existing marker.
type ClickEvent struct {
	Pixel  geo.Pixel
	Marker *markers.Marker
}

// Controller tracks click, hover and dialog state for one map.
type Controller struct {
	proj  geo.Projector
	view  Viewport
	store Persister
	log   zerolog.Logger

	placing bool
	state   State
	pixel   geo.Pixel
	editing *markers.Marker
	dialog  Dialog
	marks   map[int64]MarkerState
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithPlacement starts the controller with placement mode on or off.
func WithPlacement(on bool) Option {
	return func(c *Controller) { c.placing = on }
}

// New creates an Idle controller.
func New(proj geo.Projector, view Viewport, store Persister, opts ...Option) *Controller {
	c := &Controller{
		proj:  proj,
		view:  view,
		store: store,
		log:   zerolog.Nop(),
		marks: map[int64]MarkerState{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Projector returns the projection in use.
func (c *Controller) Projector() geo.Projector { return c.proj }

// Placing reports whether background clicks create markers.
func (c *Controller) Placing() bool { return c.placing }

// SetPlacementMode turns marker placement on or off.
func (c *Controller) SetPlacementMode(on bool) { c.placing = on }

// SelectedPixel returns the pending pixel, if any.
func (c *Controller) SelectedPixel() (geo.Pixel, bool) {
	return c.pixel, c.state != Idle
}

// Editing returns the marker being edited, or nil in create mode.
func (c *Controller) Editing() *markers.Marker {
	if c.editing == nil {
		return nil
	}
	m := *c.editing
	return &m
}

// Click handles a pointer click. A click on a marker is consumed by that
// marker and opens its edit dialog; it never reaches the background
// handler. A background click opens a blank dialog only in placement mode
// and only while Idle. Click reports whether the event changed state.
func (c *Controller) Click(ev ClickEvent) (bool, error) {
	if ev.Marker != nil {
		if err := c.Edit(*ev.Marker); err != nil {
			return false, err
		}
		return true, nil
	}
	return c.clickBackground(ev.Pixel), nil
}

func (c *Controller) clickBackground(px geo.Pixel) bool {
	if !c.placing || c.state != Idle {
		return false
	}
	c.clearSelected()
	c.state = PendingCreate
	c.pixel = px
	c.editing = nil
	c.dialog = Dialog{Open: true, Mode: PendingCreate}
	c.log.Debug().Float64("x", px.X).Float64("y", px.Y).Msg("placing new hazard location")
	return true
}

// Edit opens the dialog for m, pre-filled, with the pending pixel set to
// m's current projected position.
func (c *Controller) Edit(m markers.Marker) error {
	px, err := c.proj.ToPixel(orb.Point{m.Longitude, m.Latitude}, c.view.Size())
	if err != nil {
		return err
	}

	c.clearSelected()
	c.state = PendingEdit
	c.pixel = px
	c.editing = &m
	c.marks[m.ID] = MarkerSelected
	c.dialog = Dialog{Open: true, Mode: PendingEdit, Name: m.Name, Description: m.Description}
	c.log.Debug().Int64("id", m.ID).Msg("editing hazard location")
	return nil
}

// SetFields binds the dialog's text inputs.
func (c *Controller) SetFields(name, description string) {
	c.dialog.Name = name
	c.dialog.Description = description
}

// Submit saves the dialog. An empty name is rejected with ErrNameRequired
// and leaves every field as it was. The pending pixel is converted with
// the viewport's size at this moment. On success the controller returns to
// Idle; on failure it stays pending so the user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	if c.state == Idle {
		return ErrNothingPending
	}
	name := strings.TrimSpace(c.dialog.Name)
	if name == "" {
		return ErrNameRequired
	}

	pt, err := c.proj.ToGeo(c.pixel, c.view.Size())
	if err != nil {
		return err
	}

	if c.editing != nil {
		err = c.store.Update(ctx, c.editing.ID, name, c.dialog.Description, pt.Lat(), pt.Lon())
	} else {
		err = c.store.Create(ctx, name, c.dialog.Description, pt.Lat(), pt.Lon())
	}
	if err != nil {
		return err
	}

	c.reset()
	return nil
}

// Cancel closes the dialog without saving.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.clearSelected()
	c.state = Idle
	c.pixel = geo.Pixel{}
	c.editing = nil
	c.dialog = Dialog{}
}
