package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/markers"
)

type saved struct {
	op          string
	id          int64
	name        string
	description string
	lat, lng    float64
}

type recorder struct {
	calls []saved
	err   error
}

func (r *recorder) Create(ctx context.Context, name, description string, lat, lng float64) error {
	r.calls = append(r.calls, saved{op: "create", name: name, description: description, lat: lat, lng: lng})
	return r.err
}

func (r *recorder) Update(ctx context.Context, id int64, name, description string, lat, lng float64) error {
	r.calls = append(r.calls, saved{op: "update", id: id, name: name, description: description, lat: lat, lng: lng})
	return r.err
}

const (
	centerLat = -6.5714
	centerLng = 107.7636
)

func newController(rec *recorder, opts ...Option) *Controller {
	return New(
		geo.NewProjector(centerLat, centerLng),
		FixedViewport{Width: 400, Height: 500},
		rec,
		opts...,
	)
}

func hydrant() markers.Marker {
	return markers.Marker{ID: 9, Name: "Hidran rusak", Description: "Tekanan rendah", Latitude: centerLat + 0.01, Longitude: centerLng - 0.02}
}

func TestBackgroundClickIgnoredOutsidePlacementMode(t *testing.T) {
	c := newController(&recorder{})

	changed, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 10, Y: 10}})
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Dialog().Open)
}

func TestBackgroundClickOpensBlankDialog(t *testing.T) {
	c := newController(&recorder{}, WithPlacement(true))

	changed, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 200, Y: 500}})
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, PendingCreate, c.State())
	assert.Nil(t, c.Editing())
	assert.Equal(t, Dialog{Open: true, Mode: PendingCreate}, c.Dialog())
	px, ok := c.SelectedPixel()
	assert.True(t, ok)
	assert.Equal(t, geo.Pixel{X: 200, Y: 500}, px)
	assert.Equal(t, "New hazard location", c.DialogTitle())
}

func TestSubmitCreateUsesLiveViewport(t *testing.T) {
	rec := &recorder{}
	size := geo.Size{Width: 400, Height: 500}
	c := New(geo.NewProjector(centerLat, centerLng), ViewportFunc(func() geo.Size { return size }), rec, WithPlacement(true))

	_, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 200, Y: 500}})
	require.NoError(t, err)
	c.SetFields("  SPBU Jalan Raya  ", "Tangki bawah tanah")

	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, rec.calls, 1)
	got := rec.calls[0]
	assert.Equal(t, "create", got.op)
	assert.Equal(t, "SPBU Jalan Raya", got.name)
	assert.Equal(t, "Tangki bawah tanah", got.description)
	assert.InDelta(t, centerLat-0.05, got.lat, 1e-9)
	assert.InDelta(t, centerLng, got.lng, 1e-9)
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Dialog().Open)
}

func TestSubmitMeasuresViewportAtSaveTime(t *testing.T) {
	rec := &recorder{}
	size := geo.Size{Width: 400, Height: 500}
	c := New(geo.NewProjector(centerLat, centerLng), ViewportFunc(func() geo.Size { return size }), rec, WithPlacement(true))

	_, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 200, Y: 500}})
	require.NoError(t, err)
	c.SetFields("Pasar", "")

	size = geo.Size{Width: 400, Height: 1000} // resized while the dialog was open
	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, rec.calls, 1)
	assert.InDelta(t, centerLat, rec.calls[0].lat, 1e-9)
}

func TestEmptyNameNeverSaves(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		rec := &recorder{}
		c := newController(rec)
		m := hydrant()
		require.NoError(t, c.Edit(m))
		c.SetFields(name, "whatever")

		err := c.Submit(context.Background())

		assert.ErrorIs(t, err, ErrNameRequired)
		assert.Empty(t, rec.calls)
		assert.Equal(t, PendingEdit, c.State())
		assert.True(t, c.Dialog().Open)
		assert.Equal(t, &m, c.Editing())
	}
}

func TestMarkerClickOpensEditNeverCreate(t *testing.T) {
	c := newController(&recorder{}, WithPlacement(true))
	m := hydrant()

	changed, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 1, Y: 1}, Marker: &m})
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, PendingEdit, c.State())
	require.NotNil(t, c.Editing())
	assert.Equal(t, m.ID, c.Editing().ID)
	assert.Equal(t, Dialog{Open: true, Mode: PendingEdit, Name: m.Name, Description: m.Description}, c.Dialog())
	assert.Equal(t, "Edit hazard location", c.DialogTitle())

	// The pending pixel is the marker's own position, not the click point.
	px, _ := c.SelectedPixel()
	assert.InDelta(t, 400*(0.5-0.2), px.X, 1e-6)
	assert.InDelta(t, 500*(0.5-0.1), px.Y, 1e-6)
}

func TestSubmitEditKeepsCoordinates(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	m := hydrant()
	require.NoError(t, c.Edit(m))
	c.SetFields("Hidran diperbaiki", "")

	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, rec.calls, 1)
	got := rec.calls[0]
	assert.Equal(t, "update", got.op)
	assert.Equal(t, int64(9), got.id)
	assert.Equal(t, "Hidran diperbaiki", got.name)
	assert.InDelta(t, m.Latitude, got.lat, 1e-9)
	assert.InDelta(t, m.Longitude, got.lng, 1e-9)
	assert.Equal(t, MarkerIdle, c.MarkerState(9))
}

func TestFailedSubmitStaysPending(t *testing.T) {
	rec := &recorder{err: errors.New("forbidden")}
	c := newController(rec, WithPlacement(true))
	_, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 5, Y: 5}})
	require.NoError(t, err)
	c.SetFields("Gudang", "")

	require.Error(t, c.Submit(context.Background()))

	assert.Equal(t, PendingCreate, c.State())
	assert.Equal(t, "Gudang", c.Dialog().Name)
}

func TestSubmitWhileIdle(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)

	assert.ErrorIs(t, c.Submit(context.Background()), ErrNothingPending)
	assert.Empty(t, rec.calls)
}

func TestSubmitUnmeasuredViewport(t *testing.T) {
	rec := &recorder{}
	size := geo.Size{Width: 400, Height: 500}
	c := New(geo.NewProjector(centerLat, centerLng), ViewportFunc(func() geo.Size { return size }), rec, WithPlacement(true))
	_, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 5, Y: 5}})
	require.NoError(t, err)
	c.SetFields("Gudang", "")

	size = geo.Size{}
	assert.ErrorIs(t, c.Submit(context.Background()), geo.ErrViewportUnavailable)
	assert.Empty(t, rec.calls)
	assert.Equal(t, PendingCreate, c.State())
}

func TestEditUnmeasuredViewport(t *testing.T) {
	c := New(geo.NewProjector(centerLat, centerLng), FixedViewport{}, &recorder{})

	err := c.Edit(hydrant())
	assert.ErrorIs(t, err, geo.ErrViewportUnavailable)
	assert.Equal(t, Idle, c.State())
}

func TestCancelDiscards(t *testing.T) {
	rec := &recorder{}
	c := newController(rec)
	require.NoError(t, c.Edit(hydrant()))
	c.SetFields("x", "y")

	c.Cancel()

	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Editing())
	assert.Equal(t, Dialog{}, c.Dialog())
	_, ok := c.SelectedPixel()
	assert.False(t, ok)
	assert.Empty(t, rec.calls)
}

func TestBackgroundClickWhileDialogOpenIgnored(t *testing.T) {
	c := newController(&recorder{}, WithPlacement(true))
	require.NoError(t, c.Edit(hydrant()))

	changed, err := c.Click(ClickEvent{Pixel: geo.Pixel{X: 3, Y: 3}})
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, PendingEdit, c.State())
}

func TestHoverStates(t *testing.T) {
	c := newController(&recorder{})

	c.Hover(1)
	assert.Equal(t, MarkerHovered, c.MarkerState(1))
	assert.True(t, c.ShowActions(1))
	assert.Equal(t, zHovered, c.ZIndex(1))
	assert.Equal(t, zIdle, c.ZIndex(2))

	c.Hover(2)
	assert.Equal(t, MarkerIdle, c.MarkerState(1), "only one marker is hovered at a time")
	assert.Equal(t, MarkerHovered, c.MarkerState(2))
	id, ok := c.Hovered()
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	c.Unhover(2)
	assert.Equal(t, MarkerIdle, c.MarkerState(2))
	_, ok = c.Hovered()
	assert.False(t, ok)
}

func TestHoverKeepsSelection(t *testing.T) {
	c := newController(&recorder{})
	m := hydrant()
	require.NoError(t, c.Edit(m))

	c.Hover(m.ID)
	assert.Equal(t, MarkerSelected, c.MarkerState(m.ID))
	assert.False(t, c.ShowActions(m.ID))

	c.Unhover(m.ID)
	assert.Equal(t, MarkerSelected, c.MarkerState(m.ID))
}

func TestSnapshotRestore(t *testing.T) {
	c := newController(&recorder{}, WithPlacement(true))
	m := hydrant()
	require.NoError(t, c.Edit(m))
	c.SetFields("Hidran", "baru")
	c.Hover(3)

	snap := c.Snapshot()

	other := newController(&recorder{})
	other.Restore(snap)

	assert.Equal(t, PendingEdit, other.State())
	assert.True(t, other.Placing())
	assert.Equal(t, c.Dialog(), other.Dialog())
	assert.Equal(t, c.Editing(), other.Editing())
	assert.Equal(t, MarkerSelected, other.MarkerState(m.ID))
	assert.Equal(t, MarkerHovered, other.MarkerState(3))
	p1, _ := c.SelectedPixel()
	p2, _ := other.SelectedPixel()
	assert.Equal(t, p1, p2)
}

func TestRestoreInconsistentEditFallsBackToIdle(t *testing.T) {
	c := newController(&recorder{})
	c.Restore(Snapshot{State: PendingEdit, Name: "orphan"})

	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Dialog().Open)
}

func TestParseState(t *testing.T) {
	for _, s := range []State{Idle, PendingCreate, PendingEdit} {
		assert.Equal(t, s, ParseState(s.String()))
	}
	assert.Equal(t, Idle, ParseState("bogus"))
}
