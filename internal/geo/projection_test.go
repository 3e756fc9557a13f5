package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestToGeo_BottomCenterClick(t *testing.T) {
	p := NewProjector(-6.5714, 107.7636)
	size := Size{Width: 400, Height: 500}

	pt, err := p.ToGeo(Pixel{X: 200, Y: 500}, size)
	require.NoError(t, err)

	assert.InDelta(t, -6.5714-0.05, pt.Lat(), tolerance)
	assert.InDelta(t, 107.7636, pt.Lon(), tolerance)
}

func TestToPixel_CenterMapsToMiddle(t *testing.T) {
	p := NewProjector(-6.5714, 107.7636)

	px, err := p.ToPixel(orb.Point{107.7636, -6.5714}, Size{Width: 800, Height: 600})
	require.NoError(t, err)

	assert.InDelta(t, 400, px.X, tolerance)
	assert.InDelta(t, 300, px.Y, tolerance)
}

func TestRoundTrip(t *testing.T) {
	centers := []orb.Point{
		{107.7636, -6.5714},
		{0, 0},
		{-122.4194, 37.7749},
		{179.95, -89.9},
	}
	sizes := []Size{
		{Width: 400, Height: 500},
		{Width: 1, Height: 1},
		{Width: 1920, Height: 1080},
	}
	offsets := []orb.Point{
		{0, 0},
		{0.01, -0.02},
		{-0.049, 0.049},
		{0.3, -0.7}, // well outside the visible span
	}

	for _, c := range centers {
		p := Projector{Center: c, Span: AngularSpan}
		for _, size := range sizes {
			for _, off := range offsets {
				pt := orb.Point{c.Lon() + off.Lon(), c.Lat() + off.Lat()}

				px, err := p.ToPixel(pt, size)
				require.NoError(t, err)
				back, err := p.ToGeo(px, size)
				require.NoError(t, err)

				assert.InDelta(t, pt.Lat(), back.Lat(), 1e-9, "lat center=%v size=%v", c, size)
				assert.InDelta(t, pt.Lon(), back.Lon(), 1e-9, "lng center=%v size=%v", c, size)
			}
		}
	}
}

func TestToPixel_Monotonic(t *testing.T) {
	p := NewProjector(-6.5714, 107.7636)
	size := Size{Width: 400, Height: 500}

	prev, err := p.ToPixel(orb.Point{107.70, -6.5714}, size)
	require.NoError(t, err)
	for lng := 107.71; lng < 107.83; lng += 0.01 {
		px, err := p.ToPixel(orb.Point{lng, -6.5714}, size)
		require.NoError(t, err)
		assert.Greater(t, px.X, prev.X, "x must grow with longitude")
		assert.InDelta(t, prev.Y, px.Y, tolerance)
		prev = px
	}

	prev, err = p.ToPixel(orb.Point{107.7636, -6.65}, size)
	require.NoError(t, err)
	for lat := -6.64; lat < -6.49; lat += 0.01 {
		px, err := p.ToPixel(orb.Point{107.7636, lat}, size)
		require.NoError(t, err)
		assert.Less(t, px.Y, prev.Y, "y must shrink as latitude grows")
		prev = px
	}
}

func TestToPixel_NoClamping(t *testing.T) {
	p := NewProjector(0, 0)

	px, err := p.ToPixel(orb.Point{1, -1}, Size{Width: 100, Height: 100})
	require.NoError(t, err)

	assert.Greater(t, px.X, 100.0)
	assert.Greater(t, px.Y, 100.0)
	assert.False(t, p.Contains(orb.Point{1, -1}))
	assert.True(t, p.Contains(orb.Point{0.01, 0.01}))
}

func TestUnmeasuredViewport(t *testing.T) {
	p := NewProjector(-6.5714, 107.7636)

	for _, size := range []Size{
		{},
		{Width: 400},
		{Height: 500},
		{Width: -1, Height: 10},
		{Width: math.NaN(), Height: 10},
		{Width: math.Inf(1), Height: 10},
	} {
		_, err := p.ToGeo(Pixel{X: 1, Y: 1}, size)
		assert.ErrorIs(t, err, ErrViewportUnavailable, "size=%v", size)

		_, err = p.ToPixel(orb.Point{107.7, -6.5}, size)
		assert.ErrorIs(t, err, ErrViewportUnavailable, "size=%v", size)
	}
}

func TestBound(t *testing.T) {
	p := NewProjector(10, 20)
	b := p.Bound()

	assert.InDelta(t, 19.95, b.Min.Lon(), tolerance)
	assert.InDelta(t, 9.95, b.Min.Lat(), tolerance)
	assert.InDelta(t, 20.05, b.Max.Lon(), tolerance)
	assert.InDelta(t, 10.05, b.Max.Lat(), tolerance)
}
