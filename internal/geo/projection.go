// Package geo maps hazard-location coordinates onto the map viewport.
//
// The projection is a plain linear mapping: a fixed angular span of
// latitude covers the viewport height and the same span of longitude covers
// its width, centred on a configurable point. Points are orb.Point values,
// which store [lng, lat].
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// AngularSpan is the degree range covered by the full viewport width and height.
const AngularSpan = 0.1

// ErrViewportUnavailable is returned when the viewport has not been measured
// yet (or measured as empty), so no projection can be computed.
var ErrViewportUnavailable = errors.New("geo: viewport not measured")

// Pixel is an offset in pixels from the viewport's top-left corner.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the rendered bounding box of the viewport.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are finite and positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// Projector converts between geographic points and viewport pixels.
type Projector struct {
	Center orb.Point
	Span   float64
}

// NewProjector creates a projector centred on lat/lng with the default span.
func NewProjector(lat, lng float64) Projector {
	return Projector{Center: orb.Point{lng, lat}, Span: AngularSpan}
}

func (p Projector) span() float64 {
	if p.Span <= 0 {
		return AngularSpan
	}
	return p.Span
}

// ToPixel projects pt into the viewport. Points outside the visible span
// land outside [0,W]x[0,H]; nothing is clamped.
func (p Projector) ToPixel(pt orb.Point, size Size) (Pixel, error) {
	if !size.Valid() {
		return Pixel{}, ErrViewportUnavailable
	}
	span := p.span()
	return Pixel{
		X: size.Width * (0.5 + (pt.Lon()-p.Center.Lon())/span),
		Y: size.Height * (0.5 - (pt.Lat()-p.Center.Lat())/span),
	}, nil
}

// ToGeo is the inverse of ToPixel. size must be the live measurement of
// the viewport at call time.
func (p Projector) ToGeo(px Pixel, size Size) (orb.Point, error) {
	if !size.Valid() {
		return orb.Point{}, ErrViewportUnavailable
	}
	span := p.span()
	lat := p.Center.Lat() + (0.5-px.Y/size.Height)*span
	lng := p.Center.Lon() + (px.X/size.Width-0.5)*span
	return orb.Point{lng, lat}, nil
}

// Bound returns the geographic box visible in the viewport.
func (p Projector) Bound() orb.Bound {
	half := p.span() / 2
	return orb.Bound{
		Min: orb.Point{p.Center.Lon() - half, p.Center.Lat() - half},
		Max: orb.Point{p.Center.Lon() + half, p.Center.Lat() + half},
	}
}

// Contains reports whether pt falls inside the visible span.
func (p Projector) Contains(pt orb.Point) bool {
	return p.Bound().Contains(pt)
}

// Recenter returns a copy of p centred on pt.
func (p Projector) Recenter(pt orb.Point) Projector {
	p.Center = pt
	return p
}
