package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
)

// ResourceMarkers is the Event.Resource for hazard locations.
const ResourceMarkers = "lokasi-rawan"

// Length limits in runes. They match the maxLength tags on MarkerInput so
// in-process callers get the same answer as the REST API.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
)

// ValidationError reports a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MarkerService manages hazard locations.
type MarkerService struct {
	repo Repository
	bus  *EventBus
	log  zerolog.Logger
}

// NewMarkerService creates a marker service over repo. Changes are
// published on bus when it is non-nil.
func NewMarkerService(repo Repository, bus *EventBus, log zerolog.Logger) *MarkerService {
	return &MarkerService{repo: repo, bus: bus, log: log}
}

// Events returns the bus changes are published on.
func (s *MarkerService) Events() *EventBus {
	return s.bus
}

// List returns all hazard locations.
func (s *MarkerService) List(ctx context.Context) ([]Marker, error) {
	return s.repo.List(ctx)
}

// Get returns a hazard location by ID.
func (s *MarkerService) Get(ctx context.Context, id int64) (Marker, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new hazard location.
func (s *MarkerService) Create(ctx context.Context, in MarkerInput) (Marker, error) {
	in, err := normalize(in)
	if err != nil {
		return Marker{}, err
	}

	m, err := s.repo.Insert(ctx, in)
	if err != nil {
		return Marker{}, err
	}

	s.log.Info().Int64("id", m.ID).Str("name", m.Name).Msg("hazard location created")
	s.publish("created", m.ID)
	return m, nil
}

// Update validates and replaces a hazard location.
func (s *MarkerService) Update(ctx context.Context, id int64, in MarkerInput) (Marker, error) {
	in, err := normalize(in)
	if err != nil {
		return Marker{}, err
	}

	m, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Marker{}, err
	}

	s.log.Info().Int64("id", id).Msg("hazard location updated")
	s.publish("updated", id)
	return m, nil
}

// Delete removes a hazard location.
func (s *MarkerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Msg("hazard location deleted")
	s.publish("deleted", id)
	return nil
}

// FeatureCollection exports all hazard locations as GeoJSON points.
func (s *MarkerService) FeatureCollection(ctx context.Context) (*geojson.FeatureCollection, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FeatureCollection(list), nil
}

// FeatureCollection converts hazard locations to GeoJSON points carrying
// the wire property names.
func FeatureCollection(list []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range list {
		f := geojson.NewFeature(orb.Point{m.Longitude, m.Latitude})
		f.ID = m.ID
		f.Properties["id"] = m.ID
		f.Properties["namaLokasi"] = m.Name
		if m.Description != "" {
			f.Properties["deskripsi"] = m.Description
		}
		fc.Append(f)
	}
	return fc
}

func (s *MarkerService) publish(action string, id int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{Resource: ResourceMarkers, Action: action, ID: id})
}

func normalize(in MarkerInput) (MarkerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, &ValidationError{Field: "namaLokasi", Message: "name is required"}
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLength {
		return in, &ValidationError{Field: "namaLokasi", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return in, &ValidationError{Field: "deskripsi", Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}
	if math.IsNaN(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return in, &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return in, &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	return in, nil
}
