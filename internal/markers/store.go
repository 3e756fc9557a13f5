// Package markers holds the client-side list of hazard locations and keeps
// it in sync with the /lokasi-rawan collection.
//
// The Store never patches its list locally: every successful mutation is
// followed by a full reload, so what the user sees is always what the server
// returned last. Failures are reported once through the Notifier and never
// retried.
package markers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

// Marker is a hazard location.
type Marker = rawanclient.Marker

// Backend is the remote collection the Store mirrors.
// *rawanclient.Client satisfies it.
type Backend interface {
	List(ctx context.Context) ([]Marker, error)
	Create(ctx context.Context, in rawanclient.MarkerInput) (Marker, error)
	Update(ctx context.Context, id int64, in rawanclient.MarkerInput) (Marker, error)
	Delete(ctx context.Context, id int64) error
}

// Notifier shows a blocking message to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Store is the in-memory marker list.
type Store struct {
	backend Backend
	notify  Notifier
	confirm Confirmer
	log     zerolog.Logger

	mu      sync.Mutex
	markers []Marker
	loading bool
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where failures are reported.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithConfirmer sets the delete confirmation prompt.
// Without one, every delete is declined.
func WithConfirmer(c Confirmer) Option {
	return func(s *Store) { s.confirm = c }
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates an empty Store backed by b.
func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notify == nil {
		s.notify = NotifierFunc(func(ctx context.Context, n Notice) {
			s.log.Warn().Str("op", string(n.Op)).Str("kind", n.Kind.String()).Msg(n.Message)
		})
	}
	if s.confirm == nil {
		s.confirm = ConfirmFunc(func(context.Context, string) bool { return false })
	}
	return s
}

// Markers returns a copy of the current list.
func (s *Store) Markers() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Marker(nil), s.markers...)
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Find returns the marker with the given ID from the current list.
func (s *Store) Find(id int64) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

// Load replaces the list with the server's. On failure the user is notified
// and the list is emptied rather than left stale. Load never fails.
func (s *Store) Load(ctx context.Context) []Marker {
	s.setLoading(true)
	defer s.setLoading(false)

	list, err := s.backend.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("loading hazard locations")
		s.mu.Lock()
		s.markers = nil
		s.mu.Unlock()
		s.notify.Notify(ctx, Classify(err, OpLoad))
		return []Marker{}
	}

	s.mu.Lock()
	s.markers = append([]Marker(nil), list...)
	s.mu.Unlock()

	s.log.Debug().Int("count", len(list)).Msg("hazard locations loaded")
	return append([]Marker{}, list...)
}

// Create adds a marker and reloads.
func (s *Store) Create(ctx context.Context, name, description string, lat, lng float64) error {
	created, err := s.backend.Create(ctx, rawanclient.MarkerInput{
		Name: name, Description: description, Latitude: lat, Longitude: lng,
	})
	if err != nil {
		return s.fail(ctx, OpCreate, err)
	}
	s.log.Info().Int64("id", created.ID).Str("name", created.Name).Msg("hazard location created")
	s.Load(ctx)
	return nil
}

// Update replaces marker id and reloads.
func (s *Store) Update(ctx context.Context, id int64, name, description string, lat, lng float64) error {
	_, err := s.backend.Update(ctx, id, rawanclient.MarkerInput{
		Name: name, Description: description, Latitude: lat, Longitude: lng,
	})
	if err != nil {
		return s.fail(ctx, OpUpdate, err)
	}
	s.log.Info().Int64("id", id).Msg("hazard location updated")
	s.Load(ctx)
	return nil
}

// Delete asks for confirmation, then removes marker id and reloads.
// A declined confirmation sends nothing and returns nil.
func (s *Store) Delete(ctx context.Context, id int64) error {
	prompt := "Delete this hazard location?"
	if m, ok := s.Find(id); ok {
		prompt = DeletePrompt(m)
	}
	if !s.confirm.Confirm(ctx, prompt) {
		return nil
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		return s.fail(ctx, OpDelete, err)
	}
	s.log.Info().Int64("id", id).Msg("hazard location deleted")
	s.Load(ctx)
	return nil
}

// DeletePrompt is the confirmation question for deleting m.
func DeletePrompt(m Marker) string {
	return fmt.Sprintf("Delete hazard location %q?", m.Name)
}

func (s *Store) fail(ctx context.Context, op Op, err error) error {
	n := Classify(err, op)
	s.log.Error().Err(err).Str("op", string(op)).Str("kind", n.Kind.String()).Msg("hazard location request failed")
	s.notify.Notify(ctx, n)
	return &Error{Notice: n, Err: err}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Error is returned by failed mutations after the user has been notified.
type Error struct {
	Notice Notice
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s hazard location: %s", e.Notice.Op, e.Notice.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func asAPIError(err error) (*rawanclient.APIError, bool) {
	var apiErr *rawanclient.APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
