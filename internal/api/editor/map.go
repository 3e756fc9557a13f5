// Package editor contains Datastar SSE handlers for the map editor UI.
package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-rawan/internal/api"
	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/humastar"
	"github.com/joeblew999/plat-rawan/internal/interaction"
	"github.com/joeblew999/plat-rawan/internal/markers"
	"github.com/joeblew999/plat-rawan/internal/service"
	"github.com/joeblew999/plat-rawan/internal/templates"
)

// Signal names. Datastar lowercases bound signal names.
const (
	sigWidth     = "mapwidth"
	sigHeight    = "mapheight"
	sigCenterLat = "centerlat"
	sigCenterLng = "centerlng"
	sigMode      = "mode"
	sigPlacing   = "placing"
	sigPixelX    = "pixelx"
	sigPixelY    = "pixely"
	sigEditing   = "editingid"
	sigName      = "name"
	sigDesc      = "description"
	sigHover     = "hoverid"
	sigClickX    = "clickx"
	sigClickY    = "clicky"
	sigConfirmed = "confirmed"
	sigToken     = "token"
	sigError     = "error"
	sigSuccess   = "success"
)

const (
	msgNotMeasured = "The map is not ready yet. Please try again."
	msgNotFound    = "The hazard location no longer exists."
)

// MapHandler hosts an interaction.Controller per request. The controller
// state travels in Datastar signals between requests.
type MapHandler struct {
	humastar.Handler
	svc  *service.MarkerService
	auth *api.Authenticator
	proj geo.Projector
	log  zerolog.Logger
}

// NewMapHandler creates the map editor handler. proj is used when the
// browser does not send its own map center.
func NewMapHandler(svc *service.MarkerService, renderer *templates.Renderer, auth *api.Authenticator, proj geo.Projector, log zerolog.Logger) *MapHandler {
	return &MapHandler{
		Handler: humastar.Handler{Renderer: renderer},
		svc:     svc,
		auth:    auth,
		proj:    proj,
		log:     log,
	}
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/map/markers", h.Markers, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/click", h.Click, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/markers/{id}/edit", h.Edit, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/markers/{id}/hover", h.Hover, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/markers/{id}/unhover", h.Unhover, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/save", h.Save, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/map/cancel", h.Cancel, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/map/markers/{id}", h.Delete, huma.OperationTags("editor"))
}

// Inputs

type MapQueryInput struct {
	humastar.QueryInput
	Authorization string `header:"Authorization"`
}

type MapInput struct {
	humastar.SignalsInput
	Authorization string `header:"Authorization"`
}

type MarkerActionInput struct {
	ID int64 `path:"id" doc:"Hazard location ID"`
	MapInput
}

// Handlers

func (h *MapHandler) Markers(ctx context.Context, input *MapQueryInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	s := h.open(ctx, signals, input.Authorization)
	return h.Stream(s.render), nil
}

func (h *MapHandler) Click(ctx context.Context, input *MapInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, input)
	if err != nil {
		return nil, err
	}
	px := geo.Pixel{X: s.signals.Float(sigClickX), Y: s.signals.Float(sigClickY)}
	if _, err := s.ctrl.Click(interaction.ClickEvent{Pixel: px}); err != nil {
		s.fail(err)
	}
	return h.Stream(s.render), nil
}

func (h *MapHandler) Edit(ctx context.Context, input *MarkerActionInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, &input.MapInput)
	if err != nil {
		return nil, err
	}
	m, ok := s.store.Find(input.ID)
	if !ok {
		s.failMessage(msgNotFound)
		return h.Stream(s.render), nil
	}
	ev := interaction.ClickEvent{Marker: &m}
	if _, err := s.ctrl.Click(ev); err != nil {
		s.fail(err)
	}
	return h.Stream(s.render), nil
}

func (h *MapHandler) Hover(ctx context.Context, input *MarkerActionInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, &input.MapInput)
	if err != nil {
		return nil, err
	}
	s.ctrl.Hover(input.ID)
	return h.Stream(s.render), nil
}

func (h *MapHandler) Unhover(ctx context.Context, input *MarkerActionInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, &input.MapInput)
	if err != nil {
		return nil, err
	}
	s.ctrl.Unhover(input.ID)
	return h.Stream(s.render), nil
}

func (h *MapHandler) Save(ctx context.Context, input *MapInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, input)
	if err != nil {
		return nil, err
	}
	s.ctrl.SetFields(s.signals.String(sigName), s.signals.String(sigDesc))
	editing := s.ctrl.State() == interaction.PendingEdit
	if err := s.ctrl.Submit(ctx); err != nil {
		s.fail(err)
	} else if editing {
		s.success = "Hazard location updated"
	} else {
		s.success = "Hazard location added"
	}
	return h.Stream(s.render), nil
}

func (h *MapHandler) Cancel(ctx context.Context, input *MapInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, input)
	if err != nil {
		return nil, err
	}
	s.ctrl.Cancel()
	return h.Stream(s.render), nil
}

// Delete removes a marker when the confirmed signal is true. The browser
// asks the question; the store only reads the answer.
func (h *MapHandler) Delete(ctx context.Context, input *MarkerActionInput) (*huma.StreamResponse, error) {
	s, err := h.openBody(ctx, &input.MapInput)
	if err != nil {
		return nil, err
	}
	_, existed := s.store.Find(input.ID)
	if err := s.store.Delete(ctx, input.ID); err != nil {
		s.fail(err)
	} else if existed && s.signals.Bool(sigConfirmed) {
		if m := s.ctrl.Editing(); m != nil && m.ID == input.ID {
			s.ctrl.Cancel()
		}
		s.success = "Hazard location deleted"
	}
	return h.Stream(s.render), nil
}

// Session

// session is one request's store and controller, rebuilt from signals.
type session struct {
	h       *MapHandler
	signals humastar.Signals
	store   *markers.Store
	ctrl    *interaction.Controller
	size    geo.Size
	errMsg  string
	success string
}

func (h *MapHandler) openBody(ctx context.Context, input *MapInput) (*session, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.open(ctx, signals, input.Authorization), nil
}

func (h *MapHandler) open(ctx context.Context, signals humastar.Signals, authorization string) *session {
	s := &session{
		h:       h,
		signals: signals,
		size:    geo.Size{Width: signals.Float(sigWidth), Height: signals.Float(sigHeight)},
	}

	if authorization == "" && signals.String(sigToken) != "" {
		authorization = "Bearer " + signals.String(sigToken)
	}
	backend := serviceBackend{svc: h.svc, role: h.auth.RoleFor(authorization)}

	s.store = markers.New(backend,
		markers.WithNotifier(markers.NotifierFunc(func(_ context.Context, n markers.Notice) {
			s.errMsg = n.Message
		})),
		markers.WithConfirmer(markers.ConfirmFunc(func(context.Context, string) bool {
			return signals.Bool(sigConfirmed)
		})),
		markers.WithLogger(h.log),
	)
	s.store.Load(ctx)

	proj := h.proj
	if signals.Has(sigCenterLat) && signals.Has(sigCenterLng) {
		proj = geo.NewProjector(signals.Float(sigCenterLat), signals.Float(sigCenterLng))
	}
	s.ctrl = interaction.New(proj, interaction.FixedViewport(s.size), s.store, interaction.WithLogger(h.log))
	s.ctrl.Restore(snapshotFrom(signals, s.store))
	return s
}

func snapshotFrom(sig humastar.Signals, store *markers.Store) interaction.Snapshot {
	snap := interaction.Snapshot{
		State:       interaction.ParseState(sig.String(sigMode)),
		Placing:     sig.Bool(sigPlacing),
		Pixel:       geo.Pixel{X: sig.Float(sigPixelX), Y: sig.Float(sigPixelY)},
		Name:        sig.String(sigName),
		Description: sig.String(sigDesc),
		Hovered:     sig.Int64(sigHover),
	}
	if id := sig.Int64(sigEditing); id != 0 {
		if m, ok := store.Find(id); ok {
			snap.Editing = &m
		}
	}
	return snap
}

// fail records err for the UI. Store errors already produced a notice.
func (s *session) fail(err error) {
	var storeErr *markers.Error
	switch {
	case errors.As(err, &storeErr):
		s.errMsg = storeErr.Notice.Message
	case errors.Is(err, geo.ErrViewportUnavailable):
		s.errMsg = msgNotMeasured
	case errors.Is(err, interaction.ErrNameRequired):
		s.errMsg = "Please enter a name for the hazard location."
	default:
		s.errMsg = err.Error()
	}
	s.h.log.Debug().Err(err).Msg("editor action failed")
}

func (s *session) failMessage(msg string) {
	s.errMsg = msg
}

// Rendering

type markerView struct {
	ID            int64
	Name          string
	Description   string
	X, Y          float64
	Z             int
	State         string
	Actions       bool
	ConfirmPrompt string
}

type pinView struct {
	Visible bool
	X, Y    float64
}

type dialogView struct {
	Open        bool
	Title       string
	Name        string
	Description string
	X, Y        float64
}

func (s *session) markerViews() ([]any, error) {
	proj := s.ctrl.Projector()
	var views []any
	for _, m := range s.store.Markers() {
		px, err := proj.ToPixel(orb.Point{m.Longitude, m.Latitude}, s.size)
		if err != nil {
			return nil, err
		}
		views = append(views, markerView{
			ID:            m.ID,
			Name:          m.Name,
			Description:   m.Description,
			X:             px.X,
			Y:             px.Y,
			Z:             s.ctrl.ZIndex(m.ID),
			State:         s.ctrl.MarkerState(m.ID).String(),
			Actions:       s.ctrl.ShowActions(m.ID),
			ConfirmPrompt: markers.DeletePrompt(m),
		})
	}
	return views, nil
}

func (s *session) render(sse humastar.SSE) {
	views, err := s.markerViews()
	switch {
	case errors.Is(err, geo.ErrViewportUnavailable):
		html, _ := s.h.Renderer.Render("empty-state", map[string]string{
			"Title": "Map not ready", "Message": msgNotMeasured,
		})
		sse.Patch(html, "#marker-layer")
	default:
		sse.Patch(s.h.RenderList("marker", views, "No hazard locations", "Turn on placement and click the map to add one."), "#marker-layer")
	}

	px, pending := s.ctrl.SelectedPixel()
	pin, _ := s.h.Renderer.Render("pending-pin", pinView{
		Visible: s.ctrl.State() == interaction.PendingCreate, X: px.X, Y: px.Y,
	})
	sse.Patch(pin, "#pending-pin")

	d := s.ctrl.Dialog()
	dialog, _ := s.h.Renderer.Render("dialog", dialogView{
		Open: d.Open, Title: s.ctrl.DialogTitle(), Name: d.Name, Description: d.Description, X: px.X, Y: px.Y,
	})
	sse.Patch(dialog, "#dialog")

	sse.Signals(s.signalsOut(pending))
}

func (s *session) signalsOut(pending bool) map[string]any {
	snap := s.ctrl.Snapshot()
	out := map[string]any{
		sigMode:      snap.State.String(),
		sigPlacing:   snap.Placing,
		sigPixelX:    0.0,
		sigPixelY:    0.0,
		sigEditing:   int64(0),
		sigName:      snap.Name,
		sigDesc:      snap.Description,
		sigHover:     snap.Hovered,
		sigConfirmed: false,
		sigError:     strings.TrimSpace(s.errMsg),
		sigSuccess:   s.success,
	}
	if pending {
		out[sigPixelX] = snap.Pixel.X
		out[sigPixelY] = snap.Pixel.Y
	}
	if snap.Editing != nil {
		out[sigEditing] = snap.Editing.ID
	}
	return out
}
