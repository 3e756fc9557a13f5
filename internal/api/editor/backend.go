package editor

import (
	"context"
	"errors"
	"net/http"

	"github.com/joeblew999/plat-rawan/internal/api"
	"github.com/joeblew999/plat-rawan/internal/markers"
	"github.com/joeblew999/plat-rawan/internal/service"
	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

// serviceBackend serves a markers.Store from the in-process service,
// applying the same role rules and error statuses as the REST API.
type serviceBackend struct {
	svc  *service.MarkerService
	role api.Role
}

func (b serviceBackend) List(ctx context.Context) ([]markers.Marker, error) {
	if err := b.allow(api.RoleViewer); err != nil {
		return nil, err
	}
	list, err := b.svc.List(ctx)
	if err != nil {
		return nil, asAPIError(err)
	}
	out := make([]markers.Marker, len(list))
	for i, m := range list {
		out[i] = markers.Marker(m)
	}
	return out, nil
}

func (b serviceBackend) Create(ctx context.Context, in rawanclient.MarkerInput) (markers.Marker, error) {
	if err := b.allow(api.RoleAdmin); err != nil {
		return markers.Marker{}, err
	}
	m, err := b.svc.Create(ctx, service.MarkerInput(in))
	if err != nil {
		return markers.Marker{}, asAPIError(err)
	}
	return markers.Marker(m), nil
}

func (b serviceBackend) Update(ctx context.Context, id int64, in rawanclient.MarkerInput) (markers.Marker, error) {
	if err := b.allow(api.RoleAdmin); err != nil {
		return markers.Marker{}, err
	}
	m, err := b.svc.Update(ctx, id, service.MarkerInput(in))
	if err != nil {
		return markers.Marker{}, asAPIError(err)
	}
	return markers.Marker(m), nil
}

func (b serviceBackend) Delete(ctx context.Context, id int64) error {
	if err := b.allow(api.RoleAdmin); err != nil {
		return err
	}
	if err := b.svc.Delete(ctx, id); err != nil {
		return asAPIError(err)
	}
	return nil
}

func (b serviceBackend) allow(need api.Role) error {
	switch {
	case b.role == api.RoleNone:
		return &rawanclient.APIError{Status: http.StatusUnauthorized, Message: "missing or invalid bearer token"}
	case b.role < need:
		return &rawanclient.APIError{Status: http.StatusForbidden, Message: "insufficient permission for this operation"}
	}
	return nil
}

func asAPIError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return &rawanclient.APIError{Status: http.StatusNotFound, Message: "hazard location not found"}
	case errors.As(err, &verr):
		return &rawanclient.APIError{Status: http.StatusBadRequest, Message: verr.Error()}
	}
	return err
}
