// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-rawan/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Markers *service.MarkerService
}

// Types

type IDInput struct {
	ID int64 `path:"id" doc:"Hazard location ID" example:"12"`
}

type MarkerOutput struct {
	Body service.Marker
}

type MarkersOutput struct {
	Body []service.Marker
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc  *Services
	auth *Authenticator
}

func NewAPIHandler(svc *Services, auth *Authenticator) *APIHandler {
	return &APIHandler{svc: svc, auth: auth}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services, auth *Authenticator) {
	huma.AutoRegister(api, NewAPIHandler(svc, auth))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMarkers registers hazard location CRUD routes. Reads need a
// viewer token, writes an admin token.
func (h *APIHandler) RegisterMarkers(api huma.API) {
	read := h.auth.Require(api, RoleViewer)
	write := h.auth.Require(api, RoleAdmin)

	huma.Get(api, "/lokasi-rawan", h.ListMarkers, huma.OperationTags("lokasi-rawan"), read)
	huma.Post(api, "/lokasi-rawan", h.CreateMarker, huma.OperationTags("lokasi-rawan"), write,
		func(o *huma.Operation) { o.DefaultStatus = 201 })
	huma.Get(api, "/lokasi-rawan.geojson", h.ExportGeoJSON, huma.OperationTags("lokasi-rawan"), read)
	huma.Get(api, "/lokasi-rawan/{id}", h.GetMarker, huma.OperationTags("lokasi-rawan"), read)
	huma.Put(api, "/lokasi-rawan/{id}", h.UpdateMarker, huma.OperationTags("lokasi-rawan"), write)
	huma.Delete(api, "/lokasi-rawan/{id}", h.DeleteMarker, huma.OperationTags("lokasi-rawan"), write)
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) ListMarkers(ctx context.Context, input *struct{}) (*MarkersOutput, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return &MarkersOutput{Body: []service.Marker{}}, nil
	}
	list, err := h.svc.Markers.List(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MarkersOutput{Body: list}, nil
}

func (h *APIHandler) CreateMarker(ctx context.Context, input *struct{ Body service.MarkerInput }) (*MarkerOutput, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	created, err := h.svc.Markers.Create(ctx, input.Body)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MarkerOutput{Body: created}, nil
}

func (h *APIHandler) GetMarker(ctx context.Context, input *IDInput) (*MarkerOutput, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	m, err := h.svc.Markers.Get(ctx, input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MarkerOutput{Body: m}, nil
}

func (h *APIHandler) UpdateMarker(ctx context.Context, input *struct {
	IDInput
	Body service.MarkerInput
}) (*MarkerOutput, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	updated, err := h.svc.Markers.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &MarkerOutput{Body: updated}, nil
}

func (h *APIHandler) DeleteMarker(ctx context.Context, input *IDInput) (*struct{}, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	if err := h.svc.Markers.Delete(ctx, input.ID); err != nil {
		return nil, toHTTPError(err)
	}
	return nil, nil
}

func (h *APIHandler) ExportGeoJSON(ctx context.Context, input *struct{}) (*GeoJSONOutput, error) {
	if h.svc == nil || h.svc.Markers == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	fc, err := h.svc.Markers.FeatureCollection(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("encode geojson", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}
