package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	storage string
	auth    *Authenticator
}

func NewInfoHandler(storage string, auth *Authenticator) *InfoHandler {
	return &InfoHandler{storage: storage, auth: auth}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Storage  string   `json:"storage" doc:"Marker storage backend" enum:"file,duckdb"`
	Auth     bool     `json:"auth" doc:"Whether bearer tokens are required"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-rawan",
		Version:  "0.1.0",
		Storage:  h.storage,
		Auth:     h.auth.Enabled(),
		Features: []string{"lokasi-rawan", "geojson", "editor", h.storage},
	}}, nil
}
