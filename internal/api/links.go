package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-rawan/internal/humastar"
	"github.com/joeblew999/plat-rawan/internal/service"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</lokasi-rawan>; rel="lokasi-rawan"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/storage>; rel="storage"`,
		`</lokasi-rawan>; rel="lokasi-rawan"`,
	},
	"/api/v1/storage": {
		`</api/v1/info>; rel="info"`,
	},
	"/lokasi-rawan": {
		`</lokasi-rawan.geojson>; rel="alternate"; type="application/geo+json"`,
	},
	"/lokasi-rawan/{id}": {
		`</lokasi-rawan>; rel="collection"`,
	},
	"/lokasi-rawan.geojson": {
		`</lokasi-rawan>; rel="alternate"; type="application/json"`,
	},
}

// markerActions are advertised on every hazard location response.
var markerActions = []humastar.ActionDef{
	{Rel: "edit", Pattern: "/lokasi-rawan/%d", Method: "PUT", Title: "Edit hazard location", Schema: "/schemas/MarkerInput.json"},
	{Rel: "delete", Pattern: "/lokasi-rawan/%d", Method: "DELETE", Title: "Delete hazard location"},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if m, ok := v.(service.Marker); ok {
			for _, a := range humastar.ActionsFor(m.ID, markerActions) {
				ctx.AppendHeader("Link", a.LinkHeader())
			}
		}

		return v, nil
	}
}
