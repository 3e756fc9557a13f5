package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-rawan/internal/humastar"
	"github.com/joeblew999/plat-rawan/internal/service"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
// The page reloads its markers on each resource-changed event, so edits
// made elsewhere (CLI, another browser) show up without polling.
type EventHandler struct {
	humastar.Handler
	bus *service.EventBus
}

// NewEventHandler creates a new event handler.
func NewEventHandler(bus *service.EventBus) *EventHandler {
	return &EventHandler{bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.QueryInput) (*huma.StreamResponse, error) {
	if h.bus == nil {
		return nil, huma.Error503ServiceUnavailable("event bus not available")
	}
	sub := h.bus.Subscribe()

	return h.Stream(func(sse humastar.SSE) {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				sse.DispatchCustomEvent("resource-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}
