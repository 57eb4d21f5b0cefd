package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
type EventHandler struct {
	humastar.Handler
	bus    *service.EventBus
	layers *LayerHandler
}

// NewEventHandler creates an event handler. Layer changes re-render the
// layer list when layerService is set.
func NewEventHandler(bus *service.EventBus, layerService *service.LayerService, renderer *templates.Renderer) *EventHandler {
	h := &EventHandler{Handler: humastar.Handler{Renderer: renderer}, bus: bus}
	if layerService != nil {
		h.layers = NewLayerHandler(layerService, renderer)
	}
	return h
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events, huma.OperationTags("editor"))
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		for ev := range h.bus.Subscribe(ctx) {
			if ev.Resource == service.ResourceLayers && h.layers != nil {
				sse.Patch(h.layers.renderLayerList(), "#layer-list")
			}
			sse.DispatchCustomEvent("resource-changed", map[string]any{
				"resource": ev.Resource,
				"action":   ev.Action,
				"id":       ev.ID,
			})
		}
	}), nil
}
