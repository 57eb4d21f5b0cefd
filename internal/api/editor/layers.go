package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

type LayerHandler struct {
	humastar.Handler
	layerService *service.LayerService
}

func NewLayerHandler(layerService *service.LayerService, renderer *templates.Renderer) *LayerHandler {
	return &LayerHandler{
		Handler:      humastar.Handler{Renderer: renderer},
		layerService: layerService,
	}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/layers", h.ListLayers, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/layers/{id}", h.DeleteLayer, huma.OperationTags("editor"))
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayerList(), "#layer-list")
	}), nil
}

type DeleteLayerInput struct {
	ID string `path:"id" doc:"Layer ID to delete"`
}

func (h *LayerHandler) DeleteLayer(ctx context.Context, input *DeleteLayerInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.layerService.Delete(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.RemoveElementByID("layer-" + input.ID)
		sse.Success("Layer deleted")
	}), nil
}

// LayerCardData is the layer-card template input.
type LayerCardData struct {
	ID     string
	Name   string
	Source string
	Kind   string
}

func cardOf(l service.LayerSpec) LayerCardData {
	src := l.Source.File
	if src == "" {
		src = "query"
	}
	kind := l.Style.Kind
	switch {
	case kind != "":
	case l.Style.Viz != "":
		kind = "viz"
	case len(l.Style.Props) > 0:
		kind = "properties"
	}
	return LayerCardData{ID: l.ID, Name: l.Label(), Source: src, Kind: kind}
}

func (h *LayerHandler) renderLayerList() string {
	layers := h.layerService.List()
	items := make([]any, len(layers))
	for i, l := range layers {
		items[i] = cardOf(l)
	}
	return h.RenderList("layer-card", items, "No layers configured", "Create a layer to get started")
}
