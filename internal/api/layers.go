package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/viz"
)

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"stores"`
}

// LayerBody is a stored layer with its hypermedia actions.
type LayerBody struct {
	service.LayerSpec
}

var layerActions = []humastar.ActionDef{
	{Rel: "definition", Pattern: "/api/v1/layers/%s/definition", Method: http.MethodGet, Title: "Compile layer"},
	{Rel: "edit", Pattern: "/api/v1/layers/%s", Method: http.MethodPut},
	{Rel: "delete", Pattern: "/api/v1/layers/%s", Method: http.MethodDelete},
}

func (b LayerBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, layerActions)
}

type LayerOutput struct {
	Body LayerBody
}

type LayersOutput struct {
	Body []service.LayerSpec
}

type DefinitionOutput struct {
	Body viz.Definition
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers layer CRUD routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-layer",
		Method:        http.MethodPost,
		Path:          "/api/v1/layers",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"layers"},
	}, h.CreateLayer)
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}", h.PutLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}/definition", h.GetLayerDefinition, huma.OperationTags("layers"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	if h.svc.Layer == nil {
		return &LayersOutput{Body: []service.LayerSpec{}}, nil
	}
	return &LayersOutput{Body: h.svc.Layer.List()}, nil
}

func (h *APIHandler) CreateLayer(ctx context.Context, input *struct{ Body service.LayerSpec }) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, unavailable("layer store")
	}
	created, err := h.svc.Layer.Create(input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	h.logger.Info("layer created", "id", created.ID)
	return &LayerOutput{Body: LayerBody{created}}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, unavailable("layer store")
	}
	layer, err := h.svc.Layer.Get(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &LayerOutput{Body: LayerBody{layer}}, nil
}

func (h *APIHandler) PutLayer(ctx context.Context, input *struct {
	IDInput
	Body service.LayerSpec
}) (*LayerOutput, error) {
	if h.svc.Layer == nil {
		return nil, unavailable("layer store")
	}
	updated, err := h.svc.Layer.Update(input.ID, input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &LayerOutput{Body: LayerBody{updated}}, nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if h.svc.Layer == nil {
		return nil, unavailable("layer store")
	}
	if err := h.svc.Layer.Delete(input.ID); err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) GetLayerDefinition(ctx context.Context, input *IDInput) (*DefinitionOutput, error) {
	if h.svc.Builder == nil {
		return nil, unavailable("layer builder")
	}
	l, err := h.svc.Builder.Stored(ctx, input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &DefinitionOutput{Body: l.Definition()}, nil
}
