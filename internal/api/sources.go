package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/service"
)

type SourceNameInput struct {
	Name string `path:"name" doc:"Source file name" example:"stores.geojson"`
}

type SourcesOutput struct {
	Body []service.SourceFile
}

// RegisterSources registers source file routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Put(api, "/api/v1/sources/{name}", h.PutSource, huma.OperationTags("sources"))
	huma.Delete(api, "/api/v1/sources/{name}", h.DeleteSource, huma.OperationTags("sources"))
	huma.Register(api, huma.Operation{
		OperationID: "inspect-source",
		Method:      http.MethodPost,
		Path:        "/api/v1/sources/inspect",
		Summary:     "Resolve a source's geometry type, bounds and date columns",
		Tags:        []string{"sources"},
	}, h.InspectSource)
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*SourcesOutput, error) {
	if h.svc.Source == nil {
		return &SourcesOutput{Body: []service.SourceFile{}}, nil
	}
	files, err := h.svc.Source.List()
	if err != nil {
		return nil, h.apiError(err)
	}
	return &SourcesOutput{Body: files}, nil
}

func (h *APIHandler) PutSource(ctx context.Context, input *struct {
	SourceNameInput
	RawBody []byte `contentType:"application/geo+json"`
}) (*struct{ Body service.SourceFile }, error) {
	if h.svc.Source == nil {
		return nil, unavailable("source store")
	}
	saved, err := h.svc.Source.Save(input.Name, input.RawBody)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body service.SourceFile }{Body: saved}, nil
}

func (h *APIHandler) DeleteSource(ctx context.Context, input *SourceNameInput) (*struct{ Body MessageBody }, error) {
	if h.svc.Source == nil {
		return nil, unavailable("source store")
	}
	if err := h.svc.Source.Delete(input.Name); err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Source deleted"}}, nil
}

func (h *APIHandler) InspectSource(ctx context.Context, input *struct{ Body service.SourceSpec }) (*struct{ Body service.SourceInfo }, error) {
	if h.svc.Builder == nil {
		return nil, unavailable("layer builder")
	}
	info, err := h.svc.Builder.Inspect(ctx, input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body service.SourceInfo }{Body: info}, nil
}
