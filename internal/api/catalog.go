package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/catalog"
	"github.com/joeblew999/plat-carto/internal/humastar"
)

type CatalogEntityInput struct {
	Entity string `path:"entity" enum:"categories,countries,datasets,geographies,providers,variables" doc:"Catalog entity"`
}

type CatalogListInput struct {
	CatalogEntityInput
	Country   string `query:"country" doc:"Filter by country ID"`
	Category  string `query:"category" doc:"Filter by category ID"`
	Provider  string `query:"provider" doc:"Filter by provider ID"`
	Geography string `query:"geography" doc:"Filter by geography ID"`
	Dataset   string `query:"dataset" doc:"Filter by dataset ID"`
	Offset    int    `query:"offset" minimum:"0" default:"0"`
	Limit     int    `query:"limit" minimum:"1" maximum:"1000" default:"100"`
}

// Filters returns the non-empty relation filters.
func (in *CatalogListInput) Filters() catalog.Filters {
	f := catalog.Filters{}
	for k, v := range map[string]string{
		"country":   in.Country,
		"category":  in.Category,
		"provider":  in.Provider,
		"geography": in.Geography,
		"dataset":   in.Dataset,
	} {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

type CatalogRowInput struct {
	CatalogEntityInput
	ID string `path:"id" doc:"Row ID"`
}

type CatalogRelationInput struct {
	CatalogRowInput
	Relation string `path:"relation" doc:"Relation name, such as datasets or geography" example:"datasets"`
}

type CatalogPageOutput struct {
	Body humastar.PageBody[map[string]any]
}

// RegisterCatalog registers the catalog browsing routes.
func (h *APIHandler) RegisterCatalog(api huma.API) {
	huma.Get(api, "/api/v1/catalog/{entity}", h.ListCatalog, huma.OperationTags("catalog"))
	huma.Get(api, "/api/v1/catalog/{entity}/{id}", h.GetCatalogRow, huma.OperationTags("catalog"))
	huma.Get(api, "/api/v1/catalog/{entity}/{id}/{relation}", h.GetCatalogRelation, huma.OperationTags("catalog"))
}

func (h *APIHandler) ListCatalog(ctx context.Context, input *CatalogListInput) (*CatalogPageOutput, error) {
	if h.svc.Catalog == nil {
		return nil, unavailable("catalog")
	}
	rows, err := h.svc.Catalog.List(ctx, input.Entity, input.Filters())
	if err != nil {
		return nil, h.apiError(err)
	}
	return &CatalogPageOutput{Body: humastar.NewPage(rows, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetCatalogRow(ctx context.Context, input *CatalogRowInput) (*struct{ Body map[string]any }, error) {
	if h.svc.Catalog == nil {
		return nil, unavailable("catalog")
	}
	row, err := h.svc.Catalog.Lookup(ctx, input.Entity, input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body map[string]any }{Body: row}, nil
}

func (h *APIHandler) GetCatalogRelation(ctx context.Context, input *CatalogRelationInput) (*CatalogPageOutput, error) {
	if h.svc.Catalog == nil {
		return nil, unavailable("catalog")
	}
	rows, err := h.svc.Catalog.RelatedRows(ctx, input.Entity, input.ID, input.Relation)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &CatalogPageOutput{Body: humastar.NewPage(rows, 0, 0)}, nil
}
