package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/viz"
)

type InfoHandler struct {
	dataDir string
	dbOK    bool
	catalog bool
}

func NewInfoHandler(svc *Services) *InfoHandler {
	h := &InfoHandler{dbOK: svc.DB != nil, catalog: svc.Catalog != nil}
	if svc.Source != nil {
		h.dataDir = svc.Source.SourcesDir()
	}
	return h
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name        string   `json:"name" doc:"Service name"`
	Version     string   `json:"version" doc:"Service version"`
	SourcesDir  string   `json:"sources_dir,omitempty" doc:"Source files directory"`
	DB          bool     `json:"db" doc:"Whether the database is available"`
	Catalog     bool     `json:"catalog" doc:"Whether the data catalog is available"`
	StyleKinds  []string `json:"style_kinds" doc:"Style helpers the compiler accepts"`
	LegendTypes []string `json:"legend_types"`
	WidgetTypes []string `json:"widget_types"`
	Basemaps    []string `json:"basemaps"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:        "plat-carto",
		Version:     Version,
		SourcesDir:  h.dataDir,
		DB:          h.dbOK,
		Catalog:     h.catalog,
		StyleKinds:  viz.StyleKindNames(),
		LegendTypes: viz.LegendTypes,
		WidgetTypes: viz.WidgetTypes,
		Basemaps:    viz.Basemaps,
	}}, nil
}
