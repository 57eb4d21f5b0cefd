package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// CompileBody compiles a style without a source.
type CompileBody struct {
	service.StyleSpec
	GeomType    string `json:"geomType,omitempty" enum:"point,line,polygon" default:"point" doc:"Geometry type to compile for"`
	Title       string `json:"title,omitempty" doc:"Layer title used by default legends, popups and widgets"`
	Description string `json:"description,omitempty"`
	Footer      string `json:"footer,omitempty"`
}

// LayoutBody arranges several maps in a grid.
type LayoutBody struct {
	Maps    []service.MapSpec `json:"maps" minItems:"1"`
	Columns int               `json:"columns,omitempty" minimum:"0" doc:"Maps per row; 0 puts every map in one row"`
}

// RegisterViz registers the compile, map and layout routes.
func (h *APIHandler) RegisterViz(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "compile-style",
		Method:      http.MethodPost,
		Path:        "/api/v1/viz/compile",
		Summary:     "Compile a style helper, viz program or property map",
		Tags:        []string{"viz"},
	}, h.CompileStyle)
	huma.Register(api, huma.Operation{
		OperationID: "build-map",
		Method:      http.MethodPost,
		Path:        "/api/v1/maps",
		Summary:     "Build a map definition from stored layers",
		Tags:        []string{"viz"},
	}, h.BuildMap)
	huma.Register(api, huma.Operation{
		OperationID: "build-layout",
		Method:      http.MethodPost,
		Path:        "/api/v1/layouts",
		Summary:     "Build a grid of maps",
		Tags:        []string{"viz"},
	}, h.BuildLayout)
}

func (h *APIHandler) CompileStyle(ctx context.Context, input *struct{ Body CompileBody }) (*struct{ Body service.Preview }, error) {
	b := input.Body
	g := geo.Point
	if b.GeomType != "" {
		var err error
		if g, err = geo.ParseType(b.GeomType); err != nil {
			return nil, h.apiError(err)
		}
	}
	preview, err := service.PreviewStyle(b.StyleSpec, g, viz.Presentation{
		Title:       b.Title,
		Description: b.Description,
		Footer:      b.Footer,
	})
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body service.Preview }{Body: preview}, nil
}

func (h *APIHandler) BuildMap(ctx context.Context, input *struct{ Body service.MapSpec }) (*struct{ Body viz.MapDefinition }, error) {
	if h.svc.Builder == nil {
		return nil, unavailable("layer builder")
	}
	m, err := h.svc.Builder.Map(ctx, input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body viz.MapDefinition }{Body: m.Definition()}, nil
}

func (h *APIHandler) BuildLayout(ctx context.Context, input *struct{ Body LayoutBody }) (*struct{ Body viz.LayoutDefinition }, error) {
	if h.svc.Builder == nil {
		return nil, unavailable("layer builder")
	}
	maps := make([]*viz.Map, 0, len(input.Body.Maps))
	for i, spec := range input.Body.Maps {
		m, err := h.svc.Builder.Map(ctx, spec)
		if err != nil {
			return nil, h.apiError(fmt.Errorf("map %d: %w", i, err))
		}
		maps = append(maps, m)
	}
	layout, err := viz.NewLayout(maps, input.Body.Columns)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body viz.LayoutDefinition }{Body: layout.Definition()}, nil
}
