package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// VizHandler previews styles as the editor form changes.
type VizHandler struct {
	humastar.Handler
}

func NewVizHandler(renderer *templates.Renderer) *VizHandler {
	return &VizHandler{Handler: humastar.Handler{Renderer: renderer}}
}

func (h *VizHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/editor/viz/preview", h.Preview, huma.OperationTags("editor"))
}

// numericParams are the helper parameters the form sends as numbers.
var numericParams = []string{"bins", "top", "duration", "fade_in", "fade_out"}

// textParams are passed through when non-empty.
var textParams = []string{"method", "palette", "size", "color", "opacity", "stroke_color", "stroke_width"}

// StyleSpecOf reads a style from editor signals: a raw program in "viz", or
// a helper named by "kind" with its parameters.
func StyleSpecOf(s humastar.Signals) service.StyleSpec {
	if program := s.String("viz"); program != "" {
		return service.StyleSpec{Viz: program}
	}
	spec := service.StyleSpec{Kind: s.String("kind"), Value: s.String("value")}
	params := map[string]any{}
	for _, k := range numericParams {
		if n := s.Int(k); n > 0 {
			params[k] = n
		}
	}
	for _, k := range textParams {
		if v := s.String(k); v != "" {
			params[k] = v
		}
	}
	if s.Bool("animate") {
		params["animate"] = true
	}
	if len(params) > 0 {
		spec.Params = params
	}
	return spec
}

func (h *VizHandler) Preview(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}

	return h.Stream(func(sse humastar.SSE) {
		g := geo.Point
		if name := signals.String("geomtype"); name != "" {
			if g, err = geo.ParseType(name); err != nil {
				h.fail(sse, err)
				return
			}
		}
		preview, err := service.PreviewStyle(StyleSpecOf(signals), g, viz.Presentation{
			Title: signals.String("title"),
		})
		if err != nil {
			h.fail(sse, err)
			return
		}
		html, _ := h.Renderer.Render("viz-preview", preview)
		sse.Patch(html, "#viz-preview")
		sse.Signals(map[string]any{"program": preview.Viz, "error": ""})
	}), nil
}

func (h *VizHandler) fail(sse humastar.SSE, err error) {
	html, _ := h.Renderer.Render("viz-error", err.Error())
	sse.Patch(html, "#viz-preview")
	sse.Error(err.Error())
}
