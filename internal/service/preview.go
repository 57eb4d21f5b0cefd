package service

import (
	"context"
	"fmt"

	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// Preview is a style compiled for one geometry type without a source.
type Preview struct {
	Viz           string                   `json:"viz" doc:"Compiled viz program"`
	Legends       []viz.LegendInfo         `json:"legends"`
	Interactivity []viz.InteractivityEvent `json:"interactivity"`
	Widgets       []viz.WidgetInfo         `json:"widgets"`
}

// PreviewStyle compiles a style spec for g with the presentation derived
// from p, the way NewLayer would for a source of that geometry.
func PreviewStyle(spec StyleSpec, g geo.Type, p viz.Presentation) (Preview, error) {
	style, err := CompileStyle(spec)
	if err != nil {
		return Preview{}, err
	}
	if style == nil {
		style = viz.DefaultStyle()
	}
	syn, err := viz.Synthesize(style, p)
	if err != nil {
		return Preview{}, err
	}
	program, err := style.Compile(g, syn.Variables())
	if err != nil {
		return Preview{}, err
	}

	out := Preview{
		Viz:           program,
		Legends:       []viz.LegendInfo{},
		Interactivity: viz.Interactivity(syn.Popups),
		Widgets:       []viz.WidgetInfo{},
	}
	if out.Interactivity == nil {
		out.Interactivity = []viz.InteractivityEvent{}
	}
	for _, l := range syn.Legends {
		if info, ok := l.Info(g); ok {
			out.Legends = append(out.Legends, info)
		}
	}
	for _, w := range syn.Widgets {
		out.Widgets = append(out.Widgets, w.Info())
	}
	return out, nil
}

// SourceInfo summarizes a source without building a layer.
type SourceInfo struct {
	Type        string      `json:"type" enum:"Query,GeoJSON"`
	GeomType    geo.Type    `json:"geomType" enum:"point,line,polygon"`
	Bounds      *geo.Bounds `json:"bounds,omitempty" doc:"Absent when the source has no geometries"`
	DateColumns []string    `json:"dateColumns"`
}

// Inspect opens a source and resolves its geometry type, bounds and date
// columns.
func (b *Builder) Inspect(ctx context.Context, spec SourceSpec) (SourceInfo, error) {
	src, err := b.Source(spec, nil)
	if err != nil {
		return SourceInfo{}, err
	}
	g, err := src.GeomType(ctx)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("resolving geometry type: %w", err)
	}
	if err := src.ComputeMetadata(ctx, nil); err != nil {
		return SourceInfo{}, fmt.Errorf("computing source metadata: %w", err)
	}
	dates := src.DateColumns()
	if dates == nil {
		dates = []string{}
	}
	info := SourceInfo{
		Type:        string(src.Type()),
		GeomType:    g,
		DateColumns: dates,
	}
	if bounds, ok := src.Bounds(); ok {
		info.Bounds = &bounds
	}
	return info, nil
}
