package viz

import (
	"context"
	"fmt"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/source"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// LayerOptions configure layer assembly. A nil Style uses DefaultStyle; a
// nil Bounds uses the source extent; nil Credentials use the source's.
// MapIndex is reported by standalone maps; a Layout reports the position of
// the map instead.
type LayerOptions struct {
	Style *Style
	Presentation
	Credentials *source.Credentials
	Bounds      *geo.Bounds
	MapIndex    int
}

// DefinitionOptions are renderer options for the layer source.
type DefinitionOptions struct {
	DateColumns []string `json:"dateColumns,omitempty" doc:"Columns the renderer parses as dates"`
}

// Definition is the renderer-facing layer record.
type Definition struct {
	Credentials   *source.Credentials  `json:"credentials"`
	Interactivity []InteractivityEvent `json:"interactivity"`
	Legends       []LegendInfo         `json:"legends"`
	Widgets       []WidgetInfo         `json:"widgets"`
	Data          any                  `json:"data" doc:"Query text or GeoJSON feature collection"`
	Type          source.Kind          `json:"type" enum:"Query,GeoJSON"`
	Title         string               `json:"title,omitempty"`
	Options       DefinitionOptions    `json:"options"`
	Viz           string               `json:"viz" doc:"Compiled viz program"`
	MapIndex      int                  `json:"map_index"`
	Bounds        geo.Bounds           `json:"bounds"`
}

// Layer is a compiled source and style pair.
type Layer struct {
	src       source.Source
	style     *Style
	geomType  geo.Type
	synth     Synthesis
	def       Definition
	mapIndex  int
	hasBounds bool
}

// NewLayer inspects the source, resolves legends, popups and widgets,
// compiles the style and freezes the layer definition.
func NewLayer(ctx context.Context, src source.Source, o LayerOptions) (*Layer, error) {
	if src == nil {
		return nil, errdefs.Invalid("source", "<nil>")
	}
	style := o.Style
	if style == nil {
		style = DefaultStyle()
	}

	g, err := src.GeomType(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving geometry type: %w", err)
	}

	syn, err := Synthesize(style, o.Presentation)
	if err != nil {
		return nil, err
	}

	program, err := style.Compile(g, syn.Variables())
	if err != nil {
		return nil, err
	}

	columns := append(expr.Columns(program), syn.Columns()...)
	if err := src.ComputeMetadata(ctx, dedupe(columns)); err != nil {
		return nil, fmt.Errorf("computing source metadata: %w", err)
	}

	bounds, hasBounds := src.Bounds()
	if o.Bounds != nil {
		bounds, hasBounds = *o.Bounds, true
	}
	creds := src.Credentials()
	if o.Credentials != nil {
		creds = o.Credentials
	}

	l := &Layer{src: src, style: style, geomType: g, synth: syn, mapIndex: o.MapIndex, hasBounds: hasBounds}
	l.def = Definition{
		Credentials:   creds,
		Interactivity: Interactivity(syn.Popups),
		Legends:       legendInfos(syn.Legends, g),
		Widgets:       widgetInfos(syn.Widgets),
		Data:          src.Data(),
		Type:          src.Type(),
		Title:         o.Title,
		Options:       DefinitionOptions{DateColumns: src.DateColumns()},
		Viz:           program,
		Bounds:        bounds,
	}
	return l, nil
}

func legendInfos(legends []*Legend, g geo.Type) []LegendInfo {
	infos := []LegendInfo{}
	for _, l := range legends {
		if info, ok := l.Info(g); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func widgetInfos(widgets []*Widget) []WidgetInfo {
	infos := make([]WidgetInfo, len(widgets))
	for i, w := range widgets {
		infos[i] = w.Info()
	}
	return infos
}

func dedupe(cols []string) []string {
	out := make([]string, 0, len(cols))
	seen := map[string]bool{}
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (l *Layer) Source() source.Source { return l.src }
func (l *Layer) Style() *Style         { return l.style }
func (l *Layer) GeomType() geo.Type    { return l.geomType }
func (l *Layer) Viz() string           { return l.def.Viz }
func (l *Layer) MapIndex() int         { return l.mapIndex }
func (l *Layer) Synthesis() Synthesis  { return l.synth }
func (l *Layer) HasLegends() bool      { return len(l.def.Legends) > 0 }
func (l *Layer) HasWidgets() bool      { return len(l.def.Widgets) > 0 }

// Bounds returns the layer extent and whether the source had one.
func (l *Layer) Bounds() (geo.Bounds, bool) { return l.def.Bounds, l.hasBounds }

// Definition returns the frozen layer record.
func (l *Layer) Definition() Definition {
	d := l.def
	d.MapIndex = l.mapIndex
	if d.Interactivity == nil {
		d.Interactivity = []InteractivityEvent{}
	}
	return d
}
