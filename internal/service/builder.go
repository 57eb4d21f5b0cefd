package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/source"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// Builder turns layer and map specs into compiled viz layers and maps.
type Builder struct {
	layers  *LayerService
	sources *SourceService
	db      *sql.DB
	logger  *slog.Logger
}

// NewBuilder creates a builder. Stored layers need layers; file sources
// need sources; query sources need db. Any of them may be nil when the
// caller never needs it.
func NewBuilder(layers *LayerService, sources *SourceService, db *sql.DB, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{layers: layers, sources: sources, db: db, logger: logger}
}

// Layer resolves the spec's source, style and presentation and assembles
// the layer.
func (b *Builder) Layer(ctx context.Context, spec LayerSpec) (*viz.Layer, error) {
	src, err := b.Source(spec.Source, spec.Credentials)
	if err != nil {
		return nil, err
	}
	style, err := CompileStyle(spec.Style)
	if err != nil {
		return nil, err
	}
	p, err := PresentationOf(spec)
	if err != nil {
		return nil, err
	}

	l, err := viz.NewLayer(ctx, src, viz.LayerOptions{
		Style:        style,
		Presentation: p,
		Credentials:  spec.Credentials,
		Bounds:       spec.Bounds,
		MapIndex:     spec.MapIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", spec.Label(), err)
	}
	b.logger.Debug("built layer", "layer", spec.Label(), "geom", l.GeomType(), "source", src.Type())
	return l, nil
}

// Stored builds the stored layer with the given ID.
func (b *Builder) Stored(ctx context.Context, id string) (*viz.Layer, error) {
	if b.layers == nil {
		return nil, errdefs.Unsupported("stored layers without a layer store")
	}
	spec, err := b.layers.Get(id)
	if err != nil {
		return nil, err
	}
	return b.Layer(ctx, spec)
}

// Map builds a map over stored layers.
func (b *Builder) Map(ctx context.Context, spec MapSpec) (*viz.Map, error) {
	layers := make([]*viz.Layer, 0, len(spec.Layers))
	for _, id := range spec.Layers {
		l, err := b.Stored(ctx, id)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return viz.NewMap(layers, spec.Options())
}

// MapOf builds a map over inline layer specs.
func (b *Builder) MapOf(ctx context.Context, specs []LayerSpec, o viz.MapOptions) (*viz.Map, error) {
	layers := make([]*viz.Layer, 0, len(specs))
	for _, spec := range specs {
		l, err := b.Layer(ctx, spec)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return viz.NewMap(layers, o)
}

// Source opens a file through the source service or wraps a query.
func (b *Builder) Source(spec SourceSpec, creds *source.Credentials) (source.Source, error) {
	var opts []source.Option
	if creds != nil {
		opts = append(opts, source.WithCredentials(creds))
	}
	if spec.GeomColumn != "" {
		opts = append(opts, source.WithGeomColumn(spec.GeomColumn))
	}

	switch {
	case spec.File != "" && spec.Query != "":
		return nil, fmt.Errorf("%w: layer source sets both file and query", errdefs.ErrValidation)
	case spec.File != "":
		if b.sources == nil {
			return nil, errdefs.Unsupported("file sources without a sources directory")
		}
		return b.sources.Open(spec.File, opts...)
	case spec.Query != "":
		if b.db == nil {
			return nil, errdefs.Unsupported("query sources without a database")
		}
		return source.NewSQL(b.db, spec.Query, opts...), nil
	}
	return nil, errdefs.Invalid("layer source", "", "file", "query")
}

// CompileStyle resolves a style spec. At most one of a helper kind, a raw
// program or a property map may be set; none means the default style.
func CompileStyle(spec StyleSpec) (*viz.Style, error) {
	set := 0
	for _, on := range []bool{spec.Kind != "", spec.Viz != "", len(spec.Props) > 0} {
		if on {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: style sets more than one of kind, viz and props", errdefs.ErrValidation)
	}

	switch {
	case spec.Kind != "":
		kind, err := viz.ParseStyleKind(spec.Kind)
		if err != nil {
			return nil, err
		}
		return viz.Compile(kind, spec.Value, spec.Params)
	case spec.Viz != "":
		return viz.ParseStyle(spec.Viz)
	case len(spec.Props) > 0:
		return viz.StyleFromMap(spec.Props)
	}
	return nil, nil
}

// PresentationOf converts the spec's texts and legend, popup and widget
// settings. Explicit entries win over the on/off flags.
func PresentationOf(spec LayerSpec) (viz.Presentation, error) {
	p := viz.Presentation{
		Title:       spec.Title,
		Description: spec.Description,
		Footer:      spec.Footer,
	}

	legends, err := buildAll(spec.Legends, "legend", func(l LegendSpec) (*viz.Legend, error) {
		return viz.NewLegend(viz.LegendOptions{
			Type:        l.Type,
			Prop:        l.Prop,
			Title:       l.Title,
			Description: l.Description,
			Footer:      l.Footer,
			Dynamic:     l.Dynamic,
			Variable:    l.Variable,
		})
	})
	if err != nil {
		return p, err
	}
	p.Legends = setting(legends, spec.Legend)

	popups, err := buildAll(spec.Popups, "popup", func(o PopupSpec) (*viz.Popup, error) {
		return viz.NewPopup(viz.PopupOptions{
			Event:     viz.PopupEvent(o.Event),
			Value:     o.Value,
			Title:     o.Title,
			Format:    o.Format,
			Operation: o.Operation,
		})
	})
	if err != nil {
		return p, err
	}
	p.Popups = setting(popups, spec.Popup)

	widgets, err := buildAll(spec.Widgets, "widget", func(w WidgetSpec) (*viz.Widget, error) {
		return viz.NewWidget(viz.WidgetOptions{
			Type:        w.Type,
			Value:       w.Value,
			Title:       w.Title,
			Description: w.Description,
			Footer:      w.Footer,
			Prop:        w.Prop,
			ReadOnly:    w.ReadOnly,
			Buckets:     w.Buckets,
			Weight:      w.Weight,
			Operation:   w.Operation,
			Global:      w.Global,
			Duration:    w.Duration,
			FadeIn:      w.FadeIn,
			FadeOut:     w.FadeOut,
		})
	})
	if err != nil {
		return p, err
	}
	p.Widgets = setting(widgets, spec.Widget)
	return p, nil
}

func buildAll[S, T any](specs []S, what string, build func(S) (T, error)) ([]T, error) {
	out := make([]T, 0, len(specs))
	for i, s := range specs {
		v, err := build(s)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", what, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func setting[T any](explicit []T, enabled *bool) viz.Setting[[]T] {
	switch {
	case len(explicit) > 0:
		return viz.Explicit(explicit)
	case enabled != nil && !*enabled:
		return viz.Off[[]T]()
	}
	return viz.Default[[]T]()
}
