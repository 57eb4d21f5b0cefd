package viz

import (
	"slices"
	"strings"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

// LegendTypes are the accepted legend types.
var LegendTypes = []string{
	"basic",
	"default",
	"color-bins",
	"color-bins-line",
	"color-bins-point",
	"color-bins-polygon",
	"color-category",
	"color-category-line",
	"color-category-point",
	"color-category-polygon",
	"color-continuous",
	"color-continuous-line",
	"color-continuous-point",
	"color-continuous-polygon",
	"size-bins",
	"size-bins-line",
	"size-bins-point",
	"size-category",
	"size-category-line",
	"size-category-point",
	"size-continuous",
	"size-continuous-line",
	"size-continuous-point",
}

// LegendProps maps the accepted legend prop names to the viz property the
// legend reads.
var LegendProps = map[string]string{
	"color":        "color",
	"stroke_color": "strokeColor",
	"size":         "width",
	"stroke_width": "strokeWidth",
}

func legendPropNames() []string {
	return []string{"color", "stroke_color", "size", "stroke_width"}
}

// LegendOptions describe a legend. Either Type or Types (one type per
// geometry) is set.
type LegendOptions struct {
	Type        string
	Types       map[geo.Type]string
	Prop        string
	Title       string
	Description string
	Footer      string
	Dynamic     bool
	Variable    string
}

// Legend describes how the renderer draws a layer legend.
type Legend struct {
	typ   string
	types map[geo.Type]string
	prop  string
	opts  LegendOptions
}

// NewLegend validates the type and prop. When no prop is given it is
// inferred from the type: color types read color, size types read width.
func NewLegend(o LegendOptions) (*Legend, error) {
	if o.Type == "" && len(o.Types) == 0 {
		o.Type = "default"
	}
	if o.Type != "" && !slices.Contains(LegendTypes, o.Type) {
		return nil, errdefs.Invalid("legend type", o.Type, LegendTypes...)
	}
	for g, t := range o.Types {
		if !g.Valid() {
			return nil, errdefs.Invalid("geometry type", string(g), typeNames()...)
		}
		if !slices.Contains(LegendTypes, t) {
			return nil, errdefs.Invalid("legend type", t, LegendTypes...)
		}
	}

	l := &Legend{typ: o.Type, types: o.Types, opts: o}
	switch {
	case o.Prop != "":
		prop, ok := LegendProps[o.Prop]
		if !ok {
			return nil, errdefs.Invalid("legend prop", o.Prop, legendPropNames()...)
		}
		l.prop = prop
	default:
		l.prop = inferProp(l.anyType())
	}
	return l, nil
}

func (l *Legend) anyType() string {
	if l.typ != "" {
		return l.typ
	}
	for _, g := range geo.Types {
		if t, ok := l.types[g]; ok {
			return t
		}
	}
	return ""
}

func inferProp(typ string) string {
	switch {
	case strings.HasPrefix(typ, "color"):
		return "color"
	case strings.HasPrefix(typ, "size"):
		return "width"
	}
	return ""
}

// Prop is the viz property the legend reads.
func (l *Legend) Prop() string { return l.prop }

// Type is the legend type for geometry g.
func (l *Legend) Type(g geo.Type) (string, bool) {
	if l.typ != "" {
		return l.typ, true
	}
	t, ok := l.types[g]
	return t, ok
}

// LegendInfo is the renderer-facing legend record.
type LegendInfo struct {
	Type        string `json:"type" doc:"Legend type"`
	Prop        string `json:"prop,omitempty" doc:"Viz property the legend reads"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Dynamic     bool   `json:"dynamic" doc:"Whether the legend updates with the viewport"`
	Variable    string `json:"variable,omitempty" doc:"Variable the legend reads instead of prop"`
}

// Info renders the legend for geometry g. It reports false when the
// legend has no type for g.
func (l *Legend) Info(g geo.Type) (LegendInfo, bool) {
	t, ok := l.Type(g)
	if !ok {
		return LegendInfo{}, false
	}
	return LegendInfo{
		Type:        t,
		Prop:        l.prop,
		Title:       l.opts.Title,
		Description: l.opts.Description,
		Footer:      l.opts.Footer,
		Dynamic:     l.opts.Dynamic,
		Variable:    l.opts.Variable,
	}, true
}
