package viz

import (
	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// Cluster selects the per-cell aggregation of cluster styles. Operation
// defaults to count; Resolution is the cell size in pixels.
type Cluster struct {
	Operation  string  `mapstructure:"operation" json:"operation,omitempty"`
	Resolution float64 `mapstructure:"resolution" json:"resolution,omitempty"`
}

func (c Cluster) resolve(kind StyleKind, value string) (expr.Aggregation, float64, error) {
	op, err := expr.ParseAggregation(c.Operation)
	if err != nil {
		return 0, 0, err
	}
	if op != expr.Count {
		if err := requireValue(kind, value); err != nil {
			return 0, 0, err
		}
	}
	res := c.Resolution
	if res == 0 {
		res = defaultResolution
	}
	if res < 0 || res > maxResolution {
		return 0, 0, errdefs.Invalid("resolution", expr.Number(res))
	}
	return op, res, nil
}

// ClusterSizeOptions configure a cluster-size style.
type ClusterSizeOptions struct {
	Cluster `mapstructure:",squash"`
	Color   string `mapstructure:"color" json:"color,omitempty"`
	Opacity string `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke  `mapstructure:",squash"`
}

// ClusterSize aggregates points into grid cells sized by the aggregate.
func ClusterSize(value string, o ClusterSizeOptions) (*Style, error) {
	op, res, err := o.Cluster.resolve(KindClusterSize, value)
	if err != nil {
		return nil, err
	}
	agg := op.Cluster(value)
	width := expr.Ramp(
		expr.Linear(agg, expr.ViewportMin(agg), expr.ViewportMax(agg)),
		expr.Numbers([]float64{res / 8, res / 2, res}),
	)
	color := expr.Opacity(expr.Or(o.Color, expr.ClusterColor), expr.Or(o.Opacity, expr.AggregatedOpacity))
	decls := clusterDecls(color, width, res, o.Stroke)
	return newHelperStyle(decls, clusterHelper(KindClusterSize, value, "size-continuous-point", op, agg))
}

// ClusterColorBinsOptions configure a cluster-color-bins style.
type ClusterColorBinsOptions struct {
	Cluster `mapstructure:",squash"`
	Method  string       `mapstructure:"method" json:"method,omitempty"`
	Bins    int          `mapstructure:"bins" json:"bins,omitempty"`
	Breaks  []float64    `mapstructure:"breaks" json:"breaks,omitempty"`
	Palette expr.Palette `mapstructure:"palette" json:"-"`
	Size    string       `mapstructure:"size" json:"size,omitempty"`
	Opacity string       `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke  `mapstructure:",squash"`
}

// ClusterColorBins aggregates points into grid cells colored by
// classifying the aggregate over the viewport.
func ClusterColorBins(value string, o ClusterColorBinsOptions) (*Style, error) {
	op, res, err := o.Cluster.resolve(KindClusterColorBins, value)
	if err != nil {
		return nil, err
	}
	agg := op.Cluster(value)
	classifier, palette, err := classify(agg, o.Method, o.Bins, o.Breaks, true)
	if err != nil {
		return nil, err
	}
	color := expr.Opacity(expr.Ramp(classifier, o.Palette.Or(palette)), expr.Or(o.Opacity, expr.AggregatedOpacity))
	decls := clusterDecls(color, expr.Value(o.Size, geo.Point, "width"), res, o.Stroke)
	return newHelperStyle(decls, clusterHelper(KindClusterColorBins, value, "color-bins-point", op, agg))
}

// ClusterColorContinuousOptions configure a cluster-color-continuous style.
type ClusterColorContinuousOptions struct {
	Cluster `mapstructure:",squash"`
	Palette expr.Palette `mapstructure:"palette" json:"-"`
	Size    string       `mapstructure:"size" json:"size,omitempty"`
	Opacity string       `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke  `mapstructure:",squash"`
}

// ClusterColorContinuous aggregates points into grid cells colored along a
// continuous palette between the viewport extremes of the aggregate.
func ClusterColorContinuous(value string, o ClusterColorContinuousOptions) (*Style, error) {
	op, res, err := o.Cluster.resolve(KindClusterColorContinuous, value)
	if err != nil {
		return nil, err
	}
	agg := op.Cluster(value)
	linear := expr.Linear(agg, expr.ViewportMin(agg), expr.ViewportMax(agg))
	color := expr.Opacity(expr.Ramp(linear, o.Palette.Or("bluyl")), expr.Or(o.Opacity, expr.AggregatedOpacity))
	decls := clusterDecls(color, expr.Value(o.Size, geo.Point, "width"), res, o.Stroke)
	return newHelperStyle(decls, clusterHelper(KindClusterColorContinuous, value, "color-continuous-point", op, agg))
}

func clusterDecls(color, width string, res float64, st Stroke) map[geo.Type]Declarations {
	return map[geo.Type]Declarations{
		geo.Point: {Props: map[string]string{
			"color":       color,
			"width":       width,
			"strokeColor": expr.Value(st.StrokeColor, geo.Point, "strokeColor"),
			"strokeWidth": expr.Value(st.StrokeWidth, geo.Point, "strokeWidth"),
			"resolution":  expr.Number(res),
		}},
	}
}

// clusterHelper shows the aggregate in popups and a viewport formula
// widget. Legends follow the viewport, so they are dynamic.
func clusterHelper(kind StyleKind, value, legend string, op expr.Aggregation, agg string) *helper {
	stub := expr.NewPopupStub(agg, expr.Or(value, op.String()), true)
	return &helper{
		kind:    kind,
		value:   value,
		legend:  map[geo.Type]string{geo.Point: legend},
		dynamic: true,
		popup:   &stub,
		widget:  &WidgetOptions{Type: "formula", Value: value, Operation: op.String()},
	}
}
