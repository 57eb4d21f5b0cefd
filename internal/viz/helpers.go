package viz

import (
	"strconv"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

const (
	defaultBins       = 5
	defaultTop        = 11
	defaultSizeTop    = 5
	defaultResolution = 32
	maxResolution     = 256
)

var (
	binsSizes = map[geo.Type][]float64{geo.Point: {2, 14}, geo.Line: {1, 10}}
	catSizes  = map[geo.Type][]float64{geo.Point: {2, 20}, geo.Line: {1, 10}}
	contSizes = map[geo.Type][]float64{geo.Point: {2, 40}, geo.Line: {1, 10}}
)

// Stroke overrides the stroke of points and polygons.
type Stroke struct {
	StrokeColor string `mapstructure:"stroke_color" json:"stroke_color,omitempty"`
	StrokeWidth string `mapstructure:"stroke_width" json:"stroke_width,omitempty"`
}

// Animated turns a style into a time animation over the Animate column.
type Animated struct {
	Animate  string  `mapstructure:"animate" json:"animate,omitempty"`
	Duration float64 `mapstructure:"duration" json:"duration,omitempty"`
	FadeIn   float64 `mapstructure:"fade_in" json:"fade_in,omitempty"`
	FadeOut  float64 `mapstructure:"fade_out" json:"fade_out,omitempty"`
}

func (a Animated) withDefaults() Animated {
	if a.Duration == 0 {
		a.Duration = defaultDuration
	}
	if a.FadeIn == 0 {
		a.FadeIn = defaultFade
	}
	if a.FadeOut == 0 {
		a.FadeOut = defaultFade
	}
	return a
}

func (a Animated) filter() string {
	a = a.withDefaults()
	return expr.AnimationFilter(a.Animate, a.Duration, a.FadeIn, a.FadeOut)
}

func (a Animated) helper() *Animated {
	if a.Animate == "" {
		return nil
	}
	a = a.withDefaults()
	return &a
}

// BasicOptions override the literal defaults.
type BasicOptions struct {
	Color   string `mapstructure:"color" json:"color,omitempty"`
	Size    string `mapstructure:"size" json:"size,omitempty"`
	Opacity string `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke  `mapstructure:",squash"`
}

// Basic draws every feature with the same color and size.
func Basic(o BasicOptions) (*Style, error) {
	color := func(g geo.Type) string { return expr.Value(o.Color, g, "color") }
	return newHelperStyle(colorDecls(color, o.Size, o.Opacity, o.Stroke, ""), &helper{kind: KindBasic})
}

// ColorBinsOptions configure a color-bins style.
type ColorBinsOptions struct {
	Method   string       `mapstructure:"method" json:"method,omitempty"`
	Bins     int          `mapstructure:"bins" json:"bins,omitempty"`
	Breaks   []float64    `mapstructure:"breaks" json:"breaks,omitempty"`
	Palette  expr.Palette `mapstructure:"palette" json:"-"`
	Size     string       `mapstructure:"size" json:"size,omitempty"`
	Opacity  string       `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke   `mapstructure:",squash"`
	Animated `mapstructure:",squash"`
}

// ColorBins colors features by classifying a numeric column into bins.
func ColorBins(value string, o ColorBinsOptions) (*Style, error) {
	if err := requireValue(KindColorBins, value); err != nil {
		return nil, err
	}
	classifier, palette, err := classify(expr.Prop(value), o.Method, o.Bins, o.Breaks, false)
	if err != nil {
		return nil, err
	}
	color := expr.Ramp(classifier, o.Palette.Or(palette))
	decls := colorDecls(constant(color), o.Size, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, numericHelper(KindColorBins, value, "color-bins", geo.Types, o.Animated))
}

// ColorCategoryOptions configure a color-category style.
type ColorCategoryOptions struct {
	Top        int          `mapstructure:"top" json:"top,omitempty"`
	Categories []string     `mapstructure:"cat" json:"cat,omitempty"`
	Palette    expr.Palette `mapstructure:"palette" json:"-"`
	Size       string       `mapstructure:"size" json:"size,omitempty"`
	Opacity    string       `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke     `mapstructure:",squash"`
	Animated   `mapstructure:",squash"`
}

// ColorCategory colors features by the categories of a column.
func ColorCategory(value string, o ColorCategoryOptions) (*Style, error) {
	if err := requireValue(KindColorCategory, value); err != nil {
		return nil, err
	}
	categories, err := categorize(expr.Prop(value), o.Top, defaultTop, o.Categories)
	if err != nil {
		return nil, err
	}
	color := expr.Ramp(categories, o.Palette.Or("bold"))
	decls := colorDecls(constant(color), o.Size, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, categoryHelper(KindColorCategory, value, "color-category", geo.Types, o.Animated))
}

// ColorContinuousOptions configure a color-continuous style. RangeMin and
// RangeMax default to the global extremes of the column.
type ColorContinuousOptions struct {
	RangeMin string       `mapstructure:"range_min" json:"range_min,omitempty"`
	RangeMax string       `mapstructure:"range_max" json:"range_max,omitempty"`
	Palette  expr.Palette `mapstructure:"palette" json:"-"`
	Size     string       `mapstructure:"size" json:"size,omitempty"`
	Opacity  string       `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke   `mapstructure:",squash"`
	Animated `mapstructure:",squash"`
}

// ColorContinuous colors features along a continuous palette.
func ColorContinuous(value string, o ColorContinuousOptions) (*Style, error) {
	if err := requireValue(KindColorContinuous, value); err != nil {
		return nil, err
	}
	p := expr.Prop(value)
	linear := expr.Linear(p, expr.Or(o.RangeMin, expr.GlobalMin(p)), expr.Or(o.RangeMax, expr.GlobalMax(p)))
	color := expr.Ramp(linear, o.Palette.Or("bluyl"))
	decls := colorDecls(constant(color), o.Size, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, numericHelper(KindColorContinuous, value, "color-continuous", geo.Types, o.Animated))
}

// SizeBinsOptions configure a size-bins style. Size overrides the output
// range of both geometry types.
type SizeBinsOptions struct {
	Method   string    `mapstructure:"method" json:"method,omitempty"`
	Bins     int       `mapstructure:"bins" json:"bins,omitempty"`
	Breaks   []float64 `mapstructure:"breaks" json:"breaks,omitempty"`
	Size     []float64 `mapstructure:"size" json:"size,omitempty"`
	Color    string    `mapstructure:"color" json:"color,omitempty"`
	Opacity  string    `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke   `mapstructure:",squash"`
	Animated `mapstructure:",squash"`
}

// SizeBins sizes points and lines by classifying a numeric column.
func SizeBins(value string, o SizeBinsOptions) (*Style, error) {
	if err := requireValue(KindSizeBins, value); err != nil {
		return nil, err
	}
	classifier, _, err := classify(expr.Prop(value), o.Method, o.Bins, o.Breaks, false)
	if err != nil {
		return nil, err
	}
	width := map[geo.Type]string{}
	for g, def := range binsSizes {
		width[g] = expr.Ramp(classifier, sizeRange(o.Size, def))
	}
	decls := sizeDecls(width, o.Color, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, numericHelper(KindSizeBins, value, "size-bins", sizeGeoms, o.Animated))
}

// SizeCategoryOptions configure a size-category style.
type SizeCategoryOptions struct {
	Top        int       `mapstructure:"top" json:"top,omitempty"`
	Categories []string  `mapstructure:"cat" json:"cat,omitempty"`
	Size       []float64 `mapstructure:"size" json:"size,omitempty"`
	Color      string    `mapstructure:"color" json:"color,omitempty"`
	Opacity    string    `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke     `mapstructure:",squash"`
	Animated   `mapstructure:",squash"`
}

// SizeCategory sizes points and lines by the categories of a column.
func SizeCategory(value string, o SizeCategoryOptions) (*Style, error) {
	if err := requireValue(KindSizeCategory, value); err != nil {
		return nil, err
	}
	categories, err := categorize(expr.Prop(value), o.Top, defaultSizeTop, o.Categories)
	if err != nil {
		return nil, err
	}
	width := map[geo.Type]string{}
	for g, def := range catSizes {
		width[g] = expr.Ramp(categories, sizeRange(o.Size, def))
	}
	decls := sizeDecls(width, o.Color, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, categoryHelper(KindSizeCategory, value, "size-category", sizeGeoms, o.Animated))
}

// SizeContinuousOptions configure a size-continuous style.
type SizeContinuousOptions struct {
	RangeMin string    `mapstructure:"range_min" json:"range_min,omitempty"`
	RangeMax string    `mapstructure:"range_max" json:"range_max,omitempty"`
	Size     []float64 `mapstructure:"size" json:"size,omitempty"`
	Color    string    `mapstructure:"color" json:"color,omitempty"`
	Opacity  string    `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke   `mapstructure:",squash"`
	Animated `mapstructure:",squash"`
}

// SizeContinuous sizes points by the square root of a column, so that
// area grows linearly with the value, and lines by the value itself.
func SizeContinuous(value string, o SizeContinuousOptions) (*Style, error) {
	if err := requireValue(KindSizeContinuous, value); err != nil {
		return nil, err
	}
	p := expr.Prop(value)
	lo, hi := expr.Or(o.RangeMin, expr.GlobalMin(p)), expr.Or(o.RangeMax, expr.GlobalMax(p))
	width := map[geo.Type]string{
		geo.Point: expr.Ramp(expr.Linear(expr.Sqrt(p), expr.Sqrt(lo), expr.Sqrt(hi)), sizeRange(o.Size, contSizes[geo.Point])),
		geo.Line:  expr.Ramp(expr.Linear(p, lo, hi), sizeRange(o.Size, contSizes[geo.Line])),
	}
	decls := sizeDecls(width, o.Color, o.Opacity, o.Stroke, o.Animated.filter())
	return newHelperStyle(decls, numericHelper(KindSizeContinuous, value, "size-continuous", sizeGeoms, o.Animated))
}

// AnimationOptions configure an animation style.
type AnimationOptions struct {
	Duration float64 `mapstructure:"duration" json:"duration,omitempty"`
	FadeIn   float64 `mapstructure:"fade_in" json:"fade_in,omitempty"`
	FadeOut  float64 `mapstructure:"fade_out" json:"fade_out,omitempty"`
	Color    string  `mapstructure:"color" json:"color,omitempty"`
	Size     string  `mapstructure:"size" json:"size,omitempty"`
	Opacity  string  `mapstructure:"opacity" json:"opacity,omitempty"`
	Stroke   `mapstructure:",squash"`
}

// Animation shows features over time, keyed by a date or numeric column.
func Animation(value string, o AnimationOptions) (*Style, error) {
	if err := requireValue(KindAnimation, value); err != nil {
		return nil, err
	}
	a := Animated{Animate: value, Duration: o.Duration, FadeIn: o.FadeIn, FadeOut: o.FadeOut}
	color := func(g geo.Type) string { return expr.Value(o.Color, g, "color") }
	decls := colorDecls(color, o.Size, o.Opacity, o.Stroke, a.filter())
	return newHelperStyle(decls, &helper{kind: KindAnimation, value: value, animation: a.helper()})
}

var sizeGeoms = []geo.Type{geo.Point, geo.Line}

func constant(s string) func(geo.Type) string {
	return func(geo.Type) string { return s }
}

// classify renders the bins classifier of input: buckets over explicit
// breaks, or the method's global (or viewport) function over a bin count.
// It also returns the method's default palette.
func classify(input, method string, bins int, breaks []float64, viewport bool) (string, string, error) {
	m, err := expr.ParseClassMethod(method)
	if err != nil {
		return "", "", err
	}
	if len(breaks) > 0 {
		return expr.Call(expr.BucketsFunc, input, expr.Numbers(breaks)), expr.Quantiles.DefaultPalette(), nil
	}
	if bins < 0 {
		return "", "", errdefs.Invalid("bins", strconv.Itoa(bins))
	}
	if bins == 0 {
		bins = defaultBins
	}
	return expr.Call(m.Func(viewport), input, strconv.Itoa(bins)), m.DefaultPalette(), nil
}

// categorize renders buckets over explicit categories, or the most
// frequent top categories.
func categorize(input string, top, def int, categories []string) (string, error) {
	if len(categories) > 0 {
		return expr.Call(expr.BucketsFunc, input, expr.Categories(categories)), nil
	}
	if top < 0 {
		return "", errdefs.Invalid("top", strconv.Itoa(top))
	}
	if top == 0 {
		top = def
	}
	return expr.Call("top", input, strconv.Itoa(top)), nil
}

func sizeRange(override, def []float64) string {
	if len(override) > 0 {
		return expr.Numbers(override)
	}
	return expr.Numbers(def)
}

// colorDecls builds point, line and polygon declarations around a color
// expression. filter is omitted when empty.
func colorDecls(color func(geo.Type) string, size, opacity string, st Stroke, filter string) map[geo.Type]Declarations {
	out := make(map[geo.Type]Declarations, len(geo.Types))
	for _, g := range geo.Types {
		props := map[string]string{
			"color": expr.Opacity(color(g), expr.Value(opacity, g, "opacity")),
		}
		if g != geo.Polygon {
			props["width"] = expr.Value(size, g, "width")
		}
		if g != geo.Line {
			props["strokeColor"] = expr.Value(st.StrokeColor, g, "strokeColor")
			props["strokeWidth"] = expr.Value(st.StrokeWidth, g, "strokeWidth")
		}
		if filter != "" {
			props["filter"] = filter
		}
		out[g] = Declarations{Props: props}
	}
	return out
}

// sizeDecls builds point and line declarations around per-geometry width
// expressions.
func sizeDecls(width map[geo.Type]string, color, opacity string, st Stroke, filter string) map[geo.Type]Declarations {
	out := make(map[geo.Type]Declarations, len(width))
	for g, w := range width {
		props := map[string]string{
			"width":  w,
			"color":  expr.Opacity(expr.Value(color, g, "color"), expr.Or(opacity, expr.AggregatedOpacity)),
			"filter": filter,
		}
		if g == geo.Point {
			props["strokeColor"] = expr.Value(st.StrokeColor, g, "strokeColor")
			props["strokeWidth"] = expr.Value(st.StrokeWidth, g, "strokeWidth")
		}
		out[g] = Declarations{Props: props}
	}
	return out
}

func numericHelper(kind StyleKind, value, legend string, geoms []geo.Type, a Animated) *helper {
	return valueHelper(kind, value, legend, geoms, "histogram", a)
}

func categoryHelper(kind StyleKind, value, legend string, geoms []geo.Type, a Animated) *helper {
	return valueHelper(kind, value, legend, geoms, "category", a)
}

func valueHelper(kind StyleKind, value, legend string, geoms []geo.Type, widget string, a Animated) *helper {
	stub := expr.NewPopupStub(value, "", false)
	return &helper{
		kind:      kind,
		value:     value,
		legend:    legendTypes(legend, geoms...),
		popup:     &stub,
		widget:    &WidgetOptions{Type: widget, Value: value},
		animation: a.helper(),
	}
}
