package viz

import (
	"maps"
	"slices"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// WidgetTypes are the accepted widget types.
var WidgetTypes = []string{"default", "formula", "histogram", "category", "animation", "time-series", "basic"}

const (
	defaultBuckets  = 20
	defaultDuration = 20
	defaultFade     = 1
)

// WidgetOptions describe a widget. Operation and Global only apply to
// formula widgets; Buckets to histogram and time-series widgets;
// Duration and the fades to time-series and animation widgets.
type WidgetOptions struct {
	Type        string
	Value       string
	Title       string
	Description string
	Footer      string
	Prop        string
	ReadOnly    bool
	Buckets     int
	Weight      float64
	Operation   string
	Global      bool
	Duration    float64
	FadeIn      float64
	FadeOut     float64
}

// Widget is a side panel element bound to a layer.
type Widget struct {
	opts       WidgetOptions
	expression string
}

// NewWidget validates the type and fills type-specific defaults.
func NewWidget(o WidgetOptions) (*Widget, error) {
	if o.Type == "" {
		o.Type = "default"
	}
	if !slices.Contains(WidgetTypes, o.Type) {
		return nil, errdefs.Invalid("widget type", o.Type, WidgetTypes...)
	}
	if o.Weight == 0 {
		o.Weight = 1
	}

	w := &Widget{}
	switch o.Type {
	case "formula":
		agg, err := expr.ParseAggregation(o.Operation)
		if err != nil {
			return nil, err
		}
		if agg != expr.Count && o.Value == "" {
			return nil, errdefs.Invalid("formula widget value", o.Value)
		}
		o.Operation = agg.String()
		w.expression = agg.Formula(o.Value, o.Global)
	case "histogram", "category":
		if o.Value == "" {
			return nil, errdefs.Invalid(o.Type+" widget value", o.Value)
		}
		if o.Type == "histogram" && o.Buckets == 0 {
			o.Buckets = defaultBuckets
		}
	case "time-series", "animation":
		if o.Type == "time-series" && o.Value == "" {
			return nil, errdefs.Invalid("time-series widget value", o.Value)
		}
		if o.Type == "time-series" && o.Buckets == 0 {
			o.Buckets = defaultBuckets
		}
		if o.Duration == 0 {
			o.Duration = defaultDuration
		}
		if o.FadeIn == 0 {
			o.FadeIn = defaultFade
		}
		if o.FadeOut == 0 {
			o.FadeOut = defaultFade
		}
		if o.Prop == "" {
			o.Prop = "filter"
		}
	}
	w.opts = o
	return w, nil
}

// FormulaWidget shows an aggregate of value over the viewport, or over the
// whole dataset when global is set.
func FormulaWidget(value, operation string, global bool, o WidgetOptions) (*Widget, error) {
	o.Type, o.Value, o.Operation, o.Global = "formula", value, operation, global
	return NewWidget(o)
}

// HistogramWidget shows the distribution of a numeric column.
func HistogramWidget(value string, o WidgetOptions) (*Widget, error) {
	o.Type, o.Value = "histogram", value
	return NewWidget(o)
}

// CategoryWidget shows the counts of a categorical column.
func CategoryWidget(value string, o WidgetOptions) (*Widget, error) {
	o.Type, o.Value = "category", value
	return NewWidget(o)
}

// TimeSeriesWidget drives an animation over a date column.
func TimeSeriesWidget(value string, o WidgetOptions) (*Widget, error) {
	o.Type, o.Value = "time-series", value
	return NewWidget(o)
}

// AnimationWidget shows the animation controls.
func AnimationWidget(o WidgetOptions) (*Widget, error) {
	o.Type = "animation"
	return NewWidget(o)
}

// BasicWidget shows static text.
func BasicWidget(o WidgetOptions) (*Widget, error) {
	o.Type = "basic"
	return NewWidget(o)
}

// DefaultWidget shows title, description and footer only.
func DefaultWidget(o WidgetOptions) (*Widget, error) {
	o.Type = "default"
	return NewWidget(o)
}

func (w *Widget) Type() string { return w.opts.Type }

// HasBridge reports whether the renderer binds the widget to the layer
// through a bridge (every type except formula, default and basic).
func (w *Widget) HasBridge() bool {
	switch w.opts.Type {
	case "formula", "default", "basic":
		return false
	}
	return true
}

// HasVariable reports whether the widget reads a generated variable.
func (w *Widget) HasVariable() bool { return w.expression != "" }

// VariableName is the variable holding the formula expression.
func (w *Widget) VariableName() string {
	if w.expression == "" {
		return ""
	}
	return expr.VarName(w.expression)
}

// Variables returns the variable declarations the widget needs.
func (w *Widget) Variables() map[string]string {
	if w.expression == "" {
		return nil
	}
	return map[string]string{w.VariableName(): w.expression}
}

// Columns are the columns the widget reads.
func (w *Widget) Columns() []string {
	if w.expression != "" {
		return expr.Columns(w.expression)
	}
	if w.opts.Value == "" {
		return nil
	}
	return []string{w.opts.Value}
}

// WidgetInfo is the renderer-facing widget record.
type WidgetInfo struct {
	Type         string         `json:"type" doc:"Widget type"`
	Value        string         `json:"value,omitempty" doc:"Column the widget reads"`
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	Footer       string         `json:"footer,omitempty"`
	HasBridge    bool           `json:"has_bridge"`
	HasVariable  bool           `json:"has_variable"`
	VariableName string         `json:"variable_name,omitempty"`
	Prop         string         `json:"prop,omitempty"`
	ReadOnly     bool           `json:"read_only"`
	Buckets      int            `json:"buckets,omitempty"`
	Weight       float64        `json:"weight"`
	Operation    string         `json:"operation,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
}

// Info renders the widget record.
func (w *Widget) Info() WidgetInfo {
	o := w.opts
	info := WidgetInfo{
		Type:         o.Type,
		Value:        o.Value,
		Title:        o.Title,
		Description:  o.Description,
		Footer:       o.Footer,
		HasBridge:    w.HasBridge(),
		HasVariable:  w.HasVariable(),
		VariableName: w.VariableName(),
		Prop:         o.Prop,
		ReadOnly:     o.ReadOnly,
		Buckets:      o.Buckets,
		Weight:       o.Weight,
		Operation:    o.Operation,
	}
	switch o.Type {
	case "time-series", "animation":
		info.Options = map[string]any{
			"duration": o.Duration,
			"fade_in":  o.FadeIn,
			"fade_out": o.FadeOut,
		}
	case "formula":
		info.Options = map[string]any{"is_global": o.Global}
	}
	return info
}

// WidgetVariables merges the variables of every widget.
func WidgetVariables(widgets []*Widget) map[string]string {
	vars := map[string]string{}
	for _, w := range widgets {
		maps.Copy(vars, w.Variables())
	}
	return vars
}
