package viz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

func TestLegend(t *testing.T) {
	tests := []struct {
		name string
		opts LegendOptions
		prop string
	}{
		{"color type", LegendOptions{Type: "color-category"}, "color"},
		{"size type", LegendOptions{Type: "size-bins-point"}, "width"},
		{"explicit prop", LegendOptions{Type: "color-bins", Prop: "stroke_color"}, "strokeColor"},
		{"size prop", LegendOptions{Type: "default", Prop: "size"}, "width"},
		{"no prop", LegendOptions{Type: "basic"}, ""},
		{"per geometry", LegendOptions{Types: map[geo.Type]string{geo.Line: "size-continuous-line"}}, "width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLegend(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.prop, l.Prop())
		})
	}

	_, err := NewLegend(LegendOptions{Type: "pie"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	_, err = NewLegend(LegendOptions{Type: "color-bins", Prop: "fill"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	l, err := NewLegend(LegendOptions{Types: map[geo.Type]string{geo.Point: "color-bins-point"}, Title: "Pop"})
	require.NoError(t, err)
	info, ok := l.Info(geo.Point)
	require.True(t, ok)
	assert.Equal(t, LegendInfo{Type: "color-bins-point", Prop: "color", Title: "Pop"}, info)
	_, ok = l.Info(geo.Polygon)
	assert.False(t, ok)
}

func TestInteractivity(t *testing.T) {
	a, err := HoverPopup("a", "")
	require.NoError(t, err)
	b, err := ClickPopup("b", "Bee")
	require.NoError(t, err)
	c, err := NewPopup(PopupOptions{Value: "my col", Format: ".2f"})
	require.NoError(t, err)

	got := Interactivity([]*Popup{a, b, c})
	require.Len(t, got, 2)
	assert.Equal(t, Click, got[0].Event)
	assert.Equal(t, []PopupAttr{{Name: expr.VarName("$b"), Title: "Bee"}}, got[0].Attrs)
	assert.Equal(t, Hover, got[1].Event)
	assert.Equal(t, []PopupAttr{
		{Name: expr.VarName("$a"), Title: "a"},
		{Name: expr.VarName("prop('my col')"), Title: "my col", Format: ".2f"},
	}, got[1].Attrs)

	vars := PopupVariables([]*Popup{a, c})
	assert.Equal(t, map[string]string{
		expr.VarName("$a"):             "$a",
		expr.VarName("prop('my col')"): "prop('my col')",
	}, vars)

	_, err = NewPopup(PopupOptions{Event: "dblclick", Value: "a"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	_, err = NewPopup(PopupOptions{})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestWidgets(t *testing.T) {
	f, err := FormulaWidget("pop", "avg", false, WidgetOptions{Title: "Average"})
	require.NoError(t, err)
	info := f.Info()
	assert.Equal(t, "formula", info.Type)
	assert.False(t, info.HasBridge)
	assert.True(t, info.HasVariable)
	assert.Equal(t, expr.VarName("viewportAvg($pop)"), info.VariableName)
	assert.Equal(t, map[string]string{info.VariableName: "viewportAvg($pop)"}, f.Variables())

	count, err := FormulaWidget("", "", true, WidgetOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{expr.VarName("globalCount()"): "globalCount()"}, count.Variables())
	assert.Empty(t, count.Columns())

	h, err := HistogramWidget("pop", WidgetOptions{})
	require.NoError(t, err)
	assert.True(t, h.HasBridge())
	assert.False(t, h.HasVariable())
	assert.Equal(t, 20, h.Info().Buckets)
	assert.Equal(t, []string{"pop"}, h.Columns())

	ts, err := TimeSeriesWidget("date", WidgetOptions{})
	require.NoError(t, err)
	tsInfo := ts.Info()
	assert.Equal(t, 20, tsInfo.Buckets)
	assert.Equal(t, "filter", tsInfo.Prop)
	assert.Equal(t, map[string]any{"duration": 20.0, "fade_in": 1.0, "fade_out": 1.0}, tsInfo.Options)

	b, err := BasicWidget(WidgetOptions{Title: "About"})
	require.NoError(t, err)
	assert.False(t, b.HasBridge())

	_, err = NewWidget(WidgetOptions{Type: "gauge"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	_, err = CategoryWidget("", WidgetOptions{})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	_, err = FormulaWidget("pop", "median", false, WidgetOptions{})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestSynthesizeDefaults(t *testing.T) {
	s, err := ColorBins("pop", ColorBinsOptions{})
	require.NoError(t, err)

	syn, err := Synthesize(s, Presentation{Title: "Population", Footer: "Source: census"})
	require.NoError(t, err)

	require.Len(t, syn.Legends, 1)
	info, ok := syn.Legends[0].Info(geo.Polygon)
	require.True(t, ok)
	assert.Equal(t, "color-bins-polygon", info.Type)
	assert.Equal(t, "color", info.Prop)
	assert.Equal(t, "Population", info.Title)
	assert.Equal(t, "Source: census", info.Footer)

	require.Len(t, syn.Popups, 1)
	assert.Equal(t, Hover, syn.Popups[0].Event())
	assert.Equal(t, "Population", syn.Popups[0].Title())
	assert.Equal(t, "$pop", syn.Popups[0].Expression())

	require.Len(t, syn.Widgets, 1)
	assert.Equal(t, "histogram", syn.Widgets[0].Type())
	assert.Equal(t, map[string]string{expr.VarName("$pop"): "$pop"}, syn.Variables())
}

func TestSynthesizeSettings(t *testing.T) {
	s, err := ColorCategory("type", ColorCategoryOptions{})
	require.NoError(t, err)

	syn, err := Synthesize(s, Presentation{
		Legends: Off[[]*Legend](),
		Popups:  Off[[]*Popup](),
		Widgets: Off[[]*Widget](),
	})
	require.NoError(t, err)
	assert.Empty(t, syn.Legends)
	assert.Empty(t, syn.Popups)
	assert.Empty(t, syn.Widgets)

	click, err := ClickPopup("name", "Name")
	require.NoError(t, err)
	syn, err = Synthesize(s, Presentation{Popups: Explicit([]*Popup{click})})
	require.NoError(t, err)
	require.Len(t, syn.Popups, 1)
	assert.Equal(t, Click, syn.Popups[0].Event())
	require.Len(t, syn.Legends, 1)
	info, _ := syn.Legends[0].Info(geo.Point)
	assert.Equal(t, "type", info.Title)
	require.Len(t, syn.Widgets, 1)
	assert.Equal(t, "category", syn.Widgets[0].Type())

	raw, err := ParseStyle("color: red")
	require.NoError(t, err)
	syn, err = Synthesize(raw, Presentation{})
	require.NoError(t, err)
	assert.Empty(t, syn.Legends)
	assert.Empty(t, syn.Popups)
	assert.Empty(t, syn.Widgets)
}

func TestSynthesizeAnimated(t *testing.T) {
	helpers := map[string]func() (*Style, error){
		"color-bins": func() (*Style, error) {
			return ColorBins("pop", ColorBinsOptions{Animated: Animated{Animate: "col"}})
		},
		"size-category": func() (*Style, error) {
			return SizeCategory("type", SizeCategoryOptions{Animated: Animated{Animate: "col"}})
		},
		"animation": func() (*Style, error) {
			return Animation("col", AnimationOptions{})
		},
	}
	for name, build := range helpers {
		t.Run(name, func(t *testing.T) {
			s, err := build()
			require.NoError(t, err)
			syn, err := Synthesize(s, Presentation{})
			require.NoError(t, err)
			assert.Empty(t, syn.Popups)
			require.NotEmpty(t, syn.Widgets)
			info := syn.Widgets[0].Info()
			assert.Equal(t, "time-series", info.Type)
			assert.Equal(t, "col", info.Value)
		})
	}

	s, err := ColorBins("pop", ColorBinsOptions{Animated: Animated{Animate: "col"}})
	require.NoError(t, err)
	syn, err := Synthesize(s, Presentation{Widgets: Off[[]*Widget]()})
	require.NoError(t, err)
	require.Len(t, syn.Widgets, 1)
	assert.Equal(t, "time-series", syn.Widgets[0].Type())
}

func TestSynthesizeCluster(t *testing.T) {
	s, err := ClusterSize("pop", ClusterSizeOptions{Cluster: Cluster{Operation: "max"}})
	require.NoError(t, err)
	syn, err := Synthesize(s, Presentation{})
	require.NoError(t, err)

	require.Len(t, syn.Popups, 1)
	assert.Equal(t, "clusterMax($pop)", syn.Popups[0].Expression())

	require.Len(t, syn.Legends, 1)
	info, ok := syn.Legends[0].Info(geo.Point)
	require.True(t, ok)
	assert.Equal(t, "size-continuous-point", info.Type)
	assert.True(t, info.Dynamic)

	require.Len(t, syn.Widgets, 1)
	w := syn.Widgets[0].Info()
	assert.Equal(t, "formula", w.Type)
	assert.Equal(t, "max", w.Operation)

	vars := syn.Variables()
	assert.Equal(t, "clusterMax($pop)", vars[expr.VarName("clusterMax($pop)")])
	assert.Equal(t, "viewportMax($pop)", vars[expr.VarName("viewportMax($pop)")])
}

func TestSetting(t *testing.T) {
	var zero Setting[int]
	assert.True(t, zero.IsDefault())
	assert.True(t, Enabled[int](false).IsOff())
	assert.True(t, Enabled[int](true).IsDefault())
	v, ok := Explicit(3).Value()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = Off[int]().Value()
	assert.False(t, ok)
}
