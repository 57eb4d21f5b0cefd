package viz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/source"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

func cities() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range []struct {
		name string
		pt   orb.Point
		pop  float64
	}{
		{"Lisbon", orb.Point{-9.14, 38.72}, 0.5e6},
		{"Berlin", orb.Point{13.4, 52.52}, 3.6e6},
	} {
		f := geojson.NewFeature(c.pt)
		f.Properties["name"] = c.name
		f.Properties["pop"] = c.pop
		fc.Append(f)
	}
	return fc
}

func TestNewLayer(t *testing.T) {
	style, err := ColorBins("pop", ColorBinsOptions{})
	require.NoError(t, err)

	l, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{
		Style:        style,
		Presentation: Presentation{Title: "Population"},
	})
	require.NoError(t, err)
	assert.Equal(t, geo.Point, l.GeomType())

	popVar := expr.VarName("$pop")
	assert.True(t, strings.HasPrefix(l.Viz(), "@"+popVar+": $pop\ncolor: "), l.Viz())

	def := l.Definition()
	assert.Equal(t, source.KindGeoJSON, def.Type)
	assert.Equal(t, "Population", def.Title)
	assert.Equal(t, geo.Bounds{West: -9.14, South: 38.72, East: 13.4, North: 52.52}, def.Bounds)
	require.Len(t, def.Interactivity, 1)
	assert.Equal(t, []PopupAttr{{Name: popVar, Title: "Population"}}, def.Interactivity[0].Attrs)
	require.Len(t, def.Legends, 1)
	assert.Equal(t, "color-bins-point", def.Legends[0].Type)
	require.Len(t, def.Widgets, 1)
	assert.Equal(t, "histogram", def.Widgets[0].Type)

	data := def.Data.(*geojson.FeatureCollection)
	assert.Equal(t, geojson.Properties{"pop": 0.5e6}, data.Features[0].Properties)

	raw, err := json.Marshal(def)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"credentials", "interactivity", "legends", "widgets", "data", "type", "options", "viz", "map_index", "bounds"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, []any{[]any{-9.14, 38.72}, []any{13.4, 52.52}}, decoded["bounds"])
}

func TestNewLayerDefaults(t *testing.T) {
	override := geo.Bounds{West: 0, South: 0, East: 1, North: 1}
	creds := &source.Credentials{Username: "user", APIKey: "key"}
	l, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{
		Bounds:      &override,
		Credentials: creds,
	})
	require.NoError(t, err)
	assert.Equal(t, compile(t, DefaultStyle(), geo.Point), l.Viz())

	def := l.Definition()
	assert.Equal(t, override, def.Bounds)
	assert.Same(t, creds, def.Credentials)
	assert.Empty(t, def.Legends)
	assert.Empty(t, def.Widgets)
	assert.NotNil(t, def.Interactivity)
}

func TestNewLayerQuotedColumn(t *testing.T) {
	const column = `it's "odd"`
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{1, 2})
	f.Properties[column] = 4.0
	f.Properties["other"] = "x"
	fc.Append(f)

	style, err := ColorBins(column, ColorBinsOptions{})
	require.NoError(t, err)
	l, err := NewLayer(context.Background(), source.NewGeoJSON(fc), LayerOptions{Style: style})
	require.NoError(t, err)
	assert.Contains(t, l.Viz(), `prop('it\'s "odd"')`)

	data := l.Definition().Data.(*geojson.FeatureCollection)
	assert.Equal(t, geojson.Properties{column: 4.0}, data.Features[0].Properties)
}

func TestNewLayerErrors(t *testing.T) {
	_, err := NewLayer(context.Background(), nil, LayerOptions{})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	style, err := SizeBins("pop", SizeBinsOptions{})
	require.NoError(t, err)
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}))
	_, err = NewLayer(context.Background(), source.NewGeoJSON(fc), LayerOptions{Style: style})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestMapBounds(t *testing.T) {
	a, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{})
	require.NoError(t, err)

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{-200, -95}))
	b, err := NewLayer(context.Background(), source.NewGeoJSON(fc), LayerOptions{})
	require.NoError(t, err)

	m, err := NewMap([]*Layer{a, b}, MapOptions{Basemap: "darkmatter"})
	require.NoError(t, err)
	assert.Equal(t, geo.Bounds{West: -180, South: -90, East: 13.4, North: 52.52}, m.Bounds())

	m, err = NewMap(nil, MapOptions{Bounds: &geo.Bounds{West: -1000, South: 1000, East: 1000, North: -1000}})
	require.NoError(t, err)
	raw, err := json.Marshal(m.Definition().Bounds)
	require.NoError(t, err)
	assert.JSONEq(t, `[[-180, 90], [180, -90]]`, string(raw))

	m, err = NewMap(nil, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, geo.World, m.Bounds())

	origin := geojson.NewFeatureCollection()
	origin.Append(geojson.NewFeature(orb.Point{0, 0}))
	c, err := NewLayer(context.Background(), source.NewGeoJSON(origin), LayerOptions{})
	require.NoError(t, err)
	m, err = NewMap([]*Layer{c}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, geo.Bounds{}, m.Bounds(), "a layer at the origin keeps its extent")

	m, err = NewMap([]*Layer{c, a}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, geo.Bounds{West: -9.14, South: 0, East: 13.4, North: 52.52}, m.Bounds())

	_, err = NewMap(nil, MapOptions{Basemap: "#ffcc00"})
	assert.NoError(t, err)
	_, err = NewMap(nil, MapOptions{Basemap: "satellite"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	_, err = NewMap(nil, MapOptions{Theme: "sepia"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestLayout(t *testing.T) {
	style, err := ColorBins("pop", ColorBinsOptions{})
	require.NoError(t, err)
	first, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{Style: style})
	require.NoError(t, err)
	second, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{})
	require.NoError(t, err)

	m1, err := NewMap([]*Layer{first}, MapOptions{})
	require.NoError(t, err)
	m2, err := NewMap([]*Layer{second}, MapOptions{})
	require.NoError(t, err)

	layout, err := NewLayout([]*Map{m1, m2, m1}, 2)
	require.NoError(t, err)
	def := layout.Definition()
	assert.Equal(t, 2, def.Columns)
	assert.Equal(t, 2, def.Rows)
	assert.Equal(t, 0, def.Maps[0].Layers[0].MapIndex)
	assert.Equal(t, 1, def.Maps[1].Layers[0].MapIndex)
	assert.Equal(t, 2, def.Maps[2].Layers[0].MapIndex)
	assert.Equal(t, 0, first.MapIndex(), "layers are not modified by a layout")
	assert.True(t, def.Maps[0].HasLegends)
	assert.False(t, def.Maps[1].HasWidgets)

	shared, err := NewMap([]*Layer{second, first}, MapOptions{})
	require.NoError(t, err)
	layout, err = NewLayout([]*Map{m1, shared}, 2)
	require.NoError(t, err)
	def = layout.Definition()
	assert.Equal(t, 0, def.Maps[0].Layers[0].MapIndex)
	assert.Equal(t, 1, def.Maps[1].Layers[0].MapIndex)
	assert.Equal(t, 1, def.Maps[1].Layers[1].MapIndex)

	standalone, err := NewLayer(context.Background(), source.NewGeoJSON(cities()), LayerOptions{MapIndex: 3})
	require.NoError(t, err)
	m3, err := NewMap([]*Layer{standalone}, MapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, m3.Definition().Layers[0].MapIndex)
	layout, err = NewLayout([]*Map{m3}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, layout.Definition().Maps[0].Layers[0].MapIndex)

	_, err = NewLayout(nil, 0)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}
