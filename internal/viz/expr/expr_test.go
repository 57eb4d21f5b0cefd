package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

func TestProp(t *testing.T) {
	tests := []struct {
		column string
		want   string
	}{
		{"name", "$name"},
		{"_pop2010", "$_pop2010"},
		{"2010pop", "prop('2010pop')"},
		{"my column", "prop('my column')"},
		{"o'hare", `prop("o'hare")`},
		{`both'"`, `prop('both\'"')`},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, Prop(tt.column))
		})
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "red", Value("red", geo.Point, "color"))
	assert.Equal(t, "#EE4D5A", Value("", geo.Point, "color"))
	assert.Equal(t, "1.5", Value("", geo.Line, "width"))
	assert.Equal(t, "0.9", Value("", geo.Polygon, "opacity"))
	assert.Equal(t, "", Value("", geo.Polygon, "width"))
	assert.Equal(t, "", Value("", geo.Line, "strokeColor"))
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "[#f00, #0f0, #00f]", ColorPalette("#f00", "#0f0", "#00f").String())
	assert.Equal(t, "sunset", NamedPalette("sunset").String())
	assert.Equal(t, "[red,blue]", NamedPalette("[red,blue]").String())
	assert.Equal(t, "purpor", Palette{}.Or("purpor"))
	assert.Equal(t, "temps", NamedPalette("temps").Or("purpor"))

	p, err := ParsePalette([]any{"red", "blue"})
	require.NoError(t, err)
	assert.Equal(t, "[red, blue]", p.String())

	_, err = ParsePalette([]any{"red", 1})
	assert.Error(t, err)
}

func TestLists(t *testing.T) {
	assert.Equal(t, "[0, 1.5, 2]", Numbers([]float64{0, 1.5, 2}))
	assert.Equal(t, "['a', \"b'c\"]", Categories([]string{"a", "b'c"}))
}

func TestAnimation(t *testing.T) {
	assert.Equal(t, "animation(linear($date), 20, fade(1, 1))", Animation("date", 20, 1, 1))
	assert.Equal(t, "1", AnimationFilter("", 20, 1, 1))
	assert.Equal(t, "animation(linear($t), 5, fade(0.5, 2))", AnimationFilter("t", 5, 0.5, 2))
}

func TestParseClassMethod(t *testing.T) {
	m, err := ParseClassMethod("")
	require.NoError(t, err)
	assert.Equal(t, Quantiles, m)

	m, err = ParseClassMethod("stdev")
	require.NoError(t, err)
	assert.Equal(t, "globalStandardDev", m.Func(false))
	assert.Equal(t, "viewportStandardDev", m.Func(true))
	assert.Equal(t, "temps", m.DefaultPalette())

	m, err = ParseClassMethod("equal")
	require.NoError(t, err)
	assert.Equal(t, "globalEqIntervals", m.Func(false))
	assert.Equal(t, "purpor", m.DefaultPalette())

	_, err = ParseClassMethod("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	assert.Contains(t, err.Error(), `"quantiles", "equal", "stdev"`)
}

func TestAggregation(t *testing.T) {
	a, err := ParseAggregation("")
	require.NoError(t, err)
	assert.Equal(t, "clusterCount()", a.Cluster("pop"))
	assert.Equal(t, "viewportCount()", a.Formula("pop", false))
	assert.Equal(t, "globalCount()", a.Formula("pop", true))

	a, err = ParseAggregation("avg")
	require.NoError(t, err)
	assert.Equal(t, "clusterAvg($pop)", a.Cluster("pop"))
	assert.Equal(t, "viewportAvg($pop)", a.Formula("pop", false))
	assert.Equal(t, "globalAvg($pop)", a.Formula("pop", true))

	_, err = ParseAggregation("median")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"count", "avg", "min", "max", "sum"`)
}

func TestVarName(t *testing.T) {
	a := VarName("$name")
	assert.Len(t, a, 7)
	assert.Equal(t, byte('v'), a[0])
	assert.Equal(t, a, VarName("$name"))
	assert.NotEqual(t, a, VarName("$other"))
	assert.True(t, IsIdent(a))
}

func TestColumns(t *testing.T) {
	program := "@v1: clusterAvg($pop)\ncolor: ramp(buckets(prop('my col'), ['a']), bold)\nwidth: $pop\nfilter: animation(linear(prop(\"o'k\")), 20, fade(1, 1))"
	assert.Equal(t, []string{"pop", "my col", "o'k"}, Columns(program))
	assert.Empty(t, Columns("color: red"))

	for _, name := range []string{`it's "odd"`, `a\b`, `trailing\`, `'"`} {
		assert.Equal(t, []string{name}, Columns("width: "+Prop(name)), Prop(name))
	}
	assert.Equal(t, []string{`o'k "x"`, "n"},
		Columns(`color: ramp(buckets(prop('o\'k "x"'), ['a']), bold)`+"\nwidth: prop('n')"))
}

func TestPopupStub(t *testing.T) {
	s := NewPopupStub("pop", "", false)
	assert.Equal(t, "pop", s.Title)
	assert.Equal(t, "$pop", s.Expression())

	op := NewPopupStub("clusterCount()", "count", true)
	assert.Equal(t, "clusterCount()", op.Expression())
}
