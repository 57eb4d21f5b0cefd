// Package expr builds fragments of the CARTO VL expression language: column
// references, literal lists, ramps, animation filters, the per-geometry
// default table and the closed method/aggregation dispatch tables.
//
// Every function here is pure. The same input always produces the same
// text, which is what lets styles, popups and widgets agree on generated
// variable names.
package expr

import (
	"regexp"
	"strconv"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdent reports whether s can be used as a bare `$name` reference or a
// `@name` variable.
func IsIdent(s string) bool { return identRe.MatchString(s) }

// Prop references a column. Identifiers use the `$name` shorthand; any
// other name is wrapped in prop() with whichever quote it does not contain.
func Prop(column string) string {
	if IsIdent(column) {
		return "$" + column
	}
	return "prop(" + Quote(column) + ")"
}

// Quote renders s as a string literal, preferring single quotes and
// switching to double quotes when s contains a single quote.
func Quote(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	default:
		return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
}

// Number formats f with the shortest exact representation.
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Numbers renders a literal number list: [0, 1, 2].
func Numbers(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = Number(f)
	}
	return List(parts)
}

// Categories renders a literal string list: ['a', 'b'].
func Categories(cats []string) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = Quote(c)
	}
	return List(parts)
}

// List joins already rendered items into a bracketed list.
func List(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// Call renders fn(arg1, arg2, ...).
func Call(fn string, args ...string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}

// Ramp maps a classified input onto an output palette or size list.
func Ramp(input, output string) string { return Call("ramp", input, output) }

// Linear renders linear(value, min, max).
func Linear(value, min, max string) string { return Call("linear", value, min, max) }

// Sqrt renders sqrt(value).
func Sqrt(value string) string { return Call("sqrt", value) }

// Opacity wraps a color expression.
func Opacity(color, opacity string) string { return Call("opacity", color, opacity) }

// GlobalMin and GlobalMax are the dataset-wide range bounds of a column.
func GlobalMin(prop string) string { return Call("globalMin", prop) }
func GlobalMax(prop string) string { return Call("globalMax", prop) }

// ViewportMin and ViewportMax are the visible-features range bounds.
func ViewportMin(value string) string { return Call("viewportMin", value) }
func ViewportMax(value string) string { return Call("viewportMax", value) }

// PassFilter is the always-true filter.
const PassFilter = "1"

// Animation renders the time animation filter for a column.
func Animation(column string, duration, fadeIn, fadeOut float64) string {
	return Call("animation",
		Call("linear", Prop(column)),
		Number(duration),
		Call("fade", Number(fadeIn), Number(fadeOut)),
	)
}

// AnimationFilter returns the animation filter when column is set and the
// pass filter otherwise.
func AnimationFilter(column string, duration, fadeIn, fadeOut float64) string {
	if column == "" {
		return PassFilter
	}
	return Animation(column, duration, fadeIn, fadeOut)
}
