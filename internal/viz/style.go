// Package viz compiles styles into CARTO VL viz programs and assembles
// layers, maps and layouts out of a source, a style and their legends,
// popups and widgets.
package viz

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// StyleProperties are the viz properties a style may declare.
var StyleProperties = []string{
	"color",
	"width",
	"filter",
	"strokeWidth",
	"strokeColor",
	"transform",
	"order",
	"symbol",
	"symbolPlacement",
	"resolution",
}

func isStyleProperty(name string) bool { return slices.Contains(StyleProperties, name) }

// Declarations are the variables and properties of one viz program.
// Variables set through SetVar keep their declaration order; the rest
// follow sorted by name.
type Declarations struct {
	Vars  map[string]string `json:"vars,omitempty"`
	Props map[string]string `json:"props,omitempty"`

	order []string
}

// SetVar declares or redefines a variable. A redefined variable keeps its
// first position.
func (d *Declarations) SetVar(name, value string) {
	if d.Vars == nil {
		d.Vars = map[string]string{}
	}
	if _, ok := d.Vars[name]; !ok {
		d.order = append(d.order, name)
	}
	d.Vars[name] = value
}

// VarNames lists the variable names in declaration order.
func (d Declarations) VarNames() []string {
	names := make([]string, 0, len(d.Vars))
	seen := make(map[string]bool, len(d.Vars))
	for _, name := range d.order {
		if _, ok := d.Vars[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(d.Vars)) {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

func (d Declarations) validate() error {
	for name := range d.Props {
		if !isStyleProperty(name) {
			return errdefs.Invalid("style property", name, StyleProperties...)
		}
	}
	for name := range d.Vars {
		if !expr.IsIdent(name) {
			return errdefs.Invalid("variable name", name)
		}
	}
	return nil
}

func (d Declarations) merge(o Declarations) Declarations {
	out := Declarations{Vars: map[string]string{}, Props: maps.Clone(d.Props)}
	if out.Props == nil {
		out.Props = map[string]string{}
	}
	for _, name := range d.VarNames() {
		out.SetVar(name, d.Vars[name])
	}
	for _, name := range o.VarNames() {
		out.SetVar(name, o.Vars[name])
	}
	maps.Copy(out.Props, o.Props)
	return out
}

// Style is a set of declarations, either shared by every geometry type or
// keyed by geometry type. Styles built by the helper constructors also
// carry the presentation defaults their legends, popups and widgets are
// synthesized from.
type Style struct {
	shared *Declarations
	byGeom map[geo.Type]Declarations
	helper *helper
}

// NewStyle builds a style whose declarations apply to every geometry type.
func NewStyle(d Declarations) (*Style, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &Style{shared: &d}, nil
}

// NewGeomStyle builds a style with separate declarations per geometry type.
// Compiling it for a geometry type without an entry fails.
func NewGeomStyle(byGeom map[geo.Type]Declarations) (*Style, error) {
	for g, d := range byGeom {
		if !g.Valid() {
			return nil, errdefs.Invalid("geometry type", string(g), typeNames()...)
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
	}
	return &Style{byGeom: byGeom}, nil
}

// DefaultStyle is the basic style with every default.
func DefaultStyle() *Style { return defaultStyle }

var defaultStyle = mustStyle(Basic(BasicOptions{}))

func mustStyle(s *Style, err error) *Style {
	if err != nil {
		panic(err)
	}
	return s
}

// Kind is the helper kind the style was built by; raw styles report "".
func (s *Style) Kind() StyleKind {
	if s.helper == nil {
		return ""
	}
	return s.helper.kind
}

// ValueColumn is the column a helper style is driven by.
func (s *Style) ValueColumn() string {
	if s.helper == nil {
		return ""
	}
	return s.helper.value
}

// Animate is the column a helper style animates over, if any.
func (s *Style) Animate() string {
	if s.helper == nil || s.helper.animation == nil {
		return ""
	}
	return s.helper.animation.Animate
}

// Supports reports whether the style can be compiled for g.
func (s *Style) Supports(g geo.Type) bool {
	_, ok := s.declarations(g)
	return ok
}

func (s *Style) declarations(g geo.Type) (Declarations, bool) {
	d, ok := s.byGeom[g]
	switch {
	case ok && s.shared != nil:
		return s.shared.merge(d), true
	case ok:
		return d, true
	case s.shared != nil:
		return *s.shared, true
	}
	return Declarations{}, false
}

// Compile produces the viz program for geometry type g. The geometry's
// default properties are overridden by the style's, and the style's
// variables are followed by ext (popup and widget variables, sorted by
// name). Variables are emitted first as `@name: value` in declaration
// order, then properties as `name: value` sorted by name.
func (s *Style) Compile(g geo.Type, ext map[string]string) (string, error) {
	if !g.Valid() {
		return "", errdefs.Invalid("geometry type", string(g), typeNames()...)
	}
	d, ok := s.declarations(g)
	if !ok {
		return "", errdefs.Invalid(fmt.Sprintf("geometry type for %s style", s.describe()), string(g), s.geomNames()...)
	}
	for name := range ext {
		if !expr.IsIdent(name) {
			return "", errdefs.Invalid("variable name", name)
		}
	}

	base := Declarations{}
	if s != defaultStyle {
		base, _ = defaultStyle.declarations(g)
	}
	merged := base.merge(d).merge(Declarations{Vars: ext})
	return serialize(merged), nil
}

func serialize(d Declarations) string {
	lines := make([]string, 0, len(d.Vars)+len(d.Props))
	for _, name := range d.VarNames() {
		lines = append(lines, "@"+name+": "+d.Vars[name])
	}
	for _, name := range slices.Sorted(maps.Keys(d.Props)) {
		lines = append(lines, name+": "+d.Props[name])
	}
	return strings.Join(lines, "\n")
}

func (s *Style) describe() string {
	if k := s.Kind(); k != "" {
		return string(k)
	}
	return "custom"
}

func (s *Style) geomNames() []string {
	var names []string
	for _, g := range geo.Types {
		if _, ok := s.declarations(g); ok {
			names = append(names, string(g))
		}
	}
	return names
}

func typeNames() []string {
	names := make([]string, len(geo.Types))
	for i, g := range geo.Types {
		names[i] = string(g)
	}
	return names
}

var declRe = regexp.MustCompile(`^(@?)([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)

// ParseStyle parses viz program text of `name: value` and `@var: value`
// lines. Lines that do not start a declaration continue the previous one;
// blank lines and `//` comments are skipped.
func ParseStyle(text string) (*Style, error) {
	d := Declarations{Vars: map[string]string{}, Props: map[string]string{}}
	var (
		name  string
		isVar bool
		lineN int
	)
	for _, line := range strings.Split(text, "\n") {
		lineN++
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		value := line
		switch m := declRe.FindStringSubmatch(line); {
		case m != nil:
			name, isVar, value = m[2], m[1] == "@", m[3]
		case name == "":
			return nil, fmt.Errorf("%w: style line %d: expected `name: value`, got %q", errdefs.ErrValidation, lineN, line)
		case isVar:
			value = strings.TrimSpace(d.Vars[name] + " " + line)
		default:
			value = strings.TrimSpace(d.Props[name] + " " + line)
		}
		if isVar {
			d.SetVar(name, value)
		} else {
			d.Props[name] = value
		}
	}
	return NewStyle(d)
}

// StyleFromMap builds a style from a decoded document. Keys are style
// properties, "vars" (a map of variables) or geometry type names holding a
// nested map of the same shape.
func StyleFromMap(m map[string]any) (*Style, error) {
	shared, byGeom, err := declarationsFromMap(m, true)
	if err != nil {
		return nil, err
	}
	if len(byGeom) == 0 {
		return NewStyle(shared)
	}
	s, err := NewGeomStyle(byGeom)
	if err != nil {
		return nil, err
	}
	if len(shared.Props) > 0 || len(shared.Vars) > 0 {
		if err := shared.validate(); err != nil {
			return nil, err
		}
		s.shared = &shared
	}
	return s, nil
}

func declarationsFromMap(m map[string]any, top bool) (Declarations, map[geo.Type]Declarations, error) {
	d := Declarations{Vars: map[string]string{}, Props: map[string]string{}}
	byGeom := map[geo.Type]Declarations{}
	for key, raw := range m {
		switch {
		case key == "vars":
			vars, ok := raw.(map[string]any)
			if !ok {
				return d, nil, fmt.Errorf("%w: style vars must be a map, got %T", errdefs.ErrValidation, raw)
			}
			for _, name := range slices.Sorted(maps.Keys(vars)) {
				d.SetVar(name, literal(vars[name]))
			}
		case isStyleProperty(key):
			d.Props[key] = literal(raw)
		case top && geo.Type(key).Valid():
			nested, ok := raw.(map[string]any)
			if !ok {
				return d, nil, fmt.Errorf("%w: %s style must be a map, got %T", errdefs.ErrValidation, key, raw)
			}
			gd, _, err := declarationsFromMap(nested, false)
			if err != nil {
				return d, nil, err
			}
			byGeom[geo.Type(key)] = gd
		default:
			return d, nil, errdefs.Invalid("style property", key, StyleProperties...)
		}
	}
	return d, byGeom, nil
}

func literal(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return expr.Number(t)
	case float32:
		return expr.Number(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = literal(item)
		}
		return expr.List(items)
	}
	return fmt.Sprint(v)
}
