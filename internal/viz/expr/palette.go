package expr

import (
	"fmt"
	"strings"
)

// Palette is either a named CARTO palette (purpor, bluyl, ...) or a list of
// color tokens. The zero value means "use the style's default".
type Palette struct {
	name   string
	colors []string
}

// NamedPalette references a palette by name. A string that is already an
// expression list ("[red, blue]") passes through unchanged too.
func NamedPalette(name string) Palette { return Palette{name: strings.TrimSpace(name)} }

// ColorPalette builds a palette from color tokens.
func ColorPalette(colors ...string) Palette {
	return Palette{colors: append([]string(nil), colors...)}
}

// IsZero reports whether no palette was given.
func (p Palette) IsZero() bool { return p.name == "" && len(p.colors) == 0 }

// String serializes the palette: color lists render as [c1, c2]; names pass
// through.
func (p Palette) String() string {
	if len(p.colors) > 0 {
		return List(p.colors)
	}
	return p.name
}

// Or serializes p, or returns fallback when p is zero.
func (p Palette) Or(fallback string) string {
	if p.IsZero() {
		return fallback
	}
	return p.String()
}

// ParsePalette accepts a name or a list of color tokens.
func ParsePalette(v any) (Palette, error) {
	switch t := v.(type) {
	case nil:
		return Palette{}, nil
	case Palette:
		return t, nil
	case string:
		return NamedPalette(t), nil
	case []string:
		return ColorPalette(t...), nil
	case []any:
		colors := make([]string, len(t))
		for i, c := range t {
			s, ok := c.(string)
			if !ok {
				return Palette{}, fmt.Errorf("palette color %d: expected string, got %T", i, c)
			}
			colors[i] = s
		}
		return ColorPalette(colors...), nil
	}
	return Palette{}, fmt.Errorf("palette: unsupported value of type %T", v)
}
