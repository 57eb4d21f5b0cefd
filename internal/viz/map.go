package viz

import (
	"regexp"
	"slices"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

// Basemaps are the named CARTO basemaps.
var Basemaps = []string{"positron", "darkmatter", "voyager"}

// Themes are the accepted UI themes; empty means the renderer default.
var Themes = []string{"light", "dark"}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Viewport fixes the initial camera. Unset fields are left to the renderer.
type Viewport struct {
	Zoom    *float64 `json:"zoom,omitempty" yaml:"zoom,omitempty" minimum:"0" maximum:"24"`
	Lat     *float64 `json:"lat,omitempty" yaml:"lat,omitempty" minimum:"-90" maximum:"90"`
	Lng     *float64 `json:"lng,omitempty" yaml:"lng,omitempty" minimum:"-180" maximum:"180"`
	Bearing *float64 `json:"bearing,omitempty" yaml:"bearing,omitempty"`
	Pitch   *float64 `json:"pitch,omitempty" yaml:"pitch,omitempty" minimum:"0" maximum:"60"`
}

// MapOptions configure a map.
type MapOptions struct {
	Title    string
	Basemap  string
	Bounds   *geo.Bounds
	Viewport *Viewport
	Theme    string
	ShowInfo bool
}

// Map is an ordered stack of layers over a basemap.
type Map struct {
	layers []*Layer
	opts   MapOptions
	bounds geo.Bounds
}

// NewMap validates the basemap and theme and resolves the map bounds:
// the explicit bounds, or the union of the layer bounds, clamped to valid
// coordinates. Layers without an extent are skipped; a map where no layer
// has one covers the world.
func NewMap(layers []*Layer, o MapOptions) (*Map, error) {
	if o.Basemap != "" && !slices.Contains(Basemaps, o.Basemap) && !hexColorRe.MatchString(o.Basemap) {
		return nil, errdefs.Invalid("basemap", o.Basemap, append(slices.Clone(Basemaps), "#rrggbb")...)
	}
	if o.Theme != "" && !slices.Contains(Themes, o.Theme) {
		return nil, errdefs.Invalid("theme", o.Theme, Themes...)
	}

	var (
		b     geo.Bounds
		found bool
	)
	if o.Bounds != nil {
		b, found = *o.Bounds, true
	} else {
		for _, l := range layers {
			lb, ok := l.Bounds()
			switch {
			case !ok:
			case !found:
				b, found = lb, true
			default:
				b = b.Union(lb)
			}
		}
	}
	if !found {
		b = geo.World
	}
	return &Map{layers: layers, opts: o, bounds: b.Clamp()}, nil
}

func (m *Map) Layers() []*Layer   { return m.layers }
func (m *Map) Bounds() geo.Bounds { return m.bounds }

// MapDefinition is the renderer-facing map record.
type MapDefinition struct {
	Title      string       `json:"title,omitempty"`
	Layers     []Definition `json:"layers"`
	Basemap    string       `json:"basemap,omitempty"`
	Bounds     geo.Bounds   `json:"bounds"`
	Viewport   *Viewport    `json:"viewport,omitempty"`
	Theme      string       `json:"theme,omitempty"`
	ShowInfo   bool         `json:"show_info"`
	HasLegends bool         `json:"has_legends"`
	HasWidgets bool         `json:"has_widgets"`
}

// Definition renders the map and its layers. Each layer keeps the map
// index it was built with.
func (m *Map) Definition() MapDefinition {
	return m.definition(-1)
}

// definition renders the map at a layout position; a negative index keeps
// the layers' own map indices.
func (m *Map) definition(index int) MapDefinition {
	d := MapDefinition{
		Title:    m.opts.Title,
		Layers:   make([]Definition, len(m.layers)),
		Basemap:  m.opts.Basemap,
		Bounds:   m.bounds,
		Viewport: m.opts.Viewport,
		Theme:    m.opts.Theme,
		ShowInfo: m.opts.ShowInfo,
	}
	for i, l := range m.layers {
		d.Layers[i] = l.Definition()
		if index >= 0 {
			d.Layers[i].MapIndex = index
		}
		d.HasLegends = d.HasLegends || l.HasLegends()
		d.HasWidgets = d.HasWidgets || l.HasWidgets()
	}
	return d
}

// Layout arranges maps in a grid. Its definition reports the map index of
// every layer as the position of its map; the layers are not modified, so a
// map may appear at several positions.
type Layout struct {
	maps    []*Map
	columns int
}

// NewLayout builds a grid with the given number of columns; zero puts
// every map in one row.
func NewLayout(maps []*Map, columns int) (*Layout, error) {
	if len(maps) == 0 {
		return nil, errdefs.Invalid("layout", "empty")
	}
	if columns < 0 {
		return nil, errdefs.Invalid("layout columns", "negative")
	}
	if columns == 0 || columns > len(maps) {
		columns = len(maps)
	}
	return &Layout{maps: maps, columns: columns}, nil
}

// LayoutDefinition is the renderer-facing layout record.
type LayoutDefinition struct {
	Maps    []MapDefinition `json:"maps"`
	Columns int             `json:"columns"`
	Rows    int             `json:"rows"`
}

// Definition renders every map.
func (l *Layout) Definition() LayoutDefinition {
	d := LayoutDefinition{
		Maps:    make([]MapDefinition, len(l.maps)),
		Columns: l.columns,
		Rows:    (len(l.maps) + l.columns - 1) / l.columns,
	}
	for i, m := range l.maps {
		d.Maps[i] = m.definition(i)
	}
	return d
}
