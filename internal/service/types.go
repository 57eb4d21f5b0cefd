// Package service contains the layer store, source files and the builder
// that turns stored layer specs into compiled viz layers.
package service

import (
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/source"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// LayerSpec is the stored, user-facing description of a layer. Huma reads
// the tags for OpenAPI and validation; koanf map documents decode into the
// same struct through the json names.
type LayerSpec struct {
	ID          string              `json:"id,omitempty" doc:"Unique layer identifier" example:"stores"`
	Name        string              `json:"name,omitempty" maxLength:"100" doc:"Display name" example:"Stores"`
	Source      SourceSpec          `json:"source" doc:"Where the layer data comes from"`
	Style       StyleSpec           `json:"style,omitempty" doc:"Style helper, raw viz program or property map"`
	Title       string              `json:"title,omitempty" doc:"Layer title shown in legends and widgets"`
	Description string              `json:"description,omitempty"`
	Footer      string              `json:"footer,omitempty"`
	Legend      *bool               `json:"legend,omitempty" doc:"false disables the style's default legend"`
	Popup       *bool               `json:"popup,omitempty" doc:"false disables the style's default popups"`
	Widget      *bool               `json:"widget,omitempty" doc:"false disables the style's default widgets"`
	Legends     []LegendSpec        `json:"legends,omitempty" doc:"Explicit legends, replacing the default"`
	Popups      []PopupSpec         `json:"popups,omitempty" doc:"Explicit popups, replacing the default"`
	Widgets     []WidgetSpec        `json:"widgets,omitempty" doc:"Explicit widgets, replacing the default"`
	MapIndex    int                 `json:"mapIndex,omitempty" minimum:"0"`
	Bounds      *geo.Bounds         `json:"bounds,omitempty" doc:"Overrides the source extent"`
	Credentials *source.Credentials `json:"credentials,omitempty"`
}

// Label is the name shown in listings.
func (s LayerSpec) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Title != "":
		return s.Title
	}
	return s.ID
}

// SourceSpec names a GeoJSON file under the sources directory, or a query
// or table name run against the database.
type SourceSpec struct {
	File       string `json:"file,omitempty" doc:"GeoJSON file under the sources directory" example:"stores.geojson"`
	Query      string `json:"query,omitempty" doc:"SQL query or table name" example:"SELECT * FROM stores"`
	GeomColumn string `json:"geomColumn,omitempty" doc:"Geometry column of the query" default:"the_geom"`
}

// StyleSpec selects at most one of a helper kind, a raw program or a
// property map. All empty means the basic default style.
type StyleSpec struct {
	Kind   string         `json:"kind,omitempty" doc:"Style helper" example:"color-bins"`
	Value  string         `json:"value,omitempty" doc:"Column the helper styles" example:"revenue"`
	Params map[string]any `json:"params,omitempty" doc:"Helper options, keyed by snake_case name"`
	Viz    string         `json:"viz,omitempty" doc:"Raw viz program"`
	Props  map[string]any `json:"props,omitempty" doc:"Style properties, optionally nested by geometry"`
}

// LegendSpec is an explicit legend.
type LegendSpec struct {
	Type        string `json:"type,omitempty" doc:"Legend type" example:"color-bins"`
	Prop        string `json:"prop,omitempty" enum:"color,stroke_color,size,stroke_width"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Dynamic     bool   `json:"dynamic,omitempty"`
	Variable    string `json:"variable,omitempty"`
}

// PopupSpec is an explicit popup entry.
type PopupSpec struct {
	Event     string `json:"event,omitempty" enum:"click,hover" default:"hover"`
	Value     string `json:"value" doc:"Column shown in the popup, or an expression when operation is set"`
	Title     string `json:"title,omitempty"`
	Format    string `json:"format,omitempty"`
	Operation bool   `json:"operation,omitempty" doc:"Value is a viz expression such as clusterAvg($pop)"`
}

// WidgetSpec is an explicit widget.
type WidgetSpec struct {
	Type        string  `json:"type,omitempty" doc:"Widget type" example:"histogram"`
	Value       string  `json:"value,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	Prop        string  `json:"prop,omitempty"`
	ReadOnly    bool    `json:"readOnly,omitempty"`
	Buckets     int     `json:"buckets,omitempty" minimum:"0"`
	Weight      float64 `json:"weight,omitempty" minimum:"0"`
	Operation   string  `json:"operation,omitempty" enum:"count,avg,min,max,sum"`
	Global      bool    `json:"global,omitempty"`
	Duration    float64 `json:"duration,omitempty" minimum:"0"`
	FadeIn      float64 `json:"fadeIn,omitempty" minimum:"0"`
	FadeOut     float64 `json:"fadeOut,omitempty" minimum:"0"`
}

// MapSpec builds a map from stored layers, in order.
type MapSpec struct {
	Title    string        `json:"title,omitempty"`
	Layers   []string      `json:"layers" doc:"Stored layer IDs, bottom first" example:"[\"stores\"]"`
	Basemap  string        `json:"basemap,omitempty" doc:"positron, darkmatter, voyager or a hex color" example:"positron"`
	Bounds   *geo.Bounds   `json:"bounds,omitempty"`
	Viewport *viz.Viewport `json:"viewport,omitempty"`
	Theme    string        `json:"theme,omitempty" enum:"light,dark"`
	ShowInfo bool          `json:"showInfo,omitempty"`
}

// Options returns the map options of the spec.
func (s MapSpec) Options() viz.MapOptions {
	return viz.MapOptions{
		Title:    s.Title,
		Basemap:  s.Basemap,
		Bounds:   s.Bounds,
		Viewport: s.Viewport,
		Theme:    s.Theme,
		ShowInfo: s.ShowInfo,
	}
}

// SourceFile represents a source data file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"stores.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
