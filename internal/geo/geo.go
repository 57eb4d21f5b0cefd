// Package geo holds the geometry type enumeration and the bounding box type
// shared by sources, layers and maps.
package geo

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// Type is the geometry family of a layer.
type Type string

const (
	Point   Type = "point"
	Line    Type = "line"
	Polygon Type = "polygon"
)

// Types lists every geometry type in canonical order.
var Types = []Type{Point, Line, Polygon}

func (t Type) String() string { return string(t) }

// Valid reports whether t is one of Types.
func (t Type) Valid() bool {
	switch t {
	case Point, Line, Polygon:
		return true
	}
	return false
}

// ParseType parses a geometry type name ("point", "line", "polygon").
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errdefs.Invalid("geometry type", s, typeNames()...)
	}
	return t, nil
}

func typeNames() []string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return names
}

// FromGeometry maps an orb geometry to its family.
func FromGeometry(g orb.Geometry) (Type, bool) {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return Point, true
	case orb.LineString, orb.MultiLineString:
		return Line, true
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return Polygon, true
	}
	return "", false
}

// FromName maps a SQL geometry type name such as "MULTIPOLYGON" or
// "ST_LineString" to its family.
func FromName(name string) (Type, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "ST_")
	n = strings.TrimPrefix(n, "MULTI")
	switch n {
	case "POINT":
		return Point, true
	case "LINESTRING", "LINE":
		return Line, true
	case "POLYGON":
		return Polygon, true
	}
	return "", false
}
