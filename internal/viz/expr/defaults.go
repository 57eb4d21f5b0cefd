package expr

import "github.com/joeblew999/plat-carto/internal/geo"

// Default literals per geometry type. Keys that do not apply to a geometry
// (width on polygons, strokes on lines) are absent.
var defaults = map[geo.Type]map[string]string{
	geo.Point: {
		"color":       "#EE4D5A",
		"width":       "7",
		"strokeColor": "#222",
		"strokeWidth": "1",
		"opacity":     "1",
	},
	geo.Line: {
		"color":   "#4CC8A3",
		"width":   "1.5",
		"opacity": "1",
	},
	geo.Polygon: {
		"color":       "#826DBA",
		"strokeColor": "#2c2c2c",
		"strokeWidth": "1",
		"opacity":     "0.9",
	},
}

// ClusterColor is the fill of cluster styles.
const ClusterColor = "#FFB927"

// AggregatedOpacity is the opacity of size and cluster styles.
const AggregatedOpacity = "0.8"

// Default returns the literal default for prop on geometry g.
func Default(g geo.Type, prop string) (string, bool) {
	v, ok := defaults[g][prop]
	return v, ok
}

// Value returns explicit when set, else the default for (g, prop), else "".
func Value(explicit string, g geo.Type, prop string) string {
	if explicit != "" {
		return explicit
	}
	v, _ := Default(g, prop)
	return v
}

// Or returns v unless it is empty.
func Or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
