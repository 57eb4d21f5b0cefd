package source

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

// GeoJSON is an in-memory feature collection source.
type GeoJSON struct {
	fc          *geojson.FeatureCollection
	data        *geojson.FeatureCollection
	credentials *Credentials
	bounds      geo.Bounds
	hasBounds   bool
	dateColumns []string
}

// NewGeoJSON wraps a feature collection. The collection is not modified.
func NewGeoJSON(fc *geojson.FeatureCollection, opts ...Option) *GeoJSON {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &GeoJSON{fc: fc, data: fc, credentials: o.credentials}
}

func (s *GeoJSON) Type() Kind { return KindGeoJSON }

// Data returns the (possibly pruned) feature collection.
func (s *GeoJSON) Data() any { return s.data }

func (s *GeoJSON) Credentials() *Credentials { return s.credentials }

func (s *GeoJSON) Bounds() (geo.Bounds, bool) { return s.bounds, s.hasBounds }

func (s *GeoJSON) DateColumns() []string { return s.dateColumns }

// GeomType returns the family of the first feature with a geometry.
func (s *GeoJSON) GeomType(ctx context.Context) (geo.Type, error) {
	for _, f := range s.fc.Features {
		if f.Geometry == nil {
			continue
		}
		t, ok := geo.FromGeometry(f.Geometry)
		if !ok {
			return "", errdefs.Invalid("geometry", f.Geometry.GeoJSONType(), "Point", "LineString", "Polygon")
		}
		return t, nil
	}
	return "", fmt.Errorf("%w: geojson source has no features with a geometry", errdefs.ErrValidation)
}

// ComputeMetadata computes the collection bounds, detects date columns and
// keeps only the listed properties on every feature. A nil column list
// keeps all properties.
func (s *GeoJSON) ComputeMetadata(ctx context.Context, columns []string) error {
	var (
		bound orb.Bound
		found bool
	)
	for _, f := range s.fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			bound, found = f.Geometry.Bound(), true
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	if found {
		s.bounds, s.hasBounds = geo.FromBound(bound), true
	}

	s.dateColumns = s.detectDates(columns)
	s.data = s.prune(columns)
	return nil
}

func (s *GeoJSON) prune(columns []string) *geojson.FeatureCollection {
	if columns == nil {
		return s.fc
	}
	keep := make(map[string]bool, len(columns))
	for _, c := range columns {
		keep[c] = true
	}

	out := geojson.NewFeatureCollection()
	out.BBox = s.fc.BBox
	for _, f := range s.fc.Features {
		nf := geojson.NewFeature(f.Geometry)
		nf.ID = f.ID
		for k, v := range f.Properties {
			if keep[k] {
				nf.Properties[k] = v
			}
		}
		out.Append(nf)
	}
	return out
}

// detectDates reports the columns whose non-null values are all times or
// RFC 3339 timestamp strings.
func (s *GeoJSON) detectDates(columns []string) []string {
	candidates := columns
	if candidates == nil {
		seen := map[string]bool{}
		for _, f := range s.fc.Features {
			for k := range f.Properties {
				if !seen[k] {
					seen[k] = true
					candidates = append(candidates, k)
				}
			}
		}
		slices.Sort(candidates)
	}

	var dates []string
	for _, col := range candidates {
		if isDateColumn(s.fc.Features, col) {
			dates = append(dates, col)
		}
	}
	return dates
}

func isDateColumn(features []*geojson.Feature, col string) bool {
	found := false
	for _, f := range features {
		v, ok := f.Properties[col]
		if !ok || v == nil {
			continue
		}
		if !isDate(v) {
			return false
		}
		found = true
	}
	return found
}

func isDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case string:
		if _, err := time.Parse(time.RFC3339, t); err == nil {
			return true
		}
		_, err := time.Parse(time.DateOnly, t)
		return err == nil
	}
	return false
}
