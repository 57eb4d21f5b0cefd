package geo

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
)

// Bounds is a lon/lat bounding box. It serializes as
// [[west, south], [east, north]].
type Bounds struct {
	West  float64
	South float64
	East  float64
	North float64
}

// World covers every valid coordinate.
var World = Bounds{West: -180, South: -90, East: 180, North: 90}

// FromBound converts an orb bound.
func FromBound(b orb.Bound) Bounds {
	return Bounds{West: b.Min.Lon(), South: b.Min.Lat(), East: b.Max.Lon(), North: b.Max.Lat()}
}

// Bound converts to an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

// Union returns the smallest box containing b and o. Every box is a real
// extent: the zero value is the point at the origin.
func (b Bounds) Union(o Bounds) Bounds {
	return FromBound(b.Bound().Union(o.Bound()))
}

// Clamp limits longitudes to [-180, 180] and latitudes to [-90, 90]. Each
// coordinate is clamped on its own; south and north are never swapped.
func (b Bounds) Clamp() Bounds {
	return Bounds{
		West:  clamp(b.West, -180, 180),
		South: clamp(b.South, -90, 90),
		East:  clamp(b.East, -180, 180),
		North: clamp(b.North, -90, 90),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Pairs returns [[west, south], [east, north]].
func (b Bounds) Pairs() [][2]float64 {
	return [][2]float64{{b.West, b.South}, {b.East, b.North}}
}

func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Pairs())
}

func (b *Bounds) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := Parse(v)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Schema describes the list form for the OpenAPI document.
func (b Bounds) Schema(r huma.Registry) *huma.Schema {
	two := 2
	return &huma.Schema{
		Type:        huma.TypeArray,
		Description: "Bounding box as [[west, south], [east, north]]",
		MinItems:    &two,
		MaxItems:    &two,
		Items: &huma.Schema{
			Type:     huma.TypeArray,
			MinItems: &two,
			MaxItems: &two,
			Items:    &huma.Schema{Type: huma.TypeNumber},
		},
	}
}

// Parse accepts the three bounds spellings found in map documents:
//
//	{west: w, south: s, east: e, north: n}
//	[[w, s], [e, n]]
//	[w, s, e, n]
func Parse(v any) (Bounds, error) {
	switch t := v.(type) {
	case Bounds:
		return t, nil
	case *Bounds:
		if t == nil {
			return Bounds{}, nil
		}
		return *t, nil
	case map[string]any:
		return parseMap(t)
	case map[string]float64:
		return Bounds{West: t["west"], South: t["south"], East: t["east"], North: t["north"]}, nil
	case [][]float64:
		list := make([]any, len(t))
		for i, p := range t {
			list[i] = toAnySlice(p)
		}
		return parseList(list)
	case []float64:
		return parseList(toAnySlice(t))
	case []any:
		return parseList(t)
	}
	return Bounds{}, fmt.Errorf("unsupported bounds value of type %T", v)
}

func parseMap(m map[string]any) (Bounds, error) {
	var b Bounds
	fields := []struct {
		key string
		dst *float64
	}{
		{"west", &b.West}, {"south", &b.South}, {"east", &b.East}, {"north", &b.North},
	}
	for _, f := range fields {
		raw, ok := m[f.key]
		if !ok {
			return Bounds{}, fmt.Errorf("bounds: missing %q", f.key)
		}
		n, err := toFloat(raw)
		if err != nil {
			return Bounds{}, fmt.Errorf("bounds %s: %w", f.key, err)
		}
		*f.dst = n
	}
	return b, nil
}

func parseList(list []any) (Bounds, error) {
	var nums []float64
	switch len(list) {
	case 2:
		for _, pair := range list {
			p, ok := pair.([]any)
			if !ok {
				if fp, isFloat := pair.([]float64); isFloat {
					p = toAnySlice(fp)
				} else {
					return Bounds{}, fmt.Errorf("bounds: expected coordinate pair, got %T", pair)
				}
			}
			if len(p) != 2 {
				return Bounds{}, fmt.Errorf("bounds: coordinate pair has %d values", len(p))
			}
			for _, raw := range p {
				n, err := toFloat(raw)
				if err != nil {
					return Bounds{}, err
				}
				nums = append(nums, n)
			}
		}
	case 4:
		for _, raw := range list {
			n, err := toFloat(raw)
			if err != nil {
				return Bounds{}, err
			}
			nums = append(nums, n)
		}
	default:
		return Bounds{}, fmt.Errorf("bounds: expected 2 pairs or 4 numbers, got %d values", len(list))
	}
	return Bounds{West: nums[0], South: nums[1], East: nums[2], North: nums[3]}, nil
}

func toAnySlice(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("bounds: %v (%T) is not a number", v, v)
}
