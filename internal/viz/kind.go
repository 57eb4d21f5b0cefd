package viz

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// StyleKind names a style helper.
type StyleKind string

const (
	KindBasic                  StyleKind = "basic"
	KindColorBins              StyleKind = "color-bins"
	KindColorCategory          StyleKind = "color-category"
	KindColorContinuous        StyleKind = "color-continuous"
	KindSizeBins               StyleKind = "size-bins"
	KindSizeCategory           StyleKind = "size-category"
	KindSizeContinuous         StyleKind = "size-continuous"
	KindClusterSize            StyleKind = "cluster-size"
	KindClusterColorBins       StyleKind = "cluster-color-bins"
	KindClusterColorContinuous StyleKind = "cluster-color-continuous"
	KindAnimation              StyleKind = "animation"
)

// StyleKinds lists every helper kind.
var StyleKinds = []StyleKind{
	KindBasic,
	KindColorBins,
	KindColorCategory,
	KindColorContinuous,
	KindSizeBins,
	KindSizeCategory,
	KindSizeContinuous,
	KindClusterSize,
	KindClusterColorBins,
	KindClusterColorContinuous,
	KindAnimation,
}

// StyleKindNames lists the helper kind names.
func StyleKindNames() []string {
	names := make([]string, len(StyleKinds))
	for i, k := range StyleKinds {
		names[i] = string(k)
	}
	return names
}

// ParseStyleKind resolves a helper kind name.
func ParseStyleKind(name string) (StyleKind, error) {
	for _, k := range StyleKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", errdefs.Invalid("style kind", name, StyleKindNames()...)
}

// Compile builds a helper style from loosely typed parameters, such as a
// decoded request body or map document. Parameter names are the options
// fields' snake_case names; unknown names are rejected.
func Compile(kind StyleKind, value string, params map[string]any) (*Style, error) {
	switch kind {
	case KindBasic:
		var o BasicOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return Basic(o)
	case KindColorBins:
		var o ColorBinsOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ColorBins(value, o)
	case KindColorCategory:
		var o ColorCategoryOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ColorCategory(value, o)
	case KindColorContinuous:
		var o ColorContinuousOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ColorContinuous(value, o)
	case KindSizeBins:
		var o SizeBinsOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return SizeBins(value, o)
	case KindSizeCategory:
		var o SizeCategoryOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return SizeCategory(value, o)
	case KindSizeContinuous:
		var o SizeContinuousOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return SizeContinuous(value, o)
	case KindClusterSize:
		var o ClusterSizeOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ClusterSize(value, o)
	case KindClusterColorBins:
		var o ClusterColorBinsOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ClusterColorBins(value, o)
	case KindClusterColorContinuous:
		var o ClusterColorContinuousOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return ClusterColorContinuous(value, o)
	case KindAnimation:
		var o AnimationOptions
		if err := decodeParams(kind, params, &o); err != nil {
			return nil, err
		}
		return Animation(value, o)
	}
	return nil, errdefs.Invalid("style kind", string(kind), StyleKindNames()...)
}

var paletteType = reflect.TypeOf(expr.Palette{})

func paletteHook(from, to reflect.Type, data any) (any, error) {
	if to != paletteType {
		return data, nil
	}
	return expr.ParsePalette(data)
}

func decodeParams(kind StyleKind, params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       paletteHook,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %s parameters: %v", errdefs.ErrValidation, kind, err)
	}
	return nil
}

// helper carries the presentation defaults of a helper style.
type helper struct {
	kind      StyleKind
	value     string
	legend    map[geo.Type]string
	dynamic   bool
	popup     *expr.PopupStub
	widget    *WidgetOptions
	animation *Animated
}

func newHelperStyle(byGeom map[geo.Type]Declarations, h *helper) (*Style, error) {
	s, err := NewGeomStyle(byGeom)
	if err != nil {
		return nil, err
	}
	s.helper = h
	return s, nil
}

func requireValue(kind StyleKind, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s style requires a value column", errdefs.ErrValidation, kind)
	}
	return nil
}

// legendTypes builds the per-geometry legend type map `<prefix>-<geom>`.
func legendTypes(prefix string, geoms ...geo.Type) map[geo.Type]string {
	types := make(map[geo.Type]string, len(geoms))
	for _, g := range geoms {
		types[g] = prefix + "-" + string(g)
	}
	return types
}
