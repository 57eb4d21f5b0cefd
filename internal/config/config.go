// Package config loads map documents: a map's options plus its inline
// layer specs, layered from defaults, a YAML file, CARTO_ environment
// variables and command-line flags.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/source"
	"github.com/joeblew999/plat-carto/internal/viz"
)

// EnvPrefix prefixes the environment overrides. Nested keys use a double
// underscore: CARTO_VIEWPORT__ZOOM=4.
const EnvPrefix = "CARTO_"

// MapDocument is a map definition file.
type MapDocument struct {
	Title       string              `json:"title,omitempty" yaml:"title,omitempty"`
	Basemap     string              `json:"basemap,omitempty" yaml:"basemap,omitempty"`
	Bounds      *geo.Bounds         `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Viewport    *viz.Viewport       `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Theme       string              `json:"theme,omitempty" yaml:"theme,omitempty"`
	ShowInfo    bool                `json:"show_info,omitempty" yaml:"show_info,omitempty"`
	Credentials *source.Credentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Layers      []service.LayerSpec `json:"layers" yaml:"layers"`
}

// MapOptions returns the document's map options.
func (d *MapDocument) MapOptions() viz.MapOptions {
	return viz.MapOptions{
		Title:    d.Title,
		Basemap:  d.Basemap,
		Bounds:   d.Bounds,
		Viewport: d.Viewport,
		Theme:    d.Theme,
		ShowInfo: d.ShowInfo,
	}
}

// LayerSpecs returns the layers with the document credentials applied to
// those that set none.
func (d *MapDocument) LayerSpecs() []service.LayerSpec {
	specs := make([]service.LayerSpec, len(d.Layers))
	for i, l := range d.Layers {
		if l.Credentials == nil {
			l.Credentials = d.Credentials
		}
		specs[i] = l
	}
	return specs
}

// Defaults are the lowest configuration layer.
var Defaults = map[string]any{
	"basemap": "positron",
}

// Flags registers the flags that override document fields.
func Flags(fs *pflag.FlagSet) {
	fs.String("title", "", "Map title")
	fs.String("basemap", "", "Basemap: positron, darkmatter, voyager or a hex color")
	fs.String("theme", "", "UI theme: light or dark")
	fs.Bool("show-info", false, "Show the map info panel")
}

// Load reads the document at path; an empty path loads defaults and
// overrides only. Only changed flags override; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*MapDocument, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var doc MapDocument
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       boundsHook,
			Result:           &doc,
			TagName:          "json",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("%w: decoding map document: %v", errdefs.ErrValidation, err)
	}
	return &doc, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var boundsType = reflect.TypeOf(geo.Bounds{})

// boundsHook accepts the [[w, s], [e, n]] and {west, south, east, north}
// forms wherever a Bounds is expected.
func boundsHook(from, to reflect.Type, data any) (any, error) {
	if to != boundsType || from == boundsType {
		return data, nil
	}
	return geo.Parse(data)
}
