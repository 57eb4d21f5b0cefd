// Package source wraps layer data (GeoJSON feature collections and SQL
// queries) behind the interface layer assembly consumes: geometry type,
// bounds, referenced columns, date columns and the serialized payload.
package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

// Kind is the payload kind sent to the renderer.
type Kind string

const (
	KindQuery   Kind = "Query"
	KindGeoJSON Kind = "GeoJSON"
)

// Credentials identify the remote SQL service account the renderer uses to
// fetch Query sources.
type Credentials struct {
	Username string `json:"username" yaml:"username" doc:"Account user name"`
	APIKey   string `json:"api_key" yaml:"api_key" doc:"Account API key"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty" doc:"SQL API base URL"`
}

// Source is a layer data source.
type Source interface {
	Type() Kind
	// Data is the serialized payload: query text or a GeoJSON document.
	Data() any
	// GeomType inspects the data and returns its geometry family.
	GeomType(ctx context.Context) (geo.Type, error)
	// ComputeMetadata resolves bounds and date columns, restricting the
	// payload to columns when the kind supports it.
	ComputeMetadata(ctx context.Context, columns []string) error
	// Bounds is the extent found by ComputeMetadata; ok is false when the
	// data has no geometries.
	Bounds() (b geo.Bounds, ok bool)
	Credentials() *Credentials
	DateColumns() []string
}

// Option configures sources built by New.
type Option func(*options)

type options struct {
	db          *sql.DB
	credentials *Credentials
	geomColumn  string
}

// WithDB sets the connection SQL sources run their metadata queries on.
func WithDB(db *sql.DB) Option { return func(o *options) { o.db = db } }

// WithCredentials attaches account credentials.
func WithCredentials(c *Credentials) Option { return func(o *options) { o.credentials = c } }

// WithGeomColumn overrides the geometry column of SQL sources.
func WithGeomColumn(col string) Option { return func(o *options) { o.geomColumn = col } }

var queryRe = regexp.MustCompile(`(?is)^\s*(WITH|SELECT)\s+`)

// IsQuery reports whether text is a SQL query rather than a table name.
func IsQuery(text string) bool { return queryRe.MatchString(text) }

// New normalizes raw layer input into a Source: an existing Source passes
// through; strings become SQL sources; feature collections and GeoJSON
// bytes become GeoJSON sources.
func New(v any, opts ...Option) (Source, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	switch t := v.(type) {
	case Source:
		return t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, errdefs.Invalid("source", t, kindNames()...)
		}
		return NewSQL(o.db, t, opts...), nil
	case *geojson.FeatureCollection:
		if t == nil {
			break
		}
		return NewGeoJSON(t, opts...), nil
	case geojson.FeatureCollection:
		return NewGeoJSON(&t, opts...), nil
	case []byte:
		fc, err := geojson.UnmarshalFeatureCollection(t)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson source: %w", err)
		}
		return NewGeoJSON(fc, opts...), nil
	case json.RawMessage:
		return New([]byte(t), opts...)
	}
	return nil, errdefs.Invalid("source type", fmt.Sprintf("%T", v), kindNames()...)
}

func kindNames() []string {
	return []string{"sql query", "table name", "geojson feature collection", "source"}
}
