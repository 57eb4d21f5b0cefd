package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

// DefaultGeomColumn is the geometry column of SQL sources.
const DefaultGeomColumn = "the_geom"

var dateTypes = map[string]bool{
	"DATE":                     true,
	"TIMESTAMP":                true,
	"TIMESTAMPTZ":              true,
	"TIMESTAMP WITH TIME ZONE": true,
	"TIMESTAMP_S":              true,
	"TIMESTAMP_MS":             true,
	"TIMESTAMP_NS":             true,
}

// SQL is a query (or table) source. Metadata is resolved by running
// aggregate queries over the query as a subselect.
type SQL struct {
	db          *sql.DB
	query       string
	geomColumn  string
	credentials *Credentials
	bounds      geo.Bounds
	hasBounds   bool
	dateColumns []string
}

// NewSQL builds a SQL source from a query or a bare table name.
func NewSQL(db *sql.DB, text string, opts ...Option) *SQL {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.db != nil {
		db = o.db
	}
	query := strings.TrimSpace(text)
	if !IsQuery(query) {
		query = "SELECT * FROM " + query
	}
	query = strings.TrimRight(query, "; \n\t")
	geom := o.geomColumn
	if geom == "" {
		geom = DefaultGeomColumn
	}
	return &SQL{db: db, query: query, geomColumn: geom, credentials: o.credentials}
}

func (s *SQL) Type() Kind { return KindQuery }

// Data is the query text.
func (s *SQL) Data() any { return s.query }

func (s *SQL) Query() string { return s.query }

func (s *SQL) Credentials() *Credentials { return s.credentials }

func (s *SQL) Bounds() (geo.Bounds, bool) { return s.bounds, s.hasBounds }

func (s *SQL) DateColumns() []string { return s.dateColumns }

func (s *SQL) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.New("sql source: no database connection configured")
	}
	return s.db, nil
}

// GeomType inspects the first non-null geometry.
func (s *SQL) GeomType(ctx context.Context) (geo.Type, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}
	g := quoteIdent(s.geomColumn)
	q := fmt.Sprintf("SELECT ST_GeometryType(%s) FROM (%s) AS q WHERE %s IS NOT NULL LIMIT 1", g, s.query, g)

	var name string
	if err := db.QueryRowContext(ctx, q).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: query returned no geometries", errdefs.ErrValidation)
		}
		return "", fmt.Errorf("detecting geometry type: %w", err)
	}
	t, ok := geo.FromName(name)
	if !ok {
		return "", errdefs.Invalid("geometry", name, "POINT", "LINESTRING", "POLYGON")
	}
	return t, nil
}

// ComputeMetadata resolves the extent of the geometry column and the date
// typed columns. SQL sources are never pruned: the renderer selects the
// columns it needs.
func (s *SQL) ComputeMetadata(ctx context.Context, columns []string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	g := quoteIdent(s.geomColumn)
	q := fmt.Sprintf(
		"SELECT MIN(ST_XMin(%[1]s)), MIN(ST_YMin(%[1]s)), MAX(ST_XMax(%[1]s)), MAX(ST_YMax(%[1]s)) FROM (%[2]s) AS q",
		g, s.query)

	var w, so, e, n sql.NullFloat64
	if err := db.QueryRowContext(ctx, q).Scan(&w, &so, &e, &n); err != nil {
		return fmt.Errorf("computing bounds: %w", err)
	}
	if w.Valid && so.Valid && e.Valid && n.Valid {
		s.bounds = geo.Bounds{West: w.Float64, South: so.Float64, East: e.Float64, North: n.Float64}
		s.hasBounds = true
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT 0", s.query))
	if err != nil {
		return fmt.Errorf("describing query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("describing query: %w", err)
	}
	s.dateColumns = nil
	for _, ct := range types {
		if dateTypes[strings.ToUpper(ct.DatabaseTypeName())] {
			s.dateColumns = append(s.dateColumns, ct.Name())
		}
	}
	return rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
