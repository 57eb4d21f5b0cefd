package source

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/geo"
)

func pointCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	a := geojson.NewFeature(orb.Point{-3.7, 40.4})
	a.Properties["name"] = "Madrid"
	a.Properties["pop"] = 3.2e6
	a.Properties["founded"] = "0865-01-01"
	b := geojson.NewFeature(orb.Point{2.17, 41.38})
	b.Properties["name"] = "Barcelona"
	b.Properties["pop"] = 1.6e6
	b.Properties["updated"] = "2020-05-01T10:00:00Z"
	return fc.Append(a).Append(b)
}

func TestNew(t *testing.T) {
	src, err := New("SELECT * FROM cities")
	require.NoError(t, err)
	assert.Equal(t, KindQuery, src.Type())
	assert.Equal(t, "SELECT * FROM cities", src.Data())

	src, err = New("cities")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM cities", src.Data())

	src, err = New(pointCollection())
	require.NoError(t, err)
	assert.Equal(t, KindGeoJSON, src.Type())

	again, err := New(src)
	require.NoError(t, err)
	assert.Same(t, src, again)

	src, err = New([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Equal(t, KindGeoJSON, src.Type())

	_, err = New(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	_, err = New("  ")
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestIsQuery(t *testing.T) {
	assert.True(t, IsQuery("select 1"))
	assert.True(t, IsQuery("  WITH a AS (SELECT 1) SELECT * FROM a"))
	assert.False(t, IsQuery("selected_cities"))
}

func TestGeoJSONMetadata(t *testing.T) {
	ctx := context.Background()
	src := NewGeoJSON(pointCollection())

	g, err := src.GeomType(ctx)
	require.NoError(t, err)
	assert.Equal(t, geo.Point, g)

	require.NoError(t, src.ComputeMetadata(ctx, []string{"pop", "updated"}))
	b, ok := src.Bounds()
	assert.True(t, ok)
	assert.Equal(t, geo.Bounds{West: -3.7, South: 40.4, East: 2.17, North: 41.38}, b)
	assert.Equal(t, []string{"updated"}, src.DateColumns())

	data := src.Data().(*geojson.FeatureCollection)
	require.Len(t, data.Features, 2)
	assert.Equal(t, geojson.Properties{"pop": 3.2e6}, data.Features[0].Properties)
	assert.Contains(t, src.fc.Features[0].Properties, "name", "input collection is untouched")
}

func TestGeoJSONEmpty(t *testing.T) {
	src := NewGeoJSON(geojson.NewFeatureCollection())
	_, err := src.GeomType(context.Background())
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	require.NoError(t, src.ComputeMetadata(context.Background(), nil))
	_, ok := src.Bounds()
	assert.False(t, ok)
}

func TestGeoJSONOriginBounds(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{0, 0}))
	src := NewGeoJSON(fc)

	require.NoError(t, src.ComputeMetadata(context.Background(), nil))
	b, ok := src.Bounds()
	assert.True(t, ok, "a point at the origin is a real extent")
	assert.Equal(t, geo.Bounds{}, b)
}

func TestSQLGeomType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT ST_GeometryType\("the_geom"\) FROM \(SELECT \* FROM roads\) AS q`).
		WillReturnRows(sqlmock.NewRows([]string{"st_geometrytype"}).AddRow("MULTILINESTRING"))

	src := NewSQL(db, "roads")
	g, err := src.GeomType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, geo.Line, g)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGeomTypeNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`ST_GeometryType\("geom"\)`).
		WillReturnRows(sqlmock.NewRows([]string{"st_geometrytype"}))

	src := NewSQL(db, "SELECT * FROM empty;", WithGeomColumn("geom"))
	_, err = src.GeomType(context.Background())
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLComputeMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT MIN\(ST_XMin`).
		WillReturnRows(sqlmock.NewRows([]string{"w", "s", "e", "n"}).AddRow(-10.0, -5.0, 20.0, 15.0))
	mock.ExpectQuery(`LIMIT 0`).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(
			mock.NewColumn("name").OfType("VARCHAR", ""),
			mock.NewColumn("observed").OfType("TIMESTAMP", nil),
			mock.NewColumn("day").OfType("DATE", nil),
		))

	src := NewSQL(db, "SELECT * FROM events")
	require.NoError(t, src.ComputeMetadata(context.Background(), nil))
	b, ok := src.Bounds()
	assert.True(t, ok)
	assert.Equal(t, geo.Bounds{West: -10, South: -5, East: 20, North: 15}, b)
	assert.Equal(t, []string{"observed", "day"}, src.DateColumns())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLComputeMetadataEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT MIN\(ST_XMin`).
		WillReturnRows(sqlmock.NewRows([]string{"w", "s", "e", "n"}).AddRow(nil, nil, nil, nil))
	mock.ExpectQuery(`LIMIT 0`).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(mock.NewColumn("name").OfType("VARCHAR", "")))

	src := NewSQL(db, "empty_table")
	require.NoError(t, src.ComputeMetadata(context.Background(), nil))
	_, ok := src.Bounds()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLWithoutDB(t *testing.T) {
	src := NewSQL(nil, "cities")
	_, err := src.GeomType(context.Background())
	assert.Error(t, err)
}
