package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/catalog"
	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/testutil"
)

const storesGeoJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-3.7,40.4]},"properties":{"revenue":1000,"opened":"2020-01-02T00:00:00Z"}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[2.17,41.38]},"properties":{"revenue":2500,"opened":"2021-06-01T00:00:00Z"}}
]}`

type testEnv struct {
	api  humatest.TestAPI
	mock sqlmock.Sqlmock
	svc  *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	dir := t.TempDir()
	logger := testutil.NewTestLogger(t)
	bus := service.NewEventBus()
	layers := service.NewLayerService(dir, bus, logger)
	sources := service.NewSourceService(dir, conn, bus, logger)
	svc := &Services{
		Layer:   layers,
		Source:  sources,
		Builder: service.NewBuilder(layers, sources, conn, logger),
		Catalog: catalog.NewStore(conn, "", logger),
		DB:      conn,
		Logger:  logger,
	}

	links := &humastar.Links{}
	cfg := huma.DefaultConfig("plat-carto API", Version)
	cfg.CreateHooks = nil
	cfg.Transformers = append(cfg.Transformers, links.Transformer())
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, svc, links)
	return &testEnv{api: api, mock: mock, svc: svc}
}

func decode[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body.Bytes(), &v))
	return v
}

func (e *testEnv) uploadStores(t *testing.T) {
	t.Helper()
	resp := e.api.Put("/api/v1/sources/stores.geojson",
		"Content-Type: application/geo+json", bytes.NewReader([]byte(storesGeoJSON)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestHealthAndInfo(t *testing.T) {
	e := newTestEnv(t)

	resp := e.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", decode[HealthBody](t, resp.Body).Status)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/layers>; rel="layers"`)

	resp = e.api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	info := decode[InfoBody](t, resp.Body)
	assert.True(t, info.DB)
	assert.True(t, info.Catalog)
	assert.Contains(t, info.StyleKinds, "color-bins")
}

func TestLayerRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.uploadStores(t)

	resp := e.api.Post("/api/v1/layers", map[string]any{
		"name":   "Stores",
		"source": map[string]any{"file": "stores.geojson"},
		"style":  map[string]any{"kind": "size-continuous", "value": "revenue"},
		"title":  "Revenue",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[service.LayerSpec](t, resp.Body)
	assert.Equal(t, "stores", created.ID)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/layers/stores/definition>; rel="definition"; method="GET"; title="Compile layer"`)

	resp = e.api.Post("/api/v1/layers", map[string]any{"name": "Stores", "source": map[string]any{"file": "stores.geojson"}})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = e.api.Post("/api/v1/layers", map[string]any{"name": "Nowhere", "source": map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Get("/api/v1/layers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]service.LayerSpec](t, resp.Body), 1)

	resp = e.api.Get("/api/v1/layers/stores/definition")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	def := decode[map[string]any](t, resp.Body)
	assert.Equal(t, "GeoJSON", def["type"])
	assert.Equal(t, "Revenue", def["title"])
	assert.Contains(t, def["viz"], "width: ramp(linear(sqrt($revenue)")
	assert.Equal(t, []any{[]any{-3.7, 40.4}, []any{2.17, 41.38}}, def["bounds"])
	assert.Equal(t, map[string]any{}, def["options"], "unused columns are pruned before date detection")

	resp = e.api.Put("/api/v1/layers/stores", map[string]any{
		"source": map[string]any{"file": "stores.geojson"},
		"style":  map[string]any{"kind": "color-bins", "value": "revenue", "params": map[string]any{"method": "median"}},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = e.api.Get("/api/v1/layers/stores/definition")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Delete("/api/v1/layers/stores")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = e.api.Get("/api/v1/layers/stores")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = e.api.Get("/api/v1/layers/stores/definition")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCompileRoute(t *testing.T) {
	e := newTestEnv(t)

	resp := e.api.Post("/api/v1/viz/compile", map[string]any{
		"kind":     "color-category",
		"value":    "type",
		"geomType": "polygon",
		"title":    "Land use",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	p := decode[service.Preview](t, resp.Body)
	assert.Contains(t, p.Viz, "color: opacity(ramp(top($type, 11), bold), 0.9)")
	require.Len(t, p.Legends, 1)
	assert.Equal(t, "color-category-polygon", p.Legends[0].Type)
	assert.Equal(t, "Land use", p.Legends[0].Title)
	require.Len(t, p.Widgets, 1)
	assert.Equal(t, "category", p.Widgets[0].Type)

	resp = e.api.Post("/api/v1/viz/compile", map[string]any{"viz": "width: 3\ncolor: red", "geomType": "line"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "color: red\nwidth: 3", decode[service.Preview](t, resp.Body).Viz)

	resp = e.api.Post("/api/v1/viz/compile", map[string]any{"kind": "heatmap", "value": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Post("/api/v1/viz/compile", map[string]any{"kind": "color-bins", "value": "x", "params": map[string]any{"bogus": 1}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestMapAndLayoutRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.uploadStores(t)
	_, err := e.svc.Layer.Create(service.LayerSpec{ID: "stores", Source: service.SourceSpec{File: "stores.geojson"}})
	require.NoError(t, err)

	resp := e.api.Post("/api/v1/maps", map[string]any{
		"layers":  []string{"stores"},
		"basemap": "voyager",
		"bounds":  [][]float64{{-1000, 1000}, {1000, -1000}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	m := decode[map[string]any](t, resp.Body)
	assert.Equal(t, []any{[]any{-180.0, 90.0}, []any{180.0, -90.0}}, m["bounds"])
	assert.Equal(t, "voyager", m["basemap"])

	resp = e.api.Post("/api/v1/maps", map[string]any{"layers": []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = e.api.Post("/api/v1/layouts", map[string]any{
		"maps":    []any{map[string]any{"layers": []string{"stores"}}, map[string]any{"layers": []string{"stores"}}},
		"columns": 1,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var layout struct {
		Maps []struct {
			Layers []struct {
				MapIndex int `json:"map_index"`
			} `json:"layers"`
		} `json:"maps"`
		Columns int `json:"columns"`
		Rows    int `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &layout))
	assert.Equal(t, 2, layout.Rows)
	assert.Equal(t, 1, layout.Maps[1].Layers[0].MapIndex)
}

func TestSourceRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.uploadStores(t)

	resp := e.api.Get("/api/v1/sources")
	require.Equal(t, http.StatusOK, resp.Code)
	files := decode[[]service.SourceFile](t, resp.Body)
	require.Len(t, files, 1)
	assert.Equal(t, "GeoJSON", files[0].FileType)

	resp = e.api.Post("/api/v1/sources/inspect", map[string]any{"file": "stores.geojson"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	info := decode[service.SourceInfo](t, resp.Body)
	assert.Equal(t, "point", string(info.GeomType))
	assert.Equal(t, []string{"opened"}, info.DateColumns)
	assert.NotNil(t, info.Bounds)

	e.mock.ExpectQuery(`SELECT ST_GeometryType("the_geom") FROM (SELECT * FROM roads) AS q WHERE "the_geom" IS NOT NULL LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"t"}))
	resp = e.api.Post("/api/v1/sources/inspect", map[string]any{"query": "roads"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Put("/api/v1/sources/notes.txt", "Content-Type: text/plain", bytes.NewReader([]byte("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Delete("/api/v1/sources/stores.geojson")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = e.api.Delete("/api/v1/sources/stores.geojson")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestCatalogRoutes(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery("SELECT * FROM datasets WHERE country_id = ? ORDER BY id").
		WithArgs("esp").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "country_id"}).
			AddRow("ds1", "Population", "esp").
			AddRow("ds2", "Income", "esp"))
	resp := e.api.Get("/api/v1/catalog/datasets?country=esp&limit=1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	page := decode[humastar.PageBody[map[string]any]](t, resp.Body)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "ds1", page.Data[0]["id"])
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/catalog/datasets?offset=1&limit=1>; rel="next"`)

	e.mock.ExpectQuery("SELECT * FROM countries WHERE id = ? ORDER BY id").
		WithArgs("atl").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	resp = e.api.Get("/api/v1/catalog/countries/atl")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	e.mock.ExpectQuery("SELECT * FROM countries WHERE id = ? ORDER BY id").
		WithArgs("esp").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("esp", "Spain"))
	resp = e.api.Get("/api/v1/catalog/countries/esp/owners")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = e.api.Get("/api/v1/catalog/planets")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestQueryRoute(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery("SELECT * FROM (SELECT 1 AS x) AS q LIMIT ?").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1)))
	resp := e.api.Post("/api/v1/query", map[string]any{"query": "SELECT 1 AS x;"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[QueryBody](t, resp.Body)
	assert.Equal(t, []string{"x"}, body.Columns)
	assert.Equal(t, 1, body.Count)

	resp = e.api.Post("/api/v1/query", map[string]any{"query": "DROP TABLE stores"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	assert.NoError(t, e.mock.ExpectationsWereMet())
}
