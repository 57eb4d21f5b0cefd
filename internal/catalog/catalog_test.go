package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn, "carto_", testutil.NewTestLogger(t)), mock
}

var datasetCols = []string{"id", "name", "country_id", "category_id", "provider_id", "geography_id", "is_public_data"}

func TestRepositoryAll(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_datasets WHERE category_id = ? AND country_id = ? ORDER BY id").
		WithArgs("demographics", "esp").
		WillReturnRows(sqlmock.NewRows(datasetCols).
			AddRow("ds1", "Population", "esp", "demographics", "ine", "geo1", true).
			AddRow("ds2", "Households", "esp", "demographics", "ine", "geo2", false))

	c, err := store.Datasets().All(ctx, Filters{"country": "esp", "category": "demographics"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"ds1", "ds2"}, c.IDs())

	ds, ok := c.Get("ds1")
	require.True(t, ok)
	assert.Equal(t, "Population", ds.Name())
	assert.Equal(t, "geo1", ds.GeographyID())
	assert.True(t, ds.IsPublic())

	mock.ExpectQuery("SELECT * FROM carto_providers ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	providers, err := store.Providers().All(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, providers.Len())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFilterValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Datasets().All(ctx, Filters{"name; DROP TABLE x": "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	_, err = store.Providers().All(ctx, Filters{"country": "esp"})
	assert.True(t, errors.Is(err, errdefs.ErrValidation))
}

func TestRepositoryByID(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_countries WHERE id = ? ORDER BY id").
		WithArgs("esp").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("esp", "Spain"))
	mock.ExpectQuery("SELECT * FROM carto_countries WHERE id = ? ORDER BY id").
		WithArgs("atlantis").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	country, err := store.Countries().ByID(ctx, "esp")
	require.NoError(t, err)
	assert.Equal(t, "Spain", country.Name())

	_, err = store.Countries().ByID(ctx, "atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))
	var nf *errdefs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "atlantis", nf.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryBy(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_variables WHERE dataset_id = ? ORDER BY id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Variables().ByDataset(ctx, "missing")
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))

	_, err = store.Categories().ByCountry(ctx, "esp")
	assert.True(t, errors.Is(err, errdefs.ErrUnsupportedOperation))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelations(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_variables WHERE id = ? ORDER BY id").
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dataset_id"}).AddRow("v1", "total_pop", "ds1"))
	mock.ExpectQuery("SELECT * FROM carto_datasets WHERE id = ? ORDER BY id").
		WithArgs("ds1").
		WillReturnRows(sqlmock.NewRows(datasetCols).AddRow("ds1", "Population", "esp", "demographics", "ine", "geo1", true))
	mock.ExpectQuery("SELECT * FROM carto_providers WHERE id = ? ORDER BY id").
		WithArgs("ine").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("ine", "INE"))

	v, err := store.Variables().ByID(ctx, "v1")
	require.NoError(t, err)
	related, err := v.Related(ctx, "dataset")
	require.NoError(t, err)
	ds := related.(*Dataset)
	assert.Equal(t, "ds1", ds.ID())

	provider, err := ds.Provider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INE", provider.Name())

	_, err = ds.Related(ctx, "owners")
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	c := NewCollection([]*Dataset{ds})
	_, err = c.Related(ctx, "variables")
	assert.True(t, errors.Is(err, errdefs.ErrUnsupportedOperation))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogChain(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_datasets WHERE country_id = ? AND provider_id = ? ORDER BY id").
		WithArgs("esp", "ine").
		WillReturnRows(sqlmock.NewRows(datasetCols).
			AddRow("ds1", "Population", "esp", "demographics", "ine", "geo1", true).
			AddRow("ds2", "Income", "esp", "financial", "ine", "geo1", true))
	mock.ExpectQuery("SELECT * FROM carto_categories WHERE id IN (?, ?) ORDER BY id").
		WithArgs("demographics", "financial").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("demographics", "Demographics").
			AddRow("financial", "Financial"))

	base := New(store)
	filtered := base.Country("esp").Provider("ine")
	assert.Empty(t, base.Filters())
	assert.Equal(t, Filters{"country": "esp", "provider": "ine"}, filtered.Filters())

	cats, err := filtered.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demographics", "financial"}, cats.IDs())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRow(t *testing.T) {
	r := NewRow(map[string]any{"id": int64(7), "flag": "true", "blob": []byte("x"), "none": nil})
	assert.Equal(t, "7", r.ID())
	assert.True(t, r.Bool("flag"))
	assert.Equal(t, "x", r.Text("blob"))
	assert.Equal(t, "", r.Text("none"))
	assert.Equal(t, "", r.Text("missing"))
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestStoreLookup(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM carto_countries ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("esp", "Spain").AddRow("fra", "France"))
	rows, err := store.List(ctx, "countries", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "France", rows[1]["name"])

	mock.ExpectQuery("SELECT * FROM carto_variables WHERE id = ? ORDER BY id").
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dataset_id"}).AddRow("v1", "total_pop", "ds1"))
	row, err := store.Lookup(ctx, "variables", "v1")
	require.NoError(t, err)
	assert.Equal(t, "total_pop", row["name"])

	mock.ExpectQuery("SELECT * FROM carto_providers WHERE id = ? ORDER BY id").
		WithArgs("ine").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("ine", "INE"))
	mock.ExpectQuery("SELECT * FROM carto_datasets WHERE provider_id = ? ORDER BY id").
		WithArgs("ine").
		WillReturnRows(sqlmock.NewRows(datasetCols).AddRow("ds1", "Population", "esp", "demographics", "ine", "geo1", true))
	related, err := store.RelatedRows(ctx, "providers", "ine", "datasets")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "ds1", related[0]["id"])

	mock.ExpectQuery("SELECT * FROM carto_variables WHERE id = ? ORDER BY id").
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dataset_id"}).AddRow("v1", "total_pop", "ds1"))
	mock.ExpectQuery("SELECT * FROM carto_datasets WHERE id = ? ORDER BY id").
		WithArgs("ds1").
		WillReturnRows(sqlmock.NewRows(datasetCols).AddRow("ds1", "Population", "esp", "demographics", "ine", "geo1", true))
	related, err = store.RelatedRows(ctx, "variables", "v1", "dataset")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "Population", related[0]["name"])

	_, err = store.List(ctx, "owners", nil)
	assert.True(t, errors.Is(err, errdefs.ErrValidation))

	assert.NoError(t, mock.ExpectationsWereMet())
}
