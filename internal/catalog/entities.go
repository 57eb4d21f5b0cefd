package catalog

import (
	"context"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// Category groups datasets by subject (demographics, financial, ...).
type Category struct {
	Row
	store *Store
}

func newCategory(s *Store, r Row) *Category { return &Category{Row: r, store: s} }

func (c *Category) Name() string { return c.Text("name") }

func (c *Category) Datasets(ctx context.Context) (*Collection[*Dataset], error) {
	return c.store.Datasets().ByCategory(ctx, c.ID())
}

// Geographies are the geographies of the category's datasets.
func (c *Category) Geographies(ctx context.Context) (*Collection[*Geography], error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Geographies().ByIDs(ctx, distinct(datasets, (*Dataset).GeographyID))
}

// Related resolves "datasets" or "geographies".
func (c *Category) Related(ctx context.Context, name string) (any, error) {
	switch name {
	case "datasets":
		return c.Datasets(ctx)
	case "geographies":
		return c.Geographies(ctx)
	}
	return nil, errdefs.Invalid("category relation", name, "datasets", "geographies")
}

// Country is identified by its ISO 3166-1 alpha-3 code.
type Country struct {
	Row
	store *Store
}

func newCountry(s *Store, r Row) *Country { return &Country{Row: r, store: s} }

func (c *Country) Name() string { return c.Text("name") }

func (c *Country) Datasets(ctx context.Context) (*Collection[*Dataset], error) {
	return c.store.Datasets().ByCountry(ctx, c.ID())
}

func (c *Country) Geographies(ctx context.Context) (*Collection[*Geography], error) {
	return c.store.Geographies().ByCountry(ctx, c.ID())
}

// Categories are the categories of the country's datasets.
func (c *Country) Categories(ctx context.Context) (*Collection[*Category], error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Categories().ByIDs(ctx, distinct(datasets, (*Dataset).CategoryID))
}

// Related resolves "datasets", "geographies" or "categories".
func (c *Country) Related(ctx context.Context, name string) (any, error) {
	switch name {
	case "datasets":
		return c.Datasets(ctx)
	case "geographies":
		return c.Geographies(ctx)
	case "categories":
		return c.Categories(ctx)
	}
	return nil, errdefs.Invalid("country relation", name, "datasets", "geographies", "categories")
}

// Dataset is a published table of variables over one geography.
type Dataset struct {
	Row
	store *Store
}

func newDataset(s *Store, r Row) *Dataset { return &Dataset{Row: r, store: s} }

func (d *Dataset) Name() string        { return d.Text("name") }
func (d *Dataset) Description() string { return d.Text("description") }
func (d *Dataset) CountryID() string   { return d.Text("country_id") }
func (d *Dataset) CategoryID() string  { return d.Text("category_id") }
func (d *Dataset) ProviderID() string  { return d.Text("provider_id") }
func (d *Dataset) GeographyID() string { return d.Text("geography_id") }
func (d *Dataset) IsPublic() bool      { return d.Bool("is_public_data") }

func (d *Dataset) Variables(ctx context.Context) (*Collection[*Variable], error) {
	return d.store.Variables().ByDataset(ctx, d.ID())
}

func (d *Dataset) Geography(ctx context.Context) (*Geography, error) {
	return d.store.Geographies().ByID(ctx, d.GeographyID())
}

func (d *Dataset) Provider(ctx context.Context) (*Provider, error) {
	return d.store.Providers().ByID(ctx, d.ProviderID())
}

func (d *Dataset) Category(ctx context.Context) (*Category, error) {
	return d.store.Categories().ByID(ctx, d.CategoryID())
}

// Related resolves "variables", "geography", "provider" or "category".
func (d *Dataset) Related(ctx context.Context, name string) (any, error) {
	switch name {
	case "variables":
		return d.Variables(ctx)
	case "geography":
		return d.Geography(ctx)
	case "provider":
		return d.Provider(ctx)
	case "category":
		return d.Category(ctx)
	}
	return nil, errdefs.Invalid("dataset relation", name, "variables", "geography", "provider", "category")
}

// Geography is a set of boundaries datasets are aggregated over.
type Geography struct {
	Row
	store *Store
}

func newGeography(s *Store, r Row) *Geography { return &Geography{Row: r, store: s} }

func (g *Geography) Name() string       { return g.Text("name") }
func (g *Geography) CountryID() string  { return g.Text("country_id") }
func (g *Geography) ProviderID() string { return g.Text("provider_id") }

func (g *Geography) Datasets(ctx context.Context) (*Collection[*Dataset], error) {
	return g.store.Datasets().ByGeography(ctx, g.ID())
}

// Related resolves "datasets".
func (g *Geography) Related(ctx context.Context, name string) (any, error) {
	if name == "datasets" {
		return g.Datasets(ctx)
	}
	return nil, errdefs.Invalid("geography relation", name, "datasets")
}

// Provider is the organization publishing datasets.
type Provider struct {
	Row
	store *Store
}

func newProvider(s *Store, r Row) *Provider { return &Provider{Row: r, store: s} }

func (p *Provider) Name() string { return p.Text("name") }

func (p *Provider) Datasets(ctx context.Context) (*Collection[*Dataset], error) {
	return p.store.Datasets().ByProvider(ctx, p.ID())
}

// Related resolves "datasets".
func (p *Provider) Related(ctx context.Context, name string) (any, error) {
	if name == "datasets" {
		return p.Datasets(ctx)
	}
	return nil, errdefs.Invalid("provider relation", name, "datasets")
}

// Variable is one column of a dataset.
type Variable struct {
	Row
	store *Store
}

func newVariable(s *Store, r Row) *Variable { return &Variable{Row: r, store: s} }

func (v *Variable) Name() string        { return v.Text("name") }
func (v *Variable) Description() string { return v.Text("description") }
func (v *Variable) Column() string      { return v.Text("column_name") }
func (v *Variable) DBType() string      { return v.Text("db_type") }
func (v *Variable) Agg() string         { return v.Text("agg_method") }
func (v *Variable) DatasetID() string   { return v.Text("dataset_id") }

func (v *Variable) Dataset(ctx context.Context) (*Dataset, error) {
	return v.store.Datasets().ByID(ctx, v.DatasetID())
}

// Related resolves "dataset".
func (v *Variable) Related(ctx context.Context, name string) (any, error) {
	if name == "dataset" {
		return v.Dataset(ctx)
	}
	return nil, errdefs.Invalid("variable relation", name, "dataset")
}

// Relater is an entity that navigates relations by name.
type Relater interface {
	Entity
	Related(ctx context.Context, name string) (any, error)
}

func distinct[T Entity](c *Collection[T], key func(T) string) []string {
	var ids []string
	seen := map[string]bool{}
	for _, it := range c.items {
		k := key(it)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		ids = append(ids, k)
	}
	return ids
}
