package catalog

import (
	"context"
	"maps"
)

// Catalog narrows the dataset listing step by step:
//
//	catalog.New(store).Country("esp").Category("demographics").Datasets(ctx)
//
// Each step returns a new Catalog; the receiver is not modified.
type Catalog struct {
	store   *Store
	filters Filters
}

// New starts an unfiltered catalog.
func New(store *Store) *Catalog {
	return &Catalog{store: store, filters: Filters{}}
}

func (c *Catalog) with(relation, id string) *Catalog {
	f := maps.Clone(c.filters)
	f[relation] = id
	return &Catalog{store: c.store, filters: f}
}

func (c *Catalog) Country(id string) *Catalog   { return c.with("country", id) }
func (c *Catalog) Category(id string) *Catalog  { return c.with("category", id) }
func (c *Catalog) Provider(id string) *Catalog  { return c.with("provider", id) }
func (c *Catalog) Geography(id string) *Catalog { return c.with("geography", id) }

// Filters returns a copy of the accumulated filters.
func (c *Catalog) Filters() Filters { return maps.Clone(c.filters) }

// Datasets lists the datasets matching every filter.
func (c *Catalog) Datasets(ctx context.Context) (*Collection[*Dataset], error) {
	return c.store.Datasets().All(ctx, c.filters)
}

// Geographies lists the geographies of the matching datasets.
func (c *Catalog) Geographies(ctx context.Context) (*Collection[*Geography], error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Geographies().ByIDs(ctx, distinct(datasets, (*Dataset).GeographyID))
}

// Categories lists the categories of the matching datasets.
func (c *Catalog) Categories(ctx context.Context) (*Collection[*Category], error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Categories().ByIDs(ctx, distinct(datasets, (*Dataset).CategoryID))
}

// Countries lists every country.
func (c *Catalog) Countries(ctx context.Context) (*Collection[*Country], error) {
	return c.store.Countries().All(ctx, nil)
}

// Providers lists the providers of the matching datasets.
func (c *Catalog) Providers(ctx context.Context) (*Collection[*Provider], error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Providers().ByIDs(ctx, distinct(datasets, (*Dataset).ProviderID))
}
