package catalog

import (
	"context"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// Entities are the table names the API and CLI address entities by.
var Entities = []string{"categories", "countries", "datasets", "geographies", "providers", "variables"}

// rowLister is the untyped view of a Repository.
type rowLister interface {
	rows(ctx context.Context, filters Filters) ([]map[string]any, error)
	relater(ctx context.Context, id string) (Relater, error)
}

func (r *Repository[T]) rows(ctx context.Context, filters Filters) ([]map[string]any, error) {
	c, err := r.All(ctx, filters)
	if err != nil {
		return nil, err
	}
	return c.Rows(), nil
}

func (r *Repository[T]) relater(ctx context.Context, id string) (Relater, error) {
	e, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rel, ok := any(e).(Relater)
	if !ok {
		return nil, errdefs.Unsupported("relations on %s", r.entity)
	}
	return rel, nil
}

func (s *Store) lister(entity string) (rowLister, error) {
	switch entity {
	case "categories":
		return s.Categories(), nil
	case "countries":
		return s.Countries(), nil
	case "datasets":
		return s.Datasets(), nil
	case "geographies":
		return s.Geographies(), nil
	case "providers":
		return s.Providers(), nil
	case "variables":
		return s.Variables(), nil
	}
	return nil, errdefs.Invalid("catalog entity", entity, Entities...)
}

// List returns the rows of an entity table matching filters.
func (s *Store) List(ctx context.Context, entity string, filters Filters) ([]map[string]any, error) {
	l, err := s.lister(entity)
	if err != nil {
		return nil, err
	}
	return l.rows(ctx, filters)
}

// Lookup returns one row of an entity table.
func (s *Store) Lookup(ctx context.Context, entity, id string) (map[string]any, error) {
	r, err := s.find(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	return r.Fields(), nil
}

// RelatedRows follows a named relation from one row. Single-row relations
// come back as a one-element list.
func (s *Store) RelatedRows(ctx context.Context, entity, id, relation string) ([]map[string]any, error) {
	r, err := s.find(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	related, err := r.Related(ctx, relation)
	if err != nil {
		return nil, err
	}
	switch v := related.(type) {
	case interface{ Rows() []map[string]any }:
		return v.Rows(), nil
	case Entity:
		return []map[string]any{v.Fields()}, nil
	}
	return nil, errdefs.Unsupported("relation %q of %s", relation, entity)
}

func (s *Store) find(ctx context.Context, entity, id string) (Relater, error) {
	l, err := s.lister(entity)
	if err != nil {
		return nil, err
	}
	return l.relater(ctx, id)
}
