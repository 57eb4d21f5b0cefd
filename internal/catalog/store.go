package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/joeblew999/plat-carto/internal/db"
	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// Relation column names, keyed by relation.
var relationColumns = map[string]string{
	"country":   "country_id",
	"category":  "category_id",
	"provider":  "provider_id",
	"geography": "geography_id",
	"dataset":   "dataset_id",
}

// Filters restrict a listing: relation names (country, category, ...)
// or plain column names, to the value the column must equal.
type Filters map[string]string

// Store hands out repositories over one database handle. Table names are
// the plural entity names behind an optional prefix.
type Store struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

// NewStore creates a store. The caller owns db.
func NewStore(db *sql.DB, prefix string, logger *slog.Logger) *Store {
	return &Store{db: db, prefix: prefix, logger: logger}
}

// Repository reads one entity table.
type Repository[T Entity] struct {
	store     *Store
	entity    string
	table     string
	relations []string
	wrap      func(*Store, Row) T
}

func newRepository[T Entity](s *Store, entity, table string, relations []string, wrap func(*Store, Row) T) *Repository[T] {
	return &Repository[T]{store: s, entity: entity, table: s.prefix + table, relations: relations, wrap: wrap}
}

func (s *Store) Categories() *Repository[*Category] {
	return newRepository(s, "category", "categories", nil, newCategory)
}

func (s *Store) Countries() *Repository[*Country] {
	return newRepository(s, "country", "countries", nil, newCountry)
}

func (s *Store) Datasets() *Repository[*Dataset] {
	return newRepository(s, "dataset", "datasets",
		[]string{"country", "category", "provider", "geography"}, newDataset)
}

func (s *Store) Geographies() *Repository[*Geography] {
	return newRepository(s, "geography", "geographies", []string{"country", "provider"}, newGeography)
}

func (s *Store) Providers() *Repository[*Provider] {
	return newRepository(s, "provider", "providers", nil, newProvider)
}

func (s *Store) Variables() *Repository[*Variable] {
	return newRepository(s, "variable", "variables", []string{"dataset"}, newVariable)
}

// Entity is the singular entity name.
func (r *Repository[T]) Entity() string { return r.entity }

// All lists the rows matching filters. No match is an empty collection.
func (r *Repository[T]) All(ctx context.Context, filters Filters) (*Collection[T], error) {
	where, args, err := r.where(filters)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, where, args)
}

// ByID fetches one row, or a NotFoundError carrying id.
func (r *Repository[T]) ByID(ctx context.Context, id string) (T, error) {
	var zero T
	c, err := r.query(ctx, []string{"id = ?"}, []any{id})
	if err != nil {
		return zero, err
	}
	if c.Len() == 0 {
		return zero, &errdefs.NotFoundError{Entity: r.entity, ID: id}
	}
	return c.items[0], nil
}

// By lists the rows related to id through relation. An empty result is a
// NotFoundError; a relation the entity does not have is unsupported.
func (r *Repository[T]) By(ctx context.Context, relation, id string) (*Collection[T], error) {
	if !slices.Contains(r.relations, relation) {
		return nil, errdefs.Unsupported("%s has no %s relation", r.entity, relation)
	}
	c, err := r.query(ctx, []string{relationColumns[relation] + " = ?"}, []any{id})
	if err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, &errdefs.NotFoundError{Entity: r.entity + " with " + relation, ID: id}
	}
	return c, nil
}

func (r *Repository[T]) ByCountry(ctx context.Context, id string) (*Collection[T], error) {
	return r.By(ctx, "country", id)
}

func (r *Repository[T]) ByCategory(ctx context.Context, id string) (*Collection[T], error) {
	return r.By(ctx, "category", id)
}

func (r *Repository[T]) ByProvider(ctx context.Context, id string) (*Collection[T], error) {
	return r.By(ctx, "provider", id)
}

func (r *Repository[T]) ByGeography(ctx context.Context, id string) (*Collection[T], error) {
	return r.By(ctx, "geography", id)
}

func (r *Repository[T]) ByDataset(ctx context.Context, id string) (*Collection[T], error) {
	return r.By(ctx, "dataset", id)
}

// ByIDs fetches the rows whose id is in ids, in table order.
func (r *Repository[T]) ByIDs(ctx context.Context, ids []string) (*Collection[T], error) {
	if len(ids) == 0 {
		return NewCollection[T](nil), nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.query(ctx, []string{"id IN (" + marks + ")"}, args)
}

func (r *Repository[T]) where(filters Filters) ([]string, []any, error) {
	var (
		where []string
		args  []any
	)
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		if !expr.IsIdent(key) {
			return nil, nil, errdefs.Invalid("filter", key)
		}
		col := key
		if rc, ok := relationColumns[key]; ok {
			if !slices.Contains(r.relations, key) {
				return nil, nil, errdefs.Invalid(r.entity+" filter", key, r.relations...)
			}
			col = rc
		}
		where = append(where, col+" = ?")
		args = append(args, filters[key])
	}
	return where, args, nil
}

func (r *Repository[T]) query(ctx context.Context, where []string, args []any) (*Collection[T], error) {
	q := "SELECT * FROM " + r.table
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	r.store.logger.Debug("catalog query", "entity", r.entity, "query", q, "args", len(args))
	rows, err := r.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.table, err)
	}
	defer rows.Close()

	records, err := db.ScanMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.table, err)
	}
	items := make([]T, len(records))
	for i, m := range records {
		items[i] = r.wrap(r.store, NewRow(m))
	}
	return NewCollection(items), nil
}
