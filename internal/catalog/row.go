// Package catalog reads the data observatory metadata tables (categories,
// countries, datasets, geographies, providers and variables) through an
// injected database handle, and navigates the relations between them.
package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// Row is one catalog record: column name to value.
type Row struct {
	fields map[string]any
}

// NewRow wraps a column map. The map is owned by the row.
func NewRow(fields map[string]any) Row {
	if fields == nil {
		fields = map[string]any{}
	}
	return Row{fields: fields}
}

// ID is the primary key.
func (r Row) ID() string { return r.Text("id") }

// Get returns the raw value of a column.
func (r Row) Get(col string) (any, bool) {
	v, ok := r.fields[col]
	return v, ok
}

// Text returns a column as text; missing or null columns are "".
func (r Row) Text(col string) string {
	switch v := r.fields[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns a column as a boolean; missing or null columns are false.
func (r Row) Bool(col string) bool {
	switch v := r.fields[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Fields returns the column map.
func (r Row) Fields() map[string]any { return r.fields }

// Entity is a typed catalog row.
type Entity interface {
	ID() string
	Fields() map[string]any
}

// Collection is an ordered set of entities indexed by id.
type Collection[T Entity] struct {
	items []T
	index map[string]int
}

// NewCollection indexes items. Later duplicates of an id are dropped.
func NewCollection[T Entity](items []T) *Collection[T] {
	c := &Collection[T]{index: make(map[string]int, len(items))}
	for _, it := range items {
		if _, dup := c.index[it.ID()]; dup {
			continue
		}
		c.index[it.ID()] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

func (c *Collection[T]) Len() int   { return len(c.items) }
func (c *Collection[T]) Items() []T { return c.items }

// Get looks an entity up by id.
func (c *Collection[T]) Get(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// IDs lists the ids in order.
func (c *Collection[T]) IDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID()
	}
	return ids
}

// Rows returns the column maps in order.
func (c *Collection[T]) Rows() []map[string]any {
	rows := make([]map[string]any, len(c.items))
	for i, it := range c.items {
		rows[i] = it.Fields()
	}
	return rows
}

// Related fails: relations are navigated from a single row.
func (c *Collection[T]) Related(ctx context.Context, name string) (any, error) {
	return nil, errdefs.Unsupported("relation %q is only available on a single row", name)
}
