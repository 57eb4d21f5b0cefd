package api

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/db"
	"github.com/joeblew999/plat-carto/internal/source"
)

// DBHandler exposes the query sources run against.
type DBHandler struct {
	db *sql.DB
}

// NewDBHandler creates a new database handler.
func NewDBHandler(conn *sql.DB) *DBHandler {
	return &DBHandler{db: conn}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("db"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("db"))
}

type TablesBody struct {
	Tables []string `json:"tables" doc:"Table names"`
}

// ListTables returns the database tables, which are valid layer sources.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.db == nil {
		return nil, unavailable("database")
	}
	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, huma.Error500InternalServerError("Failed to read tables", err)
		}
		tables = append(tables, name)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}

type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"SELECT or WITH query"`
		Limit int    `json:"limit,omitempty" minimum:"1" maximum:"10000" default:"100" doc:"Maximum rows returned"`
	}
}

type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query previews a layer query. Only SELECT and WITH queries are run.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.db == nil {
		return nil, unavailable("database")
	}
	q := strings.TrimRight(strings.TrimSpace(input.Body.Query), "; \n\t")
	if !source.IsQuery(q) {
		return nil, huma.Error422UnprocessableEntity("only SELECT and WITH queries are allowed")
	}

	rows, err := h.db.QueryContext(ctx, "SELECT * FROM ("+q+") AS q LIMIT ?", input.Body.Limit)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get columns", err)
	}
	records, err := db.ScanMaps(rows)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read rows", err)
	}
	if records == nil {
		records = []map[string]any{}
	}
	return &struct{ Body QueryBody }{Body: QueryBody{Columns: columns, Rows: records, Count: len(records)}}, nil
}
