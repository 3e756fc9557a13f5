package api

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// DBHandler reports on the DuckDB storage backend.
type DBHandler struct {
	db   *sql.DB
	auth *Authenticator
}

// NewDBHandler creates a new database handler. db is nil when markers are
// stored in the JSON file.
func NewDBHandler(db *sql.DB, auth *Authenticator) *DBHandler {
	return &DBHandler{db: db, auth: auth}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/storage", h.Storage, huma.OperationTags("health"),
		h.auth.Require(api, RoleAdmin))
}

// TableStat is the row count of one table.
type TableStat struct {
	Name string `json:"name" doc:"Table name" example:"lokasi_rawan"`
	Rows int64  `json:"rows" doc:"Number of rows" example:"42"`
}

// StorageOutput is the response for the storage report.
type StorageOutput struct {
	Body struct {
		Backend string      `json:"backend" doc:"Storage backend" enum:"file,duckdb"`
		Tables  []TableStat `json:"tables" doc:"DuckDB tables and their row counts"`
	}
}

// Storage lists DuckDB tables with their row counts.
func (h *DBHandler) Storage(ctx context.Context, input *struct{}) (*StorageOutput, error) {
	out := &StorageOutput{}
	out.Body.Tables = []TableStat{}
	if h.db == nil {
		out.Body.Backend = "file"
		return out, nil
	}
	out.Body.Backend = "duckdb"

	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, huma.Error500InternalServerError("Failed to read tables", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, huma.Error500InternalServerError("Failed to read tables", err)
	}
	rows.Close()

	for _, name := range names {
		var n int64
		// Table names come from SHOW TABLES, not from the request.
		q := fmt.Sprintf(`SELECT count(*) FROM "%s"`, name)
		if err := h.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return nil, huma.Error500InternalServerError("Failed to count rows", err)
		}
		out.Body.Tables = append(out.Body.Tables, TableStat{Name: name, Rows: n})
	}
	return out, nil
}
