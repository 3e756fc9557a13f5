// Package db opens the DuckDB database that backs the duckdb storage mode.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration.
type Config struct {
	DataDir string // empty opens an in-memory database
	DBName  string // file name without extension
}

// Open opens (creating if needed) the DuckDB file and applies the schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "rawan"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives only as long as its single connection.
	if dsn == "" {
		conn.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// schema is idempotent.
var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS lokasi_rawan_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS lokasi_rawan (
		id          BIGINT PRIMARY KEY DEFAULT nextval('lokasi_rawan_id_seq'),
		nama_lokasi VARCHAR NOT NULL,
		deskripsi   VARCHAR NOT NULL DEFAULT '',
		latitude    DOUBLE NOT NULL,
		longitude   DOUBLE NOT NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at  TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}
