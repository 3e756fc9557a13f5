package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joeblew999/plat-rawan/internal/db"
)

// DuckRepository stores markers in the DuckDB table lokasi_rawan.
type DuckRepository struct {
	conn *sql.DB
}

// NewDuckRepository opens the DuckDB database described by cfg.
func NewDuckRepository(ctx context.Context, cfg db.Config) (*DuckRepository, error) {
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DuckRepository{conn: conn}, nil
}

// DB returns the underlying connection.
func (r *DuckRepository) DB() *sql.DB { return r.conn }

const selectMarkers = `SELECT id, nama_lokasi, deskripsi, latitude, longitude FROM lokasi_rawan`

// List returns all markers ordered by ID.
func (r *DuckRepository) List(ctx context.Context) ([]Marker, error) {
	rows, err := r.conn.QueryContext(ctx, selectMarkers+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing hazard locations: %w", err)
	}
	defer rows.Close()

	result := []Marker{}
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Latitude, &m.Longitude); err != nil {
			return nil, fmt.Errorf("scanning hazard location: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Get returns a marker by ID.
func (r *DuckRepository) Get(ctx context.Context, id int64) (Marker, error) {
	var m Marker
	err := r.conn.QueryRowContext(ctx, selectMarkers+` WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Description, &m.Latitude, &m.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return Marker{}, ErrNotFound
	}
	if err != nil {
		return Marker{}, fmt.Errorf("reading hazard location %d: %w", id, err)
	}
	return m, nil
}

// Insert stores a new marker; the ID comes from lokasi_rawan_id_seq.
func (r *DuckRepository) Insert(ctx context.Context, in MarkerInput) (Marker, error) {
	var id int64
	err := r.conn.QueryRowContext(ctx,
		`INSERT INTO lokasi_rawan (nama_lokasi, deskripsi, latitude, longitude)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		in.Name, in.Description, in.Latitude, in.Longitude,
	).Scan(&id)
	if err != nil {
		return Marker{}, fmt.Errorf("inserting hazard location: %w", err)
	}
	return markerFromInput(id, in), nil
}

// Update replaces a marker by ID.
func (r *DuckRepository) Update(ctx context.Context, id int64, in MarkerInput) (Marker, error) {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE lokasi_rawan
		 SET nama_lokasi = ?, deskripsi = ?, latitude = ?, longitude = ?, updated_at = current_timestamp
		 WHERE id = ?`,
		in.Name, in.Description, in.Latitude, in.Longitude, id,
	)
	if err != nil {
		return Marker{}, fmt.Errorf("updating hazard location %d: %w", id, err)
	}
	if err := requireAffected(res, id); err != nil {
		return Marker{}, err
	}
	return markerFromInput(id, in), nil
}

// Delete removes a marker by ID.
func (r *DuckRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM lokasi_rawan WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting hazard location %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// requireAffected maps a statement that touched no row to ErrNotFound.
func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hazard location %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (r *DuckRepository) Close() error {
	return r.conn.Close()
}
