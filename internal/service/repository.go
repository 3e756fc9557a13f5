package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned for an unknown marker ID.
var ErrNotFound = errors.New("hazard location not found")

// Repository persists markers.
type Repository interface {
	List(ctx context.Context) ([]Marker, error)
	Get(ctx context.Context, id int64) (Marker, error)
	Insert(ctx context.Context, in MarkerInput) (Marker, error)
	Update(ctx context.Context, id int64, in MarkerInput) (Marker, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// FileRepository keeps markers in memory and mirrors them to a JSON file
// in the data directory after every change.
type FileRepository struct {
	dataDir string
	mu      sync.RWMutex
	markers map[int64]Marker
	nextID  int64
}

type markerFile struct {
	NextID  int64    `json:"nextId"`
	Markers []Marker `json:"markers"`
}

// NewFileRepository loads dataDir/lokasi-rawan.json, starting empty if it
// does not exist.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	r := &FileRepository{
		dataDir: dataDir,
		markers: make(map[int64]Marker),
		nextID:  1,
	}
	if err := r.loadFromDisk(); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns all markers ordered by ID.
func (r *FileRepository) List(ctx context.Context) ([]Marker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Marker, 0, len(r.markers))
	for _, m := range r.markers {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Get returns a marker by ID.
func (r *FileRepository) Get(ctx context.Context, id int64) (Marker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markers[id]
	if !ok {
		return Marker{}, ErrNotFound
	}
	return m, nil
}

// Insert stores a new marker with the next free ID.
func (r *FileRepository) Insert(ctx context.Context, in MarkerInput) (Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := markerFromInput(r.nextID, in)
	r.markers[m.ID] = m
	r.nextID++
	if err := r.saveToDisk(); err != nil {
		delete(r.markers, m.ID)
		r.nextID--
		return Marker{}, err
	}
	return m, nil
}

// Update replaces a marker by ID.
func (r *FileRepository) Update(ctx context.Context, id int64, in MarkerInput) (Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.markers[id]
	if !ok {
		return Marker{}, ErrNotFound
	}

	m := markerFromInput(id, in)
	r.markers[id] = m
	if err := r.saveToDisk(); err != nil {
		r.markers[id] = prev
		return Marker{}, err
	}
	return m, nil
}

// Delete removes a marker by ID.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.markers[id]
	if !ok {
		return ErrNotFound
	}

	delete(r.markers, id)
	if err := r.saveToDisk(); err != nil {
		r.markers[id] = prev
		return err
	}
	return nil
}

// Close implements Repository.
func (r *FileRepository) Close() error { return nil }

func (r *FileRepository) configFile() string {
	return filepath.Join(r.dataDir, "lokasi-rawan.json")
}

func (r *FileRepository) loadFromDisk() error {
	data, err := os.ReadFile(r.configFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", r.configFile(), err)
	}

	var f markerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", r.configFile(), err)
	}

	for _, m := range f.Markers {
		r.markers[m.ID] = m
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
	}
	if f.NextID > r.nextID {
		r.nextID = f.NextID
	}
	return nil
}

// saveToDisk replaces the JSON file via rename. Caller holds r.mu.
func (r *FileRepository) saveToDisk() error {
	if err := os.MkdirAll(r.dataDir, 0755); err != nil {
		return err
	}

	f := markerFile{NextID: r.nextID, Markers: make([]Marker, 0, len(r.markers))}
	for _, m := range r.markers {
		f.Markers = append(f.Markers, m)
	}
	sort.Slice(f.Markers, func(i, j int) bool { return f.Markers[i].ID < f.Markers[j].ID })

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.configFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.configFile())
}

func markerFromInput(id int64, in MarkerInput) Marker {
	return Marker{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
}
