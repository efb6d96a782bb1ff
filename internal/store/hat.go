package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Hat represents an overlay prop stored in the catalog. WidthFactor and
// TiltDeg feed the placement mapper; ImageURL is opaque to the core and is
// fetched by the presentation layer.
type Hat struct {
	ID          string
	Name        string
	ImageURL    string
	WidthFactor float64
	TiltDeg     float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HatRepository provides CRUD operations for hats.
type HatRepository struct {
	db *sql.DB
}

// Hats returns the hat repository for this store.
func (s *Store) Hats() *HatRepository {
	return &HatRepository{db: s.db}
}

// Create inserts a new hat into the database.
func (r *HatRepository) Create(h *Hat) error {
	now := time.Now()
	h.CreatedAt = now
	h.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO hats (id, name, image_url, width_factor, tilt_deg, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.ImageURL, h.WidthFactor, h.TiltDeg, h.CreatedAt, h.UpdatedAt,
	)
	return err
}

// GetByID retrieves a hat by its ID.
func (r *HatRepository) GetByID(id string) (*Hat, error) {
	h := &Hat{}

	err := r.db.QueryRow(
		`SELECT id, name, image_url, width_factor, tilt_deg, created_at, updated_at
		 FROM hats WHERE id = ?`,
		id,
	).Scan(&h.ID, &h.Name, &h.ImageURL, &h.WidthFactor, &h.TiltDeg, &h.CreatedAt, &h.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return h, nil
}

// GetByName retrieves a hat by its unique name.
func (r *HatRepository) GetByName(name string) (*Hat, error) {
	h := &Hat{}

	err := r.db.QueryRow(
		`SELECT id, name, image_url, width_factor, tilt_deg, created_at, updated_at
		 FROM hats WHERE name = ?`,
		name,
	).Scan(&h.ID, &h.Name, &h.ImageURL, &h.WidthFactor, &h.TiltDeg, &h.CreatedAt, &h.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return h, nil
}

// List returns all hats ordered by name.
func (r *HatRepository) List() ([]*Hat, error) {
	rows, err := r.db.Query(
		`SELECT id, name, image_url, width_factor, tilt_deg, created_at, updated_at
		 FROM hats ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hats []*Hat
	for rows.Next() {
		h := &Hat{}
		if err := rows.Scan(&h.ID, &h.Name, &h.ImageURL, &h.WidthFactor, &h.TiltDeg, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hats = append(hats, h)
	}

	return hats, rows.Err()
}

// Update modifies an existing hat.
func (r *HatRepository) Update(h *Hat) error {
	h.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE hats SET name = ?, image_url = ?, width_factor = ?, tilt_deg = ?, updated_at = ?
		 WHERE id = ?`,
		h.Name, h.ImageURL, h.WidthFactor, h.TiltDeg, h.UpdatedAt, h.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a hat by its ID.
func (r *HatRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hats WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
