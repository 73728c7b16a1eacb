package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jroman/agencydir/internal/model"
)

// Tags and sizes are reference data populated by the migration pipeline;
// the application only reads them (form option lists, joins).

// TagStore handles database reads for tags
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// GetAll retrieves all tags ordered by name
func (s *TagStore) GetAll(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}

	return tags, rows.Err()
}

// SizeStore handles database reads for sizes
type SizeStore struct {
	db *sql.DB
}

// NewSizeStore creates a new SizeStore
func NewSizeStore(db *sql.DB) *SizeStore {
	return &SizeStore{db: db}
}

// GetAll retrieves all sizes ordered by label
func (s *SizeStore) GetAll(ctx context.Context) ([]model.Size, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, slug FROM sizes ORDER BY label ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sizes: %w", err)
	}
	defer rows.Close()

	var sizes []model.Size
	for rows.Next() {
		var sz model.Size
		if err := rows.Scan(&sz.ID, &sz.Label, &sz.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, sz)
	}

	return sizes, rows.Err()
}
