package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jroman/agencydir/internal/model"
	"github.com/jroman/agencydir/internal/slug"
)

// ErrValidation indicates a write was rejected before touching the
// database because a required field was missing.
var ErrValidation = errors.New("name and url are required")

// ErrNotFound indicates the referenced agency does not exist.
var ErrNotFound = errors.New("agency not found")

// Timestamps are stored as RFC 3339 text so the same schema works on both
// Postgres and SQLite.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	// Rows written by SQLite's CURRENT_TIMESTAMP use this layout.
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

// AgencyStore handles database operations for agencies
type AgencyStore struct {
	db *sql.DB
}

// NewAgencyStore creates a new AgencyStore
func NewAgencyStore(db *sql.DB) *AgencyStore {
	return &AgencyStore{db: db}
}

// List retrieves agencies joined to their size and tags, agencies ordered
// by name ascending and tags by name ascending. With visibleOnly set only
// published records are returned (the public listing); without it all
// records are returned (the admin listing).
func (s *AgencyStore) List(ctx context.Context, visibleOnly bool) ([]model.AgencyView, error) {
	query := `
		SELECT a.id, a.name, a.url, a.founded, a.logo_url, a.logo_id,
		       a.size_id, a.slug, a.visible, a.created_at, a.updated_at,
		       s.id, s.label, s.slug
		FROM agencies a
		LEFT JOIN sizes s ON a.size_id = s.id
	`
	if visibleOnly {
		query += ` WHERE a.visible = 1`
	}
	query += ` ORDER BY a.name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer rows.Close()

	var views []model.AgencyView
	index := make(map[string]int)
	for rows.Next() {
		v, err := scanAgencyView(rows)
		if err != nil {
			return nil, err
		}
		index[v.ID] = len(views)
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(views) == 0 {
		return views, nil
	}

	tagQuery := `
		SELECT at.agency_id, t.id, t.name, t.slug
		FROM agency_tags at
		JOIN tags t ON at.tag_id = t.id
		ORDER BY t.name ASC
	`
	tagRows, err := s.db.QueryContext(ctx, tagQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list agency tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var agencyID string
		var t model.Tag
		if err := tagRows.Scan(&agencyID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan agency tag: %w", err)
		}
		if i, ok := index[agencyID]; ok {
			views[i].Tags = append(views[i].Tags, t)
		}
	}

	return views, tagRows.Err()
}

// GetByID retrieves a single agency with its size and tags. Returns
// (nil, nil) when no row matches.
func (s *AgencyStore) GetByID(ctx context.Context, id string) (*model.AgencyView, error) {
	query := `
		SELECT a.id, a.name, a.url, a.founded, a.logo_url, a.logo_id,
		       a.size_id, a.slug, a.visible, a.created_at, a.updated_at,
		       s.id, s.label, s.slug
		FROM agencies a
		LEFT JOIN sizes s ON a.size_id = s.id
		WHERE a.id = $1
	`

	row := s.db.QueryRowContext(ctx, query, id)
	v, err := scanAgencyView(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency %s: %w", id, err)
	}

	tagQuery := `
		SELECT t.id, t.name, t.slug
		FROM agency_tags at
		JOIN tags t ON at.tag_id = t.id
		WHERE at.agency_id = $1
		ORDER BY t.name ASC
	`
	rows, err := s.db.QueryContext(ctx, tagQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for agency %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		v.Tags = append(v.Tags, t)
	}

	return v, rows.Err()
}

// Create validates and inserts a new agency with its tag links, returning
// the generated id. The URL is normalized to https and the slug derived
// from the name. The agency row and its tag links are written in one
// transaction, the links as a single multi-row insert.
func (s *AgencyStore) Create(ctx context.Context, input model.AgencyInput) (string, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.URL) == "" {
		return "", ErrValidation
	}

	id := uuid.NewString()
	now := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO agencies (id, name, url, founded, logo_url, size_id, slug, visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		input.Name,
		slug.NormalizeURL(input.URL),
		input.Founded,
		input.LogoURL,
		input.SizeID,
		slug.Make(input.Name),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert agency: %w", err)
	}

	if err := insertAgencyTags(ctx, tx, id, input.TagIDs); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit agency insert: %w", err)
	}

	return id, nil
}

// Update replaces the agency's mutable fields and its full set of tag
// links. The slug is re-derived from the possibly changed name and
// updated_at is bumped. The field update and the delete-then-insert of the
// tag links run in one transaction so a failure cannot leave an agency
// with its links half replaced. Returns ErrNotFound for an unknown id.
func (s *AgencyStore) Update(ctx context.Context, id string, input model.AgencyInput) error {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.URL) == "" {
		return ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE agencies
		SET name = $1, url = $2, founded = $3, logo_url = $4, size_id = $5, slug = $6, updated_at = $7
		WHERE id = $8
	`
	res, err := tx.ExecContext(ctx, query,
		input.Name,
		slug.NormalizeURL(input.URL),
		input.Founded,
		input.LogoURL,
		input.SizeID,
		slug.Make(input.Name),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update agency %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	// Full replace of the tag set, not a diff: delete everything and
	// insert the submitted set.
	if _, err := tx.ExecContext(ctx, `DELETE FROM agency_tags WHERE agency_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear tags for agency %s: %w", id, err)
	}
	if err := insertAgencyTags(ctx, tx, id, input.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit agency update: %w", err)
	}

	return nil
}

// Delete removes an agency; the foreign-key cascade removes its tag
// links. Deleting an unknown id is a no-op, not an error.
func (s *AgencyStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete agency %s: %w", id, err)
	}
	return nil
}

// ToggleVisible flips the visible flag in a single statement, so two
// concurrent toggles for the same id cannot observe the same starting
// value and cancel each other out.
func (s *AgencyStore) ToggleVisible(ctx context.Context, id string) error {
	query := `UPDATE agencies SET visible = 1 - visible, updated_at = $1 WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to toggle agency %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read toggle result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAgencyView(sc scanner) (*model.AgencyView, error) {
	var v model.AgencyView
	var visible int
	var createdAt, updatedAt string
	var agencySlug sql.NullString
	var sizeID, sizeLabel, sizeSlug sql.NullString

	err := sc.Scan(
		&v.ID,
		&v.Name,
		&v.URL,
		&v.Founded,
		&v.LogoURL,
		&v.LogoID,
		&v.SizeID,
		&agencySlug,
		&visible,
		&createdAt,
		&updatedAt,
		&sizeID,
		&sizeLabel,
		&sizeSlug,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan agency: %w", err)
	}

	v.Slug = agencySlug.String
	v.Visible = visible != 0
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	if sizeID.Valid {
		v.Size = &model.Size{ID: sizeID.String, Label: sizeLabel.String, Slug: sizeSlug.String}
	}

	return &v, nil
}

// insertAgencyTags writes the whole tag set as one multi-row insert.
func insertAgencyTags(ctx context.Context, tx *sql.Tx, agencyID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO agency_tags (agency_id, tag_id) VALUES `)
	args := make([]any, 0, len(tagIDs)*2)
	for i, tagID := range tagIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, agencyID, tagID)
	}

	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("failed to insert tags for agency %s: %w", agencyID, err)
	}
	return nil
}
