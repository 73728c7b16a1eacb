package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jroman/agencydir/internal/model"
)

// SnapshotProduction reads the full contents of the four tables from the
// production database for mirroring into a local copy.
func SnapshotProduction(ctx context.Context, db *sql.DB) (*SyncData, error) {
	data := &SyncData{}

	if err := querySizes(ctx, db, data); err != nil {
		return nil, err
	}
	if err := queryTags(ctx, db, data); err != nil {
		return nil, err
	}
	if err := queryAgencies(ctx, db, data); err != nil {
		return nil, err
	}
	if err := queryLinks(ctx, db, data); err != nil {
		return nil, err
	}

	return data, nil
}

func querySizes(ctx context.Context, db *sql.DB, data *SyncData) error {
	rows, err := db.QueryContext(ctx, `SELECT id, label, slug FROM sizes ORDER BY label ASC`)
	if err != nil {
		return fmt.Errorf("failed to read sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Size
		if err := rows.Scan(&s.ID, &s.Label, &s.Slug); err != nil {
			return fmt.Errorf("failed to scan size: %w", err)
		}
		data.Sizes = append(data.Sizes, s)
	}
	return rows.Err()
}

func queryTags(ctx context.Context, db *sql.DB, data *SyncData) error {
	rows, err := db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name ASC`)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		data.Tags = append(data.Tags, t)
	}
	return rows.Err()
}

func queryAgencies(ctx context.Context, db *sql.DB, data *SyncData) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, url, founded, logo_url, logo_id, size_id, slug, visible, created_at, updated_at
		FROM agencies ORDER BY name ASC`)
	if err != nil {
		return fmt.Errorf("failed to read agencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Agency
		var visible int
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Founded, &a.LogoURL, &a.LogoID,
			&a.SizeID, &a.Slug, &visible, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("failed to scan agency: %w", err)
		}
		a.Visible = visible != 0
		a.CreatedAt = parseSnapshotTime(createdAt)
		a.UpdatedAt = parseSnapshotTime(updatedAt)
		data.Agencies = append(data.Agencies, a)
	}
	return rows.Err()
}

func queryLinks(ctx context.Context, db *sql.DB, data *SyncData) error {
	rows, err := db.QueryContext(ctx, `SELECT agency_id, tag_id FROM agency_tags ORDER BY agency_id ASC, tag_id ASC`)
	if err != nil {
		return fmt.Errorf("failed to read agency tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link model.AgencyTag
		if err := rows.Scan(&link.AgencyID, &link.TagID); err != nil {
			return fmt.Errorf("failed to scan agency tag: %w", err)
		}
		data.Links = append(data.Links, link)
	}
	return rows.Err()
}

func parseSnapshotTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}
