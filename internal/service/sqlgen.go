package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jroman/agencydir/internal/model"
	"github.com/jroman/agencydir/internal/slug"
)

// Dump is the content of a dump directory loaded back into memory.
type Dump struct {
	Agencies []model.AgencyEntry
	Tags     []model.TagEntry
	Sizes    []model.SizeEntry
	ImageMap []model.ImageMapEntry
}

// LoadDump reads a dump directory written by Dumper. A missing image map
// is not an error; the dump then resolves no logos.
func LoadDump(dir string) (*Dump, error) {
	d := &Dump{}

	if err := readJSON(filepath.Join(dir, "agencies.json"), &d.Agencies); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "tags.json"), &d.Tags); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "sizes.json"), &d.Sizes); err != nil {
		return nil, err
	}

	mapPath := filepath.Join(dir, "image-map.json")
	if _, err := os.Stat(mapPath); err == nil {
		if err := readJSON(mapPath, &d.ImageMap); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// BackfillSlugSQL generates UPDATE statements filling in the slug column
// for tags and sizes that predate it.
func BackfillSlugSQL(tags []model.TagEntry, sizes []model.SizeEntry) []string {
	statements := make([]string, 0, len(tags)+len(sizes))

	for _, t := range tags {
		statements = append(statements, fmt.Sprintf(
			"UPDATE tags SET slug = '%s' WHERE id = '%s';",
			esc(slug.Make(t.Name)), esc(t.ID)))
	}
	for _, s := range sizes {
		statements = append(statements, fmt.Sprintf(
			"UPDATE sizes SET slug = '%s' WHERE id = '%s';",
			esc(slug.Make(s.Label)), esc(s.ID)))
	}

	return statements
}

// MigrationSQL generates INSERT statements loading a dump into an empty
// database: sizes and tags first, then agencies, then the tag links.
// Logos are resolved through the image map to the /images/ path the
// server will serve them from. One statement per line, one line per
// row, so a failure can be pinned to a statement.
func MigrationSQL(d *Dump, now time.Time) []string {
	ts := now.UTC().Format(time.RFC3339)
	logoByAgency := make(map[string]model.ImageMapEntry, len(d.ImageMap))
	for _, entry := range d.ImageMap {
		logoByAgency[entry.AgencyID] = entry
	}

	var statements []string

	for _, s := range d.Sizes {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO sizes (id, label, slug) VALUES ('%s', '%s', '%s');",
			esc(s.ID), esc(s.Label), esc(slug.Make(s.Label))))
	}

	for _, t := range d.Tags {
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO tags (id, name, slug) VALUES ('%s', '%s', '%s');",
			esc(t.ID), esc(t.Name), esc(slug.Make(t.Name))))
	}

	for _, a := range d.Agencies {
		logoURL := "NULL"
		logoID := "NULL"
		if entry, ok := logoByAgency[a.ID]; ok {
			logoURL = fmt.Sprintf("'/images/%s'", esc(entry.FileName))
			logoID = fmt.Sprintf("'%s'", esc(entry.LogoID))
		}

		founded := "NULL"
		if a.Founded != 0 {
			founded = fmt.Sprintf("%d", a.Founded)
		}

		sizeID := "NULL"
		if a.SizeRef != nil {
			sizeID = fmt.Sprintf("'%s'", esc(a.SizeRef.ID))
		}

		statements = append(statements, fmt.Sprintf(
			"INSERT INTO agencies (id, name, url, founded, logo_url, logo_id, size_id, slug, visible, created_at, updated_at) VALUES ('%s', '%s', '%s', %s, %s, %s, %s, '%s', 1, '%s', '%s');",
			esc(a.ID), esc(a.Name), esc(slug.NormalizeURL(a.URL)), founded,
			logoURL, logoID, sizeID, esc(slug.Make(a.Name)), ts, ts))
	}

	for _, a := range d.Agencies {
		for _, ref := range a.TagRefs {
			statements = append(statements, fmt.Sprintf(
				"INSERT INTO agency_tags (agency_id, tag_id) VALUES ('%s', '%s');",
				esc(a.ID), esc(ref.ID)))
		}
	}

	return statements
}

// SyncData is a full relational snapshot read from the production
// database, used to mirror production into a local copy.
type SyncData struct {
	Agencies []model.Agency
	Sizes    []model.Size
	Tags     []model.Tag
	Links    []model.AgencyTag
}

// SyncSQL generates INSERT OR REPLACE statements recreating a production
// snapshot. Rows that exist locally are overwritten, rows deleted in
// production survive locally; that is acceptable for a dev mirror.
func SyncSQL(data *SyncData) []string {
	var statements []string

	for _, s := range data.Sizes {
		statements = append(statements, fmt.Sprintf(
			"INSERT OR REPLACE INTO sizes (id, label, slug) VALUES ('%s', '%s', '%s');",
			esc(s.ID), esc(s.Label), esc(s.Slug)))
	}

	for _, t := range data.Tags {
		statements = append(statements, fmt.Sprintf(
			"INSERT OR REPLACE INTO tags (id, name, slug) VALUES ('%s', '%s', '%s');",
			esc(t.ID), esc(t.Name), esc(t.Slug)))
	}

	for _, a := range data.Agencies {
		founded := "NULL"
		if a.Founded.Valid {
			founded = fmt.Sprintf("%d", a.Founded.Int64)
		}
		visible := 0
		if a.Visible {
			visible = 1
		}
		statements = append(statements, fmt.Sprintf(
			"INSERT OR REPLACE INTO agencies (id, name, url, founded, logo_url, logo_id, size_id, slug, visible, created_at, updated_at) VALUES ('%s', '%s', '%s', %s, %s, %s, %s, '%s', %d, '%s', '%s');",
			esc(a.ID), esc(a.Name), esc(a.URL), founded,
			nullable(a.LogoURL.String, a.LogoURL.Valid),
			nullable(a.LogoID.String, a.LogoID.Valid),
			nullable(a.SizeID.String, a.SizeID.Valid),
			esc(a.Slug), visible,
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.UpdatedAt.UTC().Format(time.RFC3339)))
	}

	for _, link := range data.Links {
		statements = append(statements, fmt.Sprintf(
			"INSERT OR REPLACE INTO agency_tags (agency_id, tag_id) VALUES ('%s', '%s');",
			esc(link.AgencyID), esc(link.TagID)))
	}

	return statements
}

// WriteSQLFile writes statements one per line.
func WriteSQLFile(path string, statements []string) error {
	content := strings.Join(statements, "\n")
	if len(statements) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// esc doubles single quotes for embedding a value in a SQL literal.
func esc(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func nullable(s string, valid bool) string {
	if !valid {
		return "NULL"
	}
	return fmt.Sprintf("'%s'", esc(s))
}
