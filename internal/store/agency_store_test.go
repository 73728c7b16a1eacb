package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jroman/agencydir/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	return db
}

func seedLookups(t *testing.T, db *sql.DB) {
	t.Helper()

	lookups := []string{
		`INSERT INTO sizes (id, label, slug) VALUES ('s1', 'Small (1-10)', 'small-1-10')`,
		`INSERT INTO sizes (id, label, slug) VALUES ('s2', 'Large (50+)', 'large-50')`,
		`INSERT INTO tags (id, name, slug) VALUES ('t1', 'Branding', 'branding')`,
		`INSERT INTO tags (id, name, slug) VALUES ('t2', 'Web', 'web')`,
		`INSERT INTO tags (id, name, slug) VALUES ('t3', 'Animation', 'animation')`,
	}
	for _, stmt := range lookups {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	s := NewAgencyStore(db)
	ctx := context.Background()

	id, err := s.Create(ctx, model.AgencyInput{
		Name:   "Acme Co",
		URL:    "acme.com",
		SizeID: sql.NullString{String: "s1", Valid: true},
		TagIDs: []string{"t1", "t2"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected agency, got nil")
	}
	if got.URL != "https://acme.com" {
		t.Errorf("url = %q, want %q", got.URL, "https://acme.com")
	}
	if got.Slug != "acme-co" {
		t.Errorf("slug = %q, want %q", got.Slug, "acme-co")
	}
	if !got.Visible {
		t.Error("expected new agency to be visible")
	}
	if got.Size == nil || got.Size.ID != "s1" {
		t.Errorf("size = %+v, want s1", got.Size)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	// Tags come back ordered by name: Branding before Web.
	if len(got.Tags) != 2 || got.Tags[0].ID != "t1" || got.Tags[1].ID != "t2" {
		t.Errorf("tags = %+v, want [t1 t2]", got.Tags)
	}
}

func TestCreateURLNormalization(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)
	ctx := context.Background()

	tests := []struct {
		in   string
		want string
	}{
		{"acme.com", "https://acme.com"},
		{"https://acme.com", "https://acme.com"},
		{"http://acme.com", "https://acme.com"},
		{"//acme.com", "https://acme.com"},
	}

	for _, tt := range tests {
		id, err := s.Create(ctx, model.AgencyInput{Name: "A " + tt.in, URL: tt.in})
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", tt.in, err)
		}
		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.URL != tt.want {
			t.Errorf("stored url for %q = %q, want %q", tt.in, got.URL, tt.want)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)
	ctx := context.Background()

	for _, input := range []model.AgencyInput{
		{Name: "", URL: "acme.com"},
		{Name: "Acme", URL: ""},
		{Name: "   ", URL: "acme.com"},
	} {
		if _, err := s.Create(ctx, input); !errors.Is(err, ErrValidation) {
			t.Errorf("Create(%+v) = %v, want ErrValidation", input, err)
		}
	}

	// Validation fails before any write.
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM agencies`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no rows after rejected creates, got %d", n)
	}
}

func TestUpdateReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	s := NewAgencyStore(db)
	ctx := context.Background()

	id, err := s.Create(ctx, model.AgencyInput{Name: "Acme Co", URL: "acme.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Each update leaves the tag set exactly equal to the submitted set,
	// regardless of what was there before.
	steps := [][]string{
		{"t1", "t2"},
		{"t3"},
		{},
		{"t1", "t2", "t3"},
	}
	for _, want := range steps {
		err := s.Update(ctx, id, model.AgencyInput{Name: "Acme Co", URL: "acme.com", TagIDs: want})
		if err != nil {
			t.Fatalf("Update with tags %v failed: %v", want, err)
		}
		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if len(got.Tags) != len(want) {
			t.Fatalf("after update with %v got tags %+v", want, got.Tags)
		}
		for _, id := range want {
			if !got.HasTag(id) {
				t.Errorf("after update with %v missing tag %s", want, id)
			}
		}
	}
}

func TestUpdateRederivesSlugAndBumpsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)
	ctx := context.Background()

	id, err := s.Create(ctx, model.AgencyInput{Name: "Acme Co", URL: "acme.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before, _ := s.GetByID(ctx, id)

	if err := s.Update(ctx, id, model.AgencyInput{Name: "Béta Studio", URL: "beta.io"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.Slug != "beta-studio" {
		t.Errorf("slug = %q, want %q", after.Slug, "beta-studio")
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed on update: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)

	err := s.Update(context.Background(), "missing", model.AgencyInput{Name: "A", URL: "a.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	s := NewAgencyStore(db)
	ctx := context.Background()

	id, err := s.Create(ctx, model.AgencyInput{Name: "Acme Co", URL: "acme.com", TagIDs: []string{"t1", "t2"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM agency_tags WHERE agency_id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected cascade to remove tag links, found %d", n)
	}

	// Deleting again is a no-op, not an error.
	if err := s.Delete(ctx, id); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestToggleVisible(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)
	ctx := context.Background()

	id, err := s.Create(ctx, model.AgencyInput{Name: "Acme Co", URL: "acme.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := s.ToggleVisible(ctx, id); err != nil {
		t.Fatalf("ToggleVisible failed: %v", err)
	}
	got, _ := s.GetByID(ctx, id)
	if got.Visible {
		t.Error("expected hidden after first toggle")
	}

	if err := s.ToggleVisible(ctx, id); err != nil {
		t.Fatalf("second ToggleVisible failed: %v", err)
	}
	got, _ = s.GetByID(ctx, id)
	if !got.Visible {
		t.Error("expected visible again after second toggle")
	}

	if err := s.ToggleVisible(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleVisible(missing) = %v, want ErrNotFound", err)
	}
}

func TestListVisibility(t *testing.T) {
	db := setupTestDB(t)
	s := NewAgencyStore(db)
	ctx := context.Background()

	shown, err := s.Create(ctx, model.AgencyInput{Name: "Alpha", URL: "alpha.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	hidden, err := s.Create(ctx, model.AgencyInput{Name: "Beta", URL: "beta.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.ToggleVisible(ctx, hidden); err != nil {
		t.Fatalf("ToggleVisible failed: %v", err)
	}

	public, err := s.List(ctx, true)
	if err != nil {
		t.Fatalf("List(visibleOnly) failed: %v", err)
	}
	if len(public) != 1 || public[0].ID != shown {
		t.Errorf("public listing = %+v, want only %s", public, shown)
	}
	for _, v := range public {
		if !v.Visible {
			t.Errorf("public listing contains hidden agency %s", v.ID)
		}
	}

	all, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("List(all) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin listing has %d rows, want 2", len(all))
	}
}

func TestListOrdering(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	s := NewAgencyStore(db)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		if _, err := s.Create(ctx, model.AgencyInput{Name: name, URL: name + ".com", TagIDs: []string{"t2", "t3", "t1"}}); err != nil {
			t.Fatalf("Create(%s) failed: %v", name, err)
		}
	}

	views, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	wantOrder := []string{"Alpha", "Bravo", "Charlie"}
	for i, want := range wantOrder {
		if views[i].Name != want {
			t.Errorf("agency %d = %q, want %q", i, views[i].Name, want)
		}
	}

	// Tags ordered by name: Animation, Branding, Web.
	wantTags := []string{"Animation", "Branding", "Web"}
	for _, v := range views {
		if len(v.Tags) != 3 {
			t.Fatalf("agency %s has %d tags, want 3", v.Name, len(v.Tags))
		}
		for i, want := range wantTags {
			if v.Tags[i].Name != want {
				t.Errorf("agency %s tag %d = %q, want %q", v.Name, i, v.Tags[i].Name, want)
			}
		}
	}
}

func TestLookupStores(t *testing.T) {
	db := setupTestDB(t)
	seedLookups(t, db)
	ctx := context.Background()

	tags, err := NewTagStore(db).GetAll(ctx)
	if err != nil {
		t.Fatalf("TagStore.GetAll failed: %v", err)
	}
	if len(tags) != 3 || tags[0].Name != "Animation" || tags[2].Name != "Web" {
		t.Errorf("tags = %+v, want ordered by name", tags)
	}

	sizes, err := NewSizeStore(db).GetAll(ctx)
	if err != nil {
		t.Fatalf("SizeStore.GetAll failed: %v", err)
	}
	if len(sizes) != 2 || sizes[0].ID != "s2" {
		t.Errorf("sizes = %+v, want ordered by label", sizes)
	}
}
