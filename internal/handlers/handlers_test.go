package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/model"
	"github.com/jroman/agencydir/internal/store"
)

const testSecret = "s3cret"

type testEnv struct {
	app      *fiber.App
	agencies *store.AgencyStore
	images   blob.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewDB("file:" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := []string{
		`INSERT INTO sizes (id, label, slug) VALUES ('s1', '2-10', '2-10')`,
		`INSERT INTO tags (id, name, slug) VALUES ('t1', 'Branding', 'branding')`,
		`INSERT INTO tags (id, name, slug) VALUES ('t2', 'Web Design', 'web-design')`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	env := &testEnv{
		app:      fiber.New(fiber.Config{BodyLimit: 8 << 20}),
		agencies: store.NewAgencyStore(db),
		images:   blob.NewMemory(),
	}
	Register(env.app, env.agencies, store.NewSizeStore(db), store.NewTagStore(db), env.images, testSecret, false)
	return env
}

func (e *testEnv) request(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL, err)
	}
	return resp
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: authCookieValue})
	return req
}

func formPost(target string, values url.Values) *http.Request {
	req := httpRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func httpRequest(method, target string, body io.Reader) *http.Request {
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		panic(err)
	}
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func createAgency(t *testing.T, env *testEnv, name string, visible bool) string {
	t.Helper()
	id, err := env.agencies.Create(context.Background(), model.AgencyInput{
		Name:   name,
		URL:    "https://example.com",
		SizeID: sql.NullString{String: "s1", Valid: true},
		TagIDs: []string{"t1"},
	})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}
	if !visible {
		if err := env.agencies.ToggleVisible(context.Background(), id); err != nil {
			t.Fatalf("hide agency: %v", err)
		}
	}
	return id
}

func TestHomeListsOnlyVisibleAgencies(t *testing.T) {
	env := newTestEnv(t)
	createAgency(t, env, "Visible Co", true)
	createAgency(t, env, "Hidden Co", false)

	resp := env.request(t, httpRequest(http.MethodGet, "/", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "Visible Co") {
		t.Error("visible agency missing from public page")
	}
	if strings.Contains(body, "Hidden Co") {
		t.Error("hidden agency leaked onto public page")
	}
}

func TestAdminRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, httpRequest(http.MethodGet, "/admin", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no cookie: status = %d, want 401", resp.StatusCode)
	}

	resp = env.request(t, httpRequest(http.MethodGet, "/admin?password=wrong", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", resp.StatusCode)
	}

	req := httpRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: "forged"})
	resp = env.request(t, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("forged cookie: status = %d, want 401", resp.StatusCode)
	}
}

func TestPasswordQuerySetsCookieAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, httpRequest(http.MethodGet, "/admin/agencies/new?password="+testSecret+"&from=home", nil))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}

	loc := resp.Header.Get("Location")
	if strings.Contains(loc, "password") {
		t.Errorf("redirect %q still carries the password", loc)
	}
	if !strings.Contains(loc, "/admin/agencies/new") || !strings.Contains(loc, "from=home") {
		t.Errorf("redirect %q lost the original target", loc)
	}

	var cookie string
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(sc, authCookieName+"=") {
			cookie = sc
		}
	}
	if !strings.Contains(cookie, authCookieValue) {
		t.Errorf("auth cookie not set: %q", cookie)
	}
	if !strings.Contains(cookie, "HttpOnly") {
		t.Errorf("auth cookie not HttpOnly: %q", cookie)
	}
}

func TestCreateAgencyFromForm(t *testing.T) {
	env := newTestEnv(t)

	values := url.Values{
		"name":    {"New Agency"},
		"url":     {"newagency.com"},
		"founded": {"2015"},
		"size_id": {"s1"},
		"tag_ids": {"t1", "t2"},
	}
	resp := env.request(t, authed(formPost("/admin/agencies/new", values)))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", resp.StatusCode, readBody(t, resp))
	}

	views, err := env.agencies.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("store has %d agencies, want 1", len(views))
	}
	a := views[0]
	if a.URL != "https://newagency.com" {
		t.Errorf("url = %q, want normalized https form", a.URL)
	}
	if !a.Founded.Valid || a.Founded.Int64 != 2015 {
		t.Errorf("founded = %+v", a.Founded)
	}
	if len(a.Tags) != 2 {
		t.Errorf("agency has %d tags, want 2", len(a.Tags))
	}
}

func TestCreateAgencyValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, authed(formPost("/admin/agencies/new", url.Values{"url": {"x.com"}})))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	views, err := env.agencies.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("invalid form created %d agencies", len(views))
	}
}

func TestUpdateAgencyFromForm(t *testing.T) {
	env := newTestEnv(t)
	id := createAgency(t, env, "Old Name", true)

	values := url.Values{
		"name":    {"New Name"},
		"url":     {"https://example.com"},
		"tag_ids": {"t2"},
	}
	resp := env.request(t, authed(formPost("/admin/agencies/"+id+"/edit", values)))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}

	view, err := env.agencies.GetByID(context.Background(), id)
	if err != nil || view == nil {
		t.Fatalf("get: %v, %v", view, err)
	}
	if view.Name != "New Name" || view.Slug != "new-name" {
		t.Errorf("agency = %q / %q", view.Name, view.Slug)
	}
	if len(view.Tags) != 1 || view.Tags[0].ID != "t2" {
		t.Errorf("tags = %+v, want just t2", view.Tags)
	}
}

func TestEditUnknownAgency(t *testing.T) {
	env := newTestEnv(t)

	req := authed(httpRequest(http.MethodGet, "/admin/agencies/nope/edit", nil))
	resp := env.request(t, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestToggleAndDeleteFromForms(t *testing.T) {
	env := newTestEnv(t)
	id := createAgency(t, env, "Acme", true)

	resp := env.request(t, authed(formPost("/admin/agencies/toggle", url.Values{"id": {id}})))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}
	view, err := env.agencies.GetByID(context.Background(), id)
	if err != nil || view == nil {
		t.Fatalf("get: %v", err)
	}
	if view.Visible {
		t.Error("agency still visible after toggle")
	}

	resp = env.request(t, authed(formPost("/admin/agencies/toggle", url.Values{"id": {"nope"}})))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("toggle unknown status = %d, want 404", resp.StatusCode)
	}

	resp = env.request(t, authed(formPost("/admin/agencies/delete", url.Values{"id": {id}})))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	view, err = env.agencies.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view != nil {
		t.Error("agency still present after delete")
	}
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httpRequest(http.MethodPost, "/admin/images/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImageUploadServeDelete(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, authed(multipartUpload(t, "logo.PNG", "image/png", []byte("png-bytes"))))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	stored, err := env.images.List(context.Background())
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("store holds %d blobs, want 1", len(stored))
	}
	key := stored[0].Key
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("key %q does not keep the lowercased extension", key)
	}

	resp = env.request(t, httpRequest(http.MethodGet, "/images/"+key, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("serve status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q, want immutable", cc)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := readBody(t, resp); body != "png-bytes" {
		t.Errorf("body = %q", body)
	}

	resp = env.request(t, authed(formPost("/admin/images/delete", url.Values{"key": {key}})))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = env.request(t, httpRequest(http.MethodGet, "/images/"+key, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("serve after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestImageUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, authed(multipartUpload(t, "notes.txt", "text/plain", []byte("hello"))))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("redirect %q carries no error", loc)
	}

	stored, err := env.images.List(context.Background())
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("non-image upload stored %d blobs", len(stored))
	}
}

func TestImageUploadRejectsOversize(t *testing.T) {
	env := newTestEnv(t)

	big := bytes.Repeat([]byte("x"), maxImageSize+1)
	resp := env.request(t, authed(multipartUpload(t, "big.png", "image/png", big)))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("redirect %q carries no error", loc)
	}

	stored, err := env.images.List(context.Background())
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("oversize upload stored %d blobs", len(stored))
	}
}
