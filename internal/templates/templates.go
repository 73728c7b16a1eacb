// Package templates renders the site's pages as templ components.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/model"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func layout(title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 0 auto; padding: 1rem; }
table { border-collapse: collapse; width: 100%%; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
.logo { max-height: 2.5rem; max-width: 6rem; vertical-align: middle; }
.tags span { background: #eef; border-radius: 0.5rem; padding: 0.1rem 0.5rem; margin-right: 0.3rem; font-size: 0.85em; }
.hidden-row { opacity: 0.5; }
.error { color: #b00; }
form.inline { display: inline; }
.grid { display: flex; flex-wrap: wrap; gap: 1rem; }
.grid figure { margin: 0; width: 10rem; }
.grid img { max-width: 100%%; }
</style>
</head>
<body>
`, esc(title)); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

// HomePage is the public agency listing.
func HomePage(agencies []model.AgencyView) templ.Component {
	return layout("Agencies", func(w io.Writer) error {
		fmt.Fprintf(w, "<h1>Agencies</h1>\n<p>%d agencies</p>\n", len(agencies))
		if len(agencies) == 0 {
			_, err := io.WriteString(w, "<p>No agencies yet.</p>\n")
			return err
		}
		io.WriteString(w, "<ul class=\"agencies\">\n")
		for _, a := range agencies {
			io.WriteString(w, "<li>\n")
			if a.LogoURL.Valid {
				fmt.Fprintf(w, `<img class="logo" src="%s" alt="%s logo">`+"\n", esc(a.LogoURL.String), esc(a.Name))
			}
			fmt.Fprintf(w, `<a href="%s" rel="noopener">%s</a>`+"\n", esc(a.URL), esc(a.Name))
			var details []string
			if a.Founded.Valid {
				details = append(details, fmt.Sprintf("founded %d", a.Founded.Int64))
			}
			if a.Size != nil {
				details = append(details, esc(a.Size.Label)+" people")
			}
			if len(details) > 0 {
				fmt.Fprintf(w, "<small>%s</small>\n", strings.Join(details, ", "))
			}
			if len(a.Tags) > 0 {
				io.WriteString(w, `<span class="tags">`)
				for _, t := range a.Tags {
					fmt.Fprintf(w, "<span>%s</span>", esc(t.Name))
				}
				io.WriteString(w, "</span>\n")
			}
			io.WriteString(w, "</li>\n")
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}

// AdminPage lists every agency, hidden ones included, with edit, delete
// and visibility controls.
func AdminPage(agencies []model.AgencyView) templ.Component {
	return layout("Admin - Agencies", func(w io.Writer) error {
		io.WriteString(w, "<h1>Admin</h1>\n")
		io.WriteString(w, `<p><a href="/admin/agencies/new">Add agency</a> | <a href="/admin/images">Images</a> | <a href="/">Public site</a></p>`+"\n")
		io.WriteString(w, "<table>\n<tr><th>Logo</th><th>Name</th><th>URL</th><th>Founded</th><th>Size</th><th>Tags</th><th>Visible</th><th></th></tr>\n")
		for _, a := range agencies {
			rowClass := ""
			if !a.Visible {
				rowClass = ` class="hidden-row"`
			}
			fmt.Fprintf(w, "<tr%s>\n", rowClass)
			if a.LogoURL.Valid {
				fmt.Fprintf(w, `<td><img class="logo" src="%s" alt=""></td>`+"\n", esc(a.LogoURL.String))
			} else {
				io.WriteString(w, "<td></td>\n")
			}
			fmt.Fprintf(w, "<td>%s</td>\n", esc(a.Name))
			fmt.Fprintf(w, `<td><a href="%s">%s</a></td>`+"\n", esc(a.URL), esc(a.URL))
			if a.Founded.Valid {
				fmt.Fprintf(w, "<td>%d</td>\n", a.Founded.Int64)
			} else {
				io.WriteString(w, "<td></td>\n")
			}
			if a.Size != nil {
				fmt.Fprintf(w, "<td>%s</td>\n", esc(a.Size.Label))
			} else {
				io.WriteString(w, "<td></td>\n")
			}
			io.WriteString(w, "<td>")
			for i, t := range a.Tags {
				if i > 0 {
					io.WriteString(w, ", ")
				}
				io.WriteString(w, esc(t.Name))
			}
			io.WriteString(w, "</td>\n")

			toggleLabel := "Hide"
			if !a.Visible {
				toggleLabel = "Show"
			}
			fmt.Fprintf(w, `<td><form class="inline" method="post" action="/admin/agencies/toggle"><input type="hidden" name="id" value="%s"><button type="submit">%s</button></form></td>`+"\n", esc(a.ID), toggleLabel)
			fmt.Fprintf(w, `<td><a href="/admin/agencies/%s/edit">Edit</a> <form class="inline" method="post" action="/admin/agencies/delete" onsubmit="return confirm('Delete %s?')"><input type="hidden" name="id" value="%s"><button type="submit">Delete</button></form></td>`+"\n", esc(a.ID), esc(a.Name), esc(a.ID))
			io.WriteString(w, "</tr>\n")
		}
		_, err := io.WriteString(w, "</table>\n")
		return err
	})
}

// AgencyFormPage renders the create form when view is nil and the edit
// form otherwise.
func AgencyFormPage(view *model.AgencyView, sizes []model.Size, tags []model.Tag, errMsg string) templ.Component {
	title := "Add agency"
	action := "/admin/agencies/new"
	if view != nil {
		title = "Edit " + view.Name
		action = fmt.Sprintf("/admin/agencies/%s/edit", view.ID)
	}

	return layout(title, func(w io.Writer) error {
		fmt.Fprintf(w, "<h1>%s</h1>\n", esc(title))
		io.WriteString(w, `<p><a href="/admin">Back to admin</a></p>`+"\n")
		if errMsg != "" {
			fmt.Fprintf(w, `<p class="error">%s</p>`+"\n", esc(errMsg))
		}

		name, url, founded, logoURL, sizeID := "", "", "", "", ""
		if view != nil {
			name = view.Name
			url = view.URL
			if view.Founded.Valid {
				founded = fmt.Sprintf("%d", view.Founded.Int64)
			}
			if view.LogoURL.Valid {
				logoURL = view.LogoURL.String
			}
			if view.SizeID.Valid {
				sizeID = view.SizeID.String
			}
		}

		fmt.Fprintf(w, `<form method="post" action="%s">`+"\n", esc(action))
		fmt.Fprintf(w, `<p><label>Name <input type="text" name="name" value="%s" required></label></p>`+"\n", esc(name))
		fmt.Fprintf(w, `<p><label>URL <input type="text" name="url" value="%s" required></label></p>`+"\n", esc(url))
		fmt.Fprintf(w, `<p><label>Founded <input type="number" name="founded" value="%s"></label></p>`+"\n", esc(founded))
		fmt.Fprintf(w, `<p><label>Logo URL <input type="text" name="logo_url" value="%s"></label></p>`+"\n", esc(logoURL))

		io.WriteString(w, `<p><label>Size <select name="size_id"><option value=""></option>`)
		for _, s := range sizes {
			selected := ""
			if s.ID == sizeID {
				selected = " selected"
			}
			fmt.Fprintf(w, `<option value="%s"%s>%s</option>`, esc(s.ID), selected, esc(s.Label))
		}
		io.WriteString(w, "</select></label></p>\n")

		io.WriteString(w, "<fieldset><legend>Tags</legend>\n")
		for _, t := range tags {
			checked := ""
			if view != nil && view.HasTag(t.ID) {
				checked = " checked"
			}
			fmt.Fprintf(w, `<label><input type="checkbox" name="tag_ids" value="%s"%s> %s</label>`+"\n", esc(t.ID), checked, esc(t.Name))
		}
		io.WriteString(w, "</fieldset>\n")

		io.WriteString(w, `<p><button type="submit">Save</button></p>`+"\n")
		_, err := io.WriteString(w, "</form>\n")
		return err
	})
}

// ImagesPage lists stored images with upload and delete controls.
func ImagesPage(images []blob.Info, errMsg string) templ.Component {
	return layout("Admin - Images", func(w io.Writer) error {
		io.WriteString(w, "<h1>Images</h1>\n")
		io.WriteString(w, `<p><a href="/admin">Back to admin</a></p>`+"\n")
		if errMsg != "" {
			fmt.Fprintf(w, `<p class="error">%s</p>`+"\n", esc(errMsg))
		}

		io.WriteString(w, `<form method="post" action="/admin/images/upload" enctype="multipart/form-data">`+"\n")
		io.WriteString(w, `<p><input type="file" name="image" accept="image/*" required> <button type="submit">Upload</button></p>`+"\n")
		io.WriteString(w, "</form>\n")

		fmt.Fprintf(w, "<p>%d images</p>\n<div class=\"grid\">\n", len(images))
		for _, img := range images {
			io.WriteString(w, "<figure>\n")
			fmt.Fprintf(w, `<img src="/images/%s" alt="%s">`+"\n", esc(img.Key), esc(img.Key))
			fmt.Fprintf(w, "<figcaption>%s<br><small>%d bytes</small></figcaption>\n", esc(img.Key), img.Size)
			fmt.Fprintf(w, `<form method="post" action="/admin/images/delete" onsubmit="return confirm('Delete %s?')"><input type="hidden" name="key" value="%s"><button type="submit">Delete</button></form>`+"\n", esc(img.Key), esc(img.Key))
			io.WriteString(w, "</figure>\n")
		}
		_, err := io.WriteString(w, "</div>\n")
		return err
	})
}

// ErrorPage is a minimal page for 404s and similar.
func ErrorPage(title, message string) templ.Component {
	return layout(title, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>%s</h1>\n<p>%s</p>\n", esc(title), esc(message))
		return err
	})
}
