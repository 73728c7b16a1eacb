package handlers

import (
	"database/sql"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jroman/agencydir/internal/model"
	"github.com/jroman/agencydir/internal/store"
	"github.com/jroman/agencydir/internal/templates"
)

// AdminHome lists every agency, hidden ones included.
func AdminHome(agencies *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views, err := agencies.List(c.Context(), false)
		if err != nil {
			log.Printf("Failed to list agencies: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load agencies")
		}
		return render(c, templates.AdminPage(views))
	}
}

// NewAgencyForm renders the empty create form.
func NewAgencyForm(sizes *store.SizeStore, tags *store.TagStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allSizes, allTags, err := loadLookups(c, sizes, tags)
		if err != nil {
			return err
		}
		return render(c, templates.AgencyFormPage(nil, allSizes, allTags, ""))
	}
}

// CreateAgency handles the create form post. Validation failures
// re-render the form with a message; success redirects to the admin
// listing.
func CreateAgency(agencies *store.AgencyStore, sizes *store.SizeStore, tags *store.TagStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input := parseAgencyForm(c)

		_, err := agencies.Create(c.Context(), input)
		if errors.Is(err, store.ErrValidation) {
			allSizes, allTags, lerr := loadLookups(c, sizes, tags)
			if lerr != nil {
				return lerr
			}
			c.Status(fiber.StatusBadRequest)
			return render(c, templates.AgencyFormPage(nil, allSizes, allTags, err.Error()))
		}
		if err != nil {
			log.Printf("Failed to create agency: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create agency")
		}

		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
}

// EditAgencyForm renders the edit form for an existing agency.
func EditAgencyForm(agencies *store.AgencyStore, sizes *store.SizeStore, tags *store.TagStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := agencies.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			log.Printf("Failed to load agency: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load agency")
		}
		if view == nil {
			c.Status(fiber.StatusNotFound)
			return render(c, templates.ErrorPage("Not Found", "No such agency."))
		}

		allSizes, allTags, err := loadLookups(c, sizes, tags)
		if err != nil {
			return err
		}
		return render(c, templates.AgencyFormPage(view, allSizes, allTags, ""))
	}
}

// UpdateAgency handles the edit form post.
func UpdateAgency(agencies *store.AgencyStore, sizes *store.SizeStore, tags *store.TagStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		input := parseAgencyForm(c)

		err := agencies.Update(c.Context(), id, input)
		switch {
		case errors.Is(err, store.ErrValidation):
			view, gerr := agencies.GetByID(c.Context(), id)
			if gerr != nil || view == nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to load agency")
			}
			allSizes, allTags, lerr := loadLookups(c, sizes, tags)
			if lerr != nil {
				return lerr
			}
			c.Status(fiber.StatusBadRequest)
			return render(c, templates.AgencyFormPage(view, allSizes, allTags, err.Error()))
		case errors.Is(err, store.ErrNotFound):
			c.Status(fiber.StatusNotFound)
			return render(c, templates.ErrorPage("Not Found", "No such agency."))
		case err != nil:
			log.Printf("Failed to update agency: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update agency")
		}

		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
}

// DeleteAgency removes an agency. Deleting an unknown id is a no-op.
func DeleteAgency(agencies *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := agencies.Delete(c.Context(), c.FormValue("id")); err != nil {
			log.Printf("Failed to delete agency: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete agency")
		}
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
}

// ToggleAgency flips an agency's public visibility.
func ToggleAgency(agencies *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := agencies.ToggleVisible(c.Context(), c.FormValue("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.Status(fiber.StatusNotFound)
			return render(c, templates.ErrorPage("Not Found", "No such agency."))
		}
		if err != nil {
			log.Printf("Failed to toggle agency: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to toggle agency")
		}
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
}

func loadLookups(c *fiber.Ctx, sizes *store.SizeStore, tags *store.TagStore) ([]model.Size, []model.Tag, error) {
	allSizes, err := sizes.GetAll(c.Context())
	if err != nil {
		log.Printf("Failed to load sizes: %v", err)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load sizes")
	}
	allTags, err := tags.GetAll(c.Context())
	if err != nil {
		log.Printf("Failed to load tags: %v", err)
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load tags")
	}
	return allSizes, allTags, nil
}

// parseAgencyForm reads the shared create/edit form fields.
func parseAgencyForm(c *fiber.Ctx) model.AgencyInput {
	input := model.AgencyInput{
		Name: strings.TrimSpace(c.FormValue("name")),
		URL:  strings.TrimSpace(c.FormValue("url")),
	}

	if founded := strings.TrimSpace(c.FormValue("founded")); founded != "" {
		if year, err := strconv.ParseInt(founded, 10, 64); err == nil {
			input.Founded = sql.NullInt64{Int64: year, Valid: true}
		}
	}
	if logoURL := strings.TrimSpace(c.FormValue("logo_url")); logoURL != "" {
		input.LogoURL = sql.NullString{String: logoURL, Valid: true}
	}
	if sizeID := strings.TrimSpace(c.FormValue("size_id")); sizeID != "" {
		input.SizeID = sql.NullString{String: sizeID, Valid: true}
	}

	for _, id := range c.Request().PostArgs().PeekMulti("tag_ids") {
		if len(id) > 0 {
			input.TagIDs = append(input.TagIDs, string(id))
		}
	}

	return input
}
