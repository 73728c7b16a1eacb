package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/jroman/agencydir/internal/store"
	"github.com/jroman/agencydir/internal/templates"
)

// Home renders the public listing of visible agencies. A store failure
// is logged and the page renders empty rather than erroring; the public
// site stays up even when the database is unhappy.
func Home(agencies *store.AgencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views, err := agencies.List(c.Context(), true)
		if err != nil {
			log.Printf("Failed to list agencies: %v", err)
			views = nil
		}
		return render(c, templates.HomePage(views))
	}
}
