package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/store"
)

// Register wires every route onto the app. The admin group sits behind
// RequireAuth; the public listing and image serving do not.
func Register(app *fiber.App, agencies *store.AgencyStore, sizes *store.SizeStore, tags *store.TagStore, images blob.Store, adminSecret string, secureCookies bool) {
	app.Get("/", Home(agencies))
	app.Get("/images/:key", ServeImage(images))

	admin := app.Group("/admin", RequireAuth(adminSecret, secureCookies))
	admin.Get("/", AdminHome(agencies))
	admin.Get("/agencies/new", NewAgencyForm(sizes, tags))
	admin.Post("/agencies/new", CreateAgency(agencies, sizes, tags))
	admin.Get("/agencies/:id/edit", EditAgencyForm(agencies, sizes, tags))
	admin.Post("/agencies/:id/edit", UpdateAgency(agencies, sizes, tags))
	admin.Post("/agencies/delete", DeleteAgency(agencies))
	admin.Post("/agencies/toggle", ToggleAgency(agencies))
	admin.Get("/images", AdminImages(images))
	admin.Post("/images/upload", UploadImage(images))
	admin.Post("/images/delete", DeleteImage(images))
}
