package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/a-h/templ"

	"github.com/jroman/agencydir/internal/templates"
)

const (
	authCookieName  = "is_agencies_auth"
	authCookieValue = "authenticated"
	authCookieTTL   = 7 * 24 * time.Hour
	passwordParam   = "password"
)

// RequireAuth gates the admin surface. A request carrying the admin
// secret as a ?password= query parameter gets the auth cookie set and is
// redirected to the same URL with the parameter stripped, so the secret
// does not linger in the address bar or get copied into links. Requests
// with a valid cookie pass through; everything else gets a 401.
func RequireAuth(secret string, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret != "" && c.Query(passwordParam) == secret {
			c.Cookie(&fiber.Cookie{
				Name:     authCookieName,
				Value:    authCookieValue,
				Expires:  time.Now().Add(authCookieTTL),
				HTTPOnly: true,
				Secure:   secureCookies,
				SameSite: fiber.CookieSameSiteLaxMode,
				Path:     "/",
			})
			return c.Redirect(stripPasswordParam(c.OriginalURL()), fiber.StatusSeeOther)
		}

		if c.Cookies(authCookieName) == authCookieValue {
			c.Locals("authenticated", true)
			return c.Next()
		}

		c.Status(fiber.StatusUnauthorized)
		return render(c, templates.ErrorPage("Unauthorized", "This area is restricted."))
	}
}

// stripPasswordParam removes the password parameter from a request URL,
// preserving the rest of the query string.
func stripPasswordParam(original string) string {
	u, err := url.Parse(original)
	if err != nil {
		return "/admin"
	}
	q := u.Query()
	q.Del(passwordParam)
	u.RawQuery = q.Encode()
	return u.String()
}

// render writes a templ component as the response body.
func render(c *fiber.Ctx, component templ.Component) error {
	return adaptor.HTTPHandler(templ.Handler(component))(c)
}
