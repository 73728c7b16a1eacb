package handlers

import (
	"errors"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jroman/agencydir/internal/blob"
	"github.com/jroman/agencydir/internal/templates"
)

// maxImageSize caps uploads at 5 MiB.
const maxImageSize = 5 << 20

// AdminImages lists the stored images.
func AdminImages(images blob.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all, err := images.List(c.Context())
		if err != nil {
			log.Printf("Failed to list images: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list images")
		}
		return render(c, templates.ImagesPage(all, c.Query("error")))
	}
}

// UploadImage stores an uploaded image under a fresh random key, keeping
// the original file extension. Non-image uploads and files over the size
// cap are rejected.
func UploadImage(images blob.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header, err := c.FormFile("image")
		if err != nil {
			return uploadError(c, "No file uploaded.")
		}
		if header.Size > maxImageSize {
			return uploadError(c, "Image must be 5 MB or smaller.")
		}

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return uploadError(c, "Only image files can be uploaded.")
		}

		f, err := header.Open()
		if err != nil {
			log.Printf("Failed to open upload: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read upload")
		}
		defer f.Close()

		key := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		if _, err := images.Put(c.Context(), key, f, blob.PutOptions{ContentType: contentType}); err != nil {
			log.Printf("Failed to store image: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store image")
		}

		return c.Redirect("/admin/images", fiber.StatusSeeOther)
	}
}

// DeleteImage removes a stored image. Deleting an unknown key is a
// no-op.
func DeleteImage(images blob.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.FormValue("key")
		if key == "" {
			return uploadError(c, "No image key given.")
		}
		if err := images.Delete(c.Context(), key); err != nil {
			log.Printf("Failed to delete image: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete image")
		}
		return c.Redirect("/admin/images", fiber.StatusSeeOther)
	}
}

// ServeImage streams a stored image. Keys are random or content-derived
// and never reused for different bytes, so responses are immutable and
// cached hard.
func ServeImage(images blob.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := url.PathUnescape(c.Params("key"))
		if err != nil || key == "" {
			return c.SendStatus(fiber.StatusBadRequest)
		}

		info, r, err := images.Get(c.Context(), key)
		if errors.Is(err, blob.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		if err != nil {
			log.Printf("Failed to read image %s: %v", key, err)
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		return c.SendStream(r, int(info.Size))
	}
}

func uploadError(c *fiber.Ctx, message string) error {
	return c.Redirect("/admin/images?error="+url.QueryEscape(message), fiber.StatusSeeOther)
}
