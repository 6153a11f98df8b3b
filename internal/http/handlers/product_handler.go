package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

const pictureField = "picture"

type ProductHandler struct {
	Catalog *services.CatalogService
}

// productBody accepts both numeric and quoted ids in JSON bodies.
type productBody struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Store   string      `json:"store"`
	Picture string      `json:"picture"`
}

// GET /product/list
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.Catalog.List(c.UserContext())
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to retrieve products")
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// POST /product/create
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	b, err := readBody(c)
	if err != nil {
		return respondErr(c, "product.create", "Failed to create product", err)
	}
	name, ok := validate.Text(b.Name)
	if !ok {
		return invalid(c, "name")
	}
	email, ok := validate.Email(b.Email)
	if !ok {
		return invalid(c, "email")
	}
	store, ok := validate.Text(b.Store)
	if !ok {
		return invalid(c, "store")
	}

	up, closeUpload, err := readUpload(c, pictureField)
	if err != nil {
		return respondErr(c, "product.create", "Failed to create product", err)
	}
	defer closeUpload()

	in := services.ProductInput{Name: name, Email: email, Store: store}
	id, asset, err := h.Catalog.Create(c.UserContext(), in, up)
	if err != nil {
		return respondErr(c, "product.create", "Failed to create product", err)
	}

	applog.Audit(c, "product.create", assetFields(id, asset))
	c.Set("X-Product-ID", strconv.FormatInt(id, 10))
	return c.Status(fiber.StatusCreated).SendString("Product created")
}

// PUT /product/update
//
// All mutable fields are overwritten. Without a new file the stored picture
// becomes whatever "picture" text value the client sent, possibly empty.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	b, err := readBody(c)
	if err != nil {
		return respondErr(c, "product.update", "Failed to update product", err)
	}
	id, ok := validate.ID(b.ID.String())
	if !ok {
		return invalid(c, "id")
	}

	up, closeUpload, err := readUpload(c, pictureField)
	if err != nil {
		return respondErr(c, "product.update", "Failed to update product", err)
	}
	defer closeUpload()

	// not validated, only trimmed the same way create stores values
	in := services.ProductInput{
		Name:    strings.TrimSpace(b.Name),
		Email:   strings.TrimSpace(b.Email),
		Store:   strings.TrimSpace(b.Store),
		Picture: strings.TrimSpace(b.Picture),
	}
	asset, err := h.Catalog.Update(c.UserContext(), id, in, up)
	if err != nil {
		return respondErr(c, "product.update", "Failed to update product", err)
	}

	applog.Audit(c, "product.update", assetFields(id, asset))
	return c.Status(fiber.StatusOK).SendString("Product updated")
}

// DELETE /product/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	b, err := readBody(c)
	if err != nil {
		return respondErr(c, "product.delete", "Failed to delete product", err)
	}
	id, ok := validate.ID(b.ID.String())
	if !ok {
		return invalid(c, "id")
	}

	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, "product.delete", "Failed to delete product", err)
	}

	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.Status(fiber.StatusOK).SendString("Product deleted")
}

// readBody reads product fields from a JSON, urlencoded or multipart body.
func readBody(c *fiber.Ctx) (productBody, error) {
	var b productBody
	if isJSON(c) {
		if err := c.BodyParser(&b); err != nil {
			return b, domain.InvalidField("malformed JSON body")
		}
		return b, nil
	}
	b.ID = json.Number(strings.TrimSpace(c.FormValue("id")))
	b.Name = c.FormValue("name")
	b.Email = c.FormValue("email")
	b.Store = c.FormValue("store")
	b.Picture = c.FormValue(pictureField)
	return b, nil
}

// readUpload returns the file sent under field, or nil when there is none.
// The returned func closes the opened part and is always safe to call.
func readUpload(c *fiber.Ctx, field string) (*domain.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(contentType(c), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, domain.InvalidField("malformed multipart body")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return toUpload(field, fh, f), func() { _ = f.Close() }, nil
}

func toUpload(field string, fh *multipart.FileHeader, f multipart.File) *domain.Upload {
	return &domain.Upload{
		FieldName:    field,
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get(fiber.HeaderContentType),
		Size:         fh.Size,
		Content:      f,
	}
}

func respondErr(c *fiber.Ctx, action, generic string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		applog.Info(c, action+".not_found", nil)
		return c.Status(fiber.StatusNotFound).SendString("Product not found")
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		applog.Security(c, "upload.rejected", map[string]any{"reason": "media_type"})
		return c.Status(fiber.StatusUnsupportedMediaType).SendString("Invalid file type, only JPEG and PNG are allowed!")
	case errors.Is(err, domain.ErrAssetTooLarge):
		applog.Security(c, "upload.rejected", map[string]any{"reason": "size"})
		return c.Status(fiber.StatusRequestEntityTooLarge).SendString("File too large")
	case errors.Is(err, domain.ErrInvalidInput):
		applog.Security(c, "validation.fail", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).SendString(generic)
}

func invalid(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).SendString("Invalid or missing " + field)
}

func assetFields(id int64, a *domain.Asset) map[string]any {
	f := map[string]any{"product_id": id}
	if a != nil {
		f["picture"] = a.Path
		f["size"] = a.Size
		f["checksum"] = a.Checksum
	}
	return f
}

func contentType(c *fiber.Ctx) string {
	return strings.ToLower(string(c.Request().Header.ContentType()))
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(contentType(c), fiber.MIMEApplicationJSON)
}
