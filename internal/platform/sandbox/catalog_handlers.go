package sandbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/platform/blobstore"
	"github.com/bakery/storefront/internal/platform/tenant"
	"github.com/bakery/storefront/internal/platform/webhook"
)

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (s *Server) handleListCategories(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	q := strings.ToLower(c.QueryParam("q"))
	out := []catalog.Category{}
	for _, cat := range t.categories {
		if q == "" || strings.Contains(strings.ToLower(cat.Name), q) {
			out = append(out, cat)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var in catalog.CategoryInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	if t.categoryNamed(in.Name) {
		return echo.NewHTTPError(http.StatusConflict, "category "+in.Name+" already exists")
	}
	cat := catalog.Category{ID: uuid.NewString(), Name: in.Name}
	t.categories = append(t.categories, cat)
	return c.JSON(http.StatusCreated, cat)
}

// handleRenameCategory also renames the category on its products, which
// reference it by name.
func (s *Server) handleRenameCategory(c echo.Context) error {
	var in catalog.CategoryInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.categoryIndex(c.Param("id"))
	if i < 0 {
		return notFound("category")
	}
	old := t.categories[i].Name
	if !strings.EqualFold(old, in.Name) && t.categoryNamed(in.Name) {
		return echo.NewHTTPError(http.StatusConflict, "category "+in.Name+" already exists")
	}
	t.categories[i].Name = in.Name
	for j := range t.products {
		if t.products[j].Category == old {
			t.products[j].Category = in.Name
		}
	}
	return c.JSON(http.StatusOK, t.categories[i])
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	i := t.categoryIndex(c.Param("id"))
	if i < 0 {
		return notFound("category")
	}
	name := t.categories[i].Name
	for _, p := range t.products {
		if p.Category == name {
			return echo.NewHTTPError(http.StatusConflict, "category "+name+" still has products")
		}
	}
	t.categories = append(t.categories[:i], t.categories[i+1:]...)
	return c.NoContent(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// handleListProducts filters by q (name or description), category and
// location_id. With a location, stock is the quantity held there and
// products without a row at that location are left out.
func (s *Server) handleListProducts(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	category := c.QueryParam("category")
	locationID := c.QueryParam("location_id")

	out := []catalog.Product{}
	for _, p := range t.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if category != "" && !t.inCategory(p, category) {
			continue
		}
		if locationID != "" {
			if _, ok := t.stock[p.ID][locationID]; !ok {
				continue
			}
		}
		out = append(out, t.withStock(p, locationID))
	}
	return c.JSON(http.StatusOK, out)
}

// inCategory matches the filter against the category name or its id.
func (t *tenantData) inCategory(p catalog.Product, filter string) bool {
	if strings.EqualFold(p.Category, filter) {
		return true
	}
	if i := t.categoryIndex(filter); i >= 0 {
		return t.categories[i].Name == p.Category
	}
	return false
}

func (s *Server) handleGetProduct(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	i := t.productIndex(c.Param("id"))
	if i < 0 {
		return notFound("product")
	}
	return c.JSON(http.StatusOK, t.withStock(t.products[i], ""))
}

// handleCreateProduct accepts JSON or a multipart form with "images" parts.
// The product and its initial stock rows are stored together or not at all.
func (s *Server) handleCreateProduct(c echo.Context) error {
	in, files, err := s.readProductInput(c)
	if err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	// Images are stored before the tenant lock is taken; a failed create
	// leaves them unreferenced.
	images := append([]string{}, in.Images...)
	for _, fh := range files {
		url, err := s.storeImage(c, fh.name, fh.data)
		if err != nil {
			return err
		}
		images = append(images, url)
	}

	t, unlock := s.data(c)
	defer unlock()

	for _, st := range in.Inventory {
		li := t.locationIndex(st.LocationID)
		if li < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown location "+st.LocationID)
		}
		if !t.locations[li].IsActive {
			return echo.NewHTTPError(http.StatusBadRequest, "location "+t.locations[li].Name+" is inactive")
		}
	}

	p := catalog.Product{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Category:     in.Category,
		Images:       images,
		DeliveryDays: in.DeliveryDays,
		TaxRate:      in.TaxRate,
	}
	t.products = append(t.products, p)
	for _, st := range in.Inventory {
		t.setStock(p.ID, st.LocationID, st.Quantity)
	}
	created := t.withStock(p, "")
	s.publish(c, webhook.EventProductCreated, p.ID, created)
	return c.JSON(http.StatusCreated, created)
}

type uploadedFile struct {
	name string
	data []byte
}

func (s *Server) readProductInput(c echo.Context) (catalog.ProductInput, []uploadedFile, error) {
	var in catalog.ProductInput
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		if err := c.Bind(&in); err != nil {
			return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		return in, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	field := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	in.Name = field("name")
	in.Description = field("description")
	in.Category = field("category")
	if in.Price, err = decimalField(field("price")); err != nil {
		return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if in.TaxRate, err = decimalField(field("tax_rate")); err != nil {
		return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid tax rate")
	}
	if v := field("delivery_days"); v != "" {
		if in.DeliveryDays, err = strconv.Atoi(v); err != nil {
			return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid delivery days")
		}
	}
	if v := field("inventory"); v != "" {
		if err := json.Unmarshal([]byte(v), &in.Inventory); err != nil {
			return in, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid inventory")
		}
	}

	var files []uploadedFile
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return in, nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return in, nil, err
		}
		files = append(files, uploadedFile{name: fh.Filename, data: data})
	}
	return in, files, nil
}

func decimalField(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.Replace(v, ",", ".", 1))
}

func (s *Server) storeImage(c echo.Context, name string, data []byte) (string, error) {
	meta := blobstore.BlobMetadata{
		Tenant:   tenant.FromContext(c.Request().Context()),
		Kind:     blobstore.KindProduct,
		FileName: name,
	}
	stored, err := s.blobs.Upload(c.Request().Context(), meta, bytes.NewReader(data))
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return "", echo.NewHTTPError(http.StatusUnsupportedMediaType, name+": "+err.Error())
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, name+": "+err.Error())
		case errors.Is(err, blobstore.ErrMissingFileName):
			return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return "", err
	}
	return stored.URL(), nil
}

// productPatch carries the fields a PATCH may change. Stock is never
// patched; it follows the inventory rows.
type productPatch struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Category     *string          `json:"category"`
	Images       *[]string        `json:"images"`
	DeliveryDays *int             `json:"delivery_days"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
}

func (s *Server) handleUpdateProduct(c echo.Context) error {
	var patch productPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.productIndex(c.Param("id"))
	if i < 0 {
		return notFound("product")
	}
	p := t.products[i]
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.DeliveryDays != nil {
		p.DeliveryDays = *patch.DeliveryDays
	}
	if patch.TaxRate != nil {
		p.TaxRate = *patch.TaxRate
	}

	check := catalog.ProductInput{Name: p.Name, Price: p.Price, DeliveryDays: p.DeliveryDays, TaxRate: p.TaxRate}
	if err := check.Validate(); err != nil {
		return badRequest(err)
	}
	t.products[i] = p
	return c.JSON(http.StatusOK, t.withStock(p, ""))
}

func (s *Server) handleDeleteProduct(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	i := t.productIndex(id)
	if i < 0 {
		return notFound("product")
	}
	t.products = append(t.products[:i], t.products[i+1:]...)
	delete(t.stock, id)
	for _, items := range t.carts {
		delete(items, id)
	}
	s.publish(c, webhook.EventProductDeleted, id, nil)
	return c.NoContent(http.StatusNoContent)
}
