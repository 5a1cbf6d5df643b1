package handler

import (
	"io"       // reading uploaded image parts into memory
	"log"      // server-side failure detail
	"net/http" // HTTP status codes
	"strconv"  // query/form parsing
	"strings"  // field normalization

	"github.com/labstack/echo/v4"

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/model"
	"github.com/dangoo/shop-backend/internal/repository"
)

// ProductHandler serves the catalog: aggregated listings, single
// products, the deals view, the closed category set and admin-side
// create/delete.  Listing responses fold the product×image join into
// one object per product with a nested images list.
type ProductHandler struct {
	Cfg      config.Config
	Products *repository.ProductRepo
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(cfg config.Config, products *repository.ProductRepo) *ProductHandler {
	if products == nil {
		panic("nil repository passed to NewProductHandler")
	}
	return &ProductHandler{Cfg: cfg, Products: products}
}

// List handles GET /api/products.  The two query parameters compose and
// never overlap in meaning: categoryId narrows to one category, search
// matches title or description.  Both absent returns the full catalog.
func (h *ProductHandler) List(c echo.Context) error {
	var filter repository.ProductFilter
	if raw := strings.TrimSpace(c.QueryParam("categoryId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return jsonFail(c, http.StatusBadRequest, "invalid categoryId")
		}
		filter.CategoryID = id
	}
	filter.Search = c.QueryParam("search")

	ctx, cancel := dbCtx(c)
	defer cancel()
	products, err := h.Products.List(ctx, filter)
	if err != nil {
		log.Printf("list products: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch products")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"products": products})
}

// Deals handles GET /api/deals: the catalog restricted to products
// flagged as new, same aggregated shape as List.
func (h *ProductHandler) Deals(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	products, err := h.Products.List(ctx, repository.ProductFilter{OnlyNew: true})
	if err != nil {
		log.Printf("list deals: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch deals")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"products": products})
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid product id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	det, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return jsonFail(c, http.StatusNotFound, "product not found")
		}
		log.Printf("get product %d: %v", id, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch product")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"product": det})
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	cats, err := h.Products.ListCategories(ctx)
	if err != nil {
		log.Printf("list categories: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch categories")
	}
	out := make([]echo.Map, 0, len(cats))
	for _, cat := range cats {
		out = append(out, echo.Map{"id": cat.ID, "slug": cat.Slug, "name": cat.Name})
	}
	return jsonOK(c, http.StatusOK, echo.Map{"categories": out})
}

// Create handles POST /api/products (multipart).  Field values and up
// to MaxImageCount image files are read into memory; the product row
// and all image rows are written in one transaction so a failed image
// insert never leaves a half-created product behind.
func (h *ProductHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	priceRaw := strings.TrimSpace(c.FormValue("price"))
	categorySlug := strings.TrimSpace(c.FormValue("category"))
	if title == "" || priceRaw == "" || categorySlug == "" {
		return jsonFail(c, http.StatusBadRequest, "title, price and category are required")
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price < 0 {
		return jsonFail(c, http.StatusBadRequest, "invalid price")
	}
	isNew := false
	if raw := c.FormValue("isNew"); raw != "" {
		isNew, _ = strconv.ParseBool(raw)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid multipart body")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return jsonFail(c, http.StatusBadRequest, "No images uploaded")
	}
	if len(files) > h.Cfg.MaxImageCount {
		files = files[:h.Cfg.MaxImageCount]
	}
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return jsonFail(c, http.StatusBadRequest, "unreadable image upload")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil || len(data) == 0 {
			return jsonFail(c, http.StatusBadRequest, "unreadable image upload")
		}
		images = append(images, data)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	cat, err := h.Products.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		if err == repository.ErrUnknownCategory {
			return jsonFail(c, http.StatusBadRequest, "unknown category")
		}
		log.Printf("create product: resolve category %q: %v", categorySlug, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add product")
	}

	tx, err := h.Products.DB().BeginTx(ctx, nil)
	if err != nil {
		log.Printf("create product: begin tx: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add product")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p := model.Product{
		CategoryID:  cat.ID,
		Title:       title,
		Description: description,
		Price:       price,
		IsNew:       isNew,
	}
	if err := h.Products.CreateTx(ctx, tx, &p); err != nil {
		log.Printf("create product: insert: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add product")
	}
	if err := h.Products.CreateImagesBulkTx(ctx, tx, p.ID, images); err != nil {
		log.Printf("create product %d: insert images: %v", p.ID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add product")
	}
	if err := tx.Commit(); err != nil {
		log.Printf("create product %d: commit: %v", p.ID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add product")
	}
	committed = true

	return jsonOK(c, http.StatusOK, echo.Map{
		"message":    "Product and images added successfully",
		"product_id": p.ID,
	})
}

// Delete handles DELETE /api/products/:id.  Image rows cascade.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid product id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, id); err != nil {
		if err == repository.ErrProductNotFound {
			return jsonFail(c, http.StatusNotFound, "product not found")
		}
		log.Printf("delete product %d: %v", id, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to delete product")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "product deleted"})
}
