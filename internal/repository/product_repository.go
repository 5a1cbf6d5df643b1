package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"strings"

	"github.com/dangoo/shop-backend/internal/model"
)

// ProductRepo provides catalog persistence: product rows, their image
// blobs and the closed category lookup.  Listing queries join products
// against product_images and fold the flat one-row-per-image result
// into one object per product, which is the shape handlers return.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span product and image writes.
func (r *ProductRepo) DB() *sql.DB { return r.db }

// ProductDetail is the aggregated catalog entry returned to clients.
// Images holds base64 data-URI strings; a product without images gets
// an empty list, never null.
type ProductDetail struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	IsNew       bool     `json:"is_new"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// ProductFilter narrows List results.  Zero values mean "no filter";
// CategoryID and Search compose, OnlyNew selects the deals listing.
type ProductFilter struct {
	CategoryID uint64
	Search     string
	OnlyNew    bool
}

// dataURI encodes raw image bytes the way the API exposes them.
// Storage keeps raw bytes; only responses carry the base64 form.
func dataURI(b []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
}

// CreateTx inserts a product row within an existing transaction and
// populates the generated ID.  The caller must commit or roll back.
func (r *ProductRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Product) error {
	const q = `INSERT INTO products (category_id, title, description, price, is_new) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.CategoryID, p.Title, p.Description, p.Price, p.IsNew)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CreateImagesBulkTx inserts all image blobs for a product in a single
// statement within the provided transaction.  Passing an empty slice
// has no effect and returns nil.
func (r *ProductRepo) CreateImagesBulkTx(ctx context.Context, tx *sql.Tx, productID uint64, images [][]byte) error {
	if len(images) == 0 {
		return nil
	}
	query := `INSERT INTO product_images (product_id, image) VALUES `
	args := make([]interface{}, 0, len(images)*2)
	for i, img := range images {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, productID, img)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// List returns aggregated catalog entries matching the filter.  The
// LEFT JOIN yields one row per product×image (products without images
// yield a single row with a NULL image); rows are folded in arrival
// order into one ProductDetail per product id, appending every non-null
// image as a data URI.  Output preserves first-seen order.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]ProductDetail, error) {
	query := `SELECT p.id, p.title, p.description, p.price, p.is_new, c.slug, pi.image
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          LEFT JOIN product_images pi ON pi.product_id = p.id`
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if f.CategoryID != 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(p.title LIKE ? OR p.description LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	if f.OnlyNew {
		conds = append(conds, "p.is_new = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.id, pi.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ProductDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			id          uint64
			title       string
			description string
			price       float64
			isNew       bool
			category    string
			image       []byte
		)
		if err := rows.Scan(&id, &title, &description, &price, &isNew, &category, &image); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			i = len(details)
			index[id] = i
			details = append(details, ProductDetail{
				ID:          id,
				Title:       title,
				Description: description,
				Price:       price,
				IsNew:       isNew,
				Category:    category,
				Images:      []string{},
			})
		}
		if image != nil {
			details[i].Images = append(details[i].Images, dataURI(image))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByID returns a single aggregated product.  ErrProductNotFound is
// returned when the id does not resolve.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*ProductDetail, error) {
	const q = `SELECT p.id, p.title, p.description, p.price, p.is_new, c.slug
	           FROM products p
	           JOIN categories c ON c.id = p.category_id
	           WHERE p.id = ?`
	var det ProductDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&det.ID, &det.Title, &det.Description, &det.Price, &det.IsNew, &det.Category)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	det.Images = []string{}
	const imgQ = `SELECT image FROM product_images WHERE product_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, imgQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var img []byte
		if err := rows.Scan(&img); err != nil {
			return nil, err
		}
		if img != nil {
			det.Images = append(det.Images, dataURI(img))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &det, nil
}

// Snapshot captures the fields a cart line copies from a product at the
// time it is added: title, description, price and the first image (raw
// bytes, may be nil).  ErrProductNotFound is returned when the product
// does not exist, letting callers reject before any write.
func (r *ProductRepo) Snapshot(ctx context.Context, id uint64) (title, description string, price float64, image []byte, err error) {
	const q = `SELECT p.title, p.description, p.price,
	                  (SELECT pi.image FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.id LIMIT 1)
	           FROM products p WHERE p.id = ?`
	err = r.db.QueryRowContext(ctx, q, id).Scan(&title, &description, &price, &image)
	if err == sql.ErrNoRows {
		err = ErrProductNotFound
	}
	return
}

// Delete removes a product; its image rows go with it via FK cascade.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetCategoryBySlug resolves a client-supplied category key against the
// closed categories table.  Unknown keys yield ErrUnknownCategory; the
// key itself never reaches SQL as anything but a bind parameter.
func (r *ProductRepo) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	var cat model.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, slug, name FROM categories WHERE slug = ? LIMIT 1", slug).
		Scan(&cat.ID, &cat.Slug, &cat.Name)
	if err == sql.ErrNoRows {
		return model.Category{}, ErrUnknownCategory
	}
	return cat, err
}

// ListCategories returns the closed category set in id order.
func (r *ProductRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, slug, name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cats := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
