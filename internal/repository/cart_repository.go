package repository

import (
	"context"
	"database/sql"

	"github.com/dangoo/shop-backend/internal/model"
)

// CartRepo persists cart lines.  A line is unique per (user, product);
// the UNIQUE constraint backs the upsert so concurrent adds for the
// same pair serialize in the database instead of producing duplicates.
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a new CartRepo bound to the given database.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// Upsert inserts a cart line or, when a line for (user, product) already
// exists, increments its quantity by the given amount and overwrites the
// stored total price.  The whole conditional write is one statement
// keyed on the uniqueness constraint, atomic from the caller's view.
func (r *CartRepo) Upsert(ctx context.Context, line model.CartLine) error {
	const q = `INSERT INTO cart_items
	             (user_id, product_id, quantity, title, description, price, image, total_price)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             quantity = quantity + VALUES(quantity),
	             total_price = VALUES(total_price)`
	_, err := r.db.ExecContext(ctx, q,
		line.UserID, line.ProductID, line.Quantity,
		line.Title, line.Description, line.Price, line.Image, line.TotalPrice)
	return err
}

// CartLineDetail is the cart entry shape returned to clients.  Image is
// the base64 data-URI form of the snapshot blob, empty when the product
// had no image at the time of adding.
type CartLineDetail struct {
	CartID      uint64   `json:"cart_id"`
	ProductID   uint64   `json:"item_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Quantity    uint32   `json:"quantity"`
	Image       string   `json:"image,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
}

// ListByUser returns the user's cart lines with their snapshot fields,
// oldest line first.
func (r *CartRepo) ListByUser(ctx context.Context, userID uint64) ([]CartLineDetail, error) {
	const q = `SELECT id, product_id, title, description, price, quantity, image, total_price
	           FROM cart_items WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]CartLineDetail, 0)
	for rows.Next() {
		var (
			d     CartLineDetail
			img   []byte
			total sql.NullFloat64
		)
		if err := rows.Scan(&d.CartID, &d.ProductID, &d.Title, &d.Description, &d.Price, &d.Quantity, &img, &total); err != nil {
			return nil, err
		}
		if img != nil {
			d.Image = dataURI(img)
		}
		if total.Valid {
			t := total.Float64
			d.TotalPrice = &t
		}
		lines = append(lines, d)
	}
	return lines, rows.Err()
}

// DeleteLine removes the line for (user, product).  ErrCartLineNotFound
// is returned when no such line exists.
func (r *CartRepo) DeleteLine(ctx context.Context, userID, productID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// ClearByUser removes every line of the user's cart.  Clearing an
// already-empty cart is not an error.
func (r *CartRepo) ClearByUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return err
}

// ClearByUserTx is ClearByUser within an existing transaction; the order
// placement flow uses it so the cart purge commits or rolls back with
// the order writes.
func (r *CartRepo) ClearByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return err
}
