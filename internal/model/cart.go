package model

import "time"

// CartLine is a row in the `cart_items` table.  A line is unique per
// (user, product) pair; adding the same product again increments the
// quantity instead of inserting a second row.  Title, Description,
// Price and Image are snapshots of the product taken when the line was
// created — they intentionally do not follow later catalog edits.
//
// Fields:
//
//	ID          – primary key identifier.
//	UserID      – owner of the cart line.
//	ProductID   – referenced product.
//	Quantity    – number of units, always >= 1.
//	Title       – product title snapshot.
//	Description – product description snapshot.
//	Price       – unit price snapshot at the time of adding.
//	Image       – first product image snapshot (nullable).
//	TotalPrice  – caller-supplied line total (nullable).
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type CartLine struct {
	ID          uint64    // cart_items.id
	UserID      uint64    // cart_items.user_id
	ProductID   uint64    // cart_items.product_id
	Quantity    uint32    // cart_items.quantity
	Title       string    // cart_items.title
	Description string    // cart_items.description
	Price       float64   // cart_items.price
	Image       []byte    // cart_items.image (nullable)
	TotalPrice  *float64  // cart_items.total_price (nullable)
	CreatedAt   time.Time // cart_items.created_at
	UpdatedAt   time.Time // cart_items.updated_at
}
