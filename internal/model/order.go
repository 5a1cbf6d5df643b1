package model

import "time"

// Order statuses form a closed set; the database column is an ENUM with
// exactly these values.
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the closed order states.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order records a placed order together with its delivery contact
// fields.  UserID is null for guest checkout.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – user who placed the order (nullable for guests).
//	TotalPrice – total price for all line items.
//	Status     – one of pending, delivered, cancelled.
//	Phone      – delivery contact phone.
//	Location   – delivery address.
//	Email      – contact email (nullable).
//	Name       – recipient name.
//	CreatedAt  – creation timestamp.
type Order struct {
	ID         uint64    // orders.id
	UserID     *uint64   // orders.user_id (nullable)
	TotalPrice float64   // orders.total_price
	Status     string    // orders.status
	Phone      string    // orders.phone
	Location   string    // orders.location
	Email      *string   // orders.email (nullable)
	Name       string    // orders.name
	CreatedAt  time.Time // orders.created_at
}

// OrderItem links an order to one purchased product.  PriceAtPurchase
// is a snapshot taken when the order was placed and is deliberately
// decoupled from the live product price.  Items are created and deleted
// together with their order (FK cascade).
//
// Fields:
//
//	ID              – primary key identifier.
//	OrderID         – reference to the owning order.
//	ProductID       – purchased product.
//	Quantity        – number of units.
//	PriceAtPurchase – unit price at the time of purchase.
type OrderItem struct {
	ID              uint64  // order_items.id
	OrderID         uint64  // order_items.order_id
	ProductID       uint64  // order_items.product_id
	Quantity        uint32  // order_items.quantity
	PriceAtPurchase float64 // order_items.price_at_purchase
}
