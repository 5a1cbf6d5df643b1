// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedItem is a single line of a placed order as carried in the event.
type OrderPlacedItem struct {
	ProductID       uint64  `json:"product_id"`
	Quantity        uint32  `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// OrderPlacedEvent is published when an order transaction commits.
// It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
// UserID and Email are nil for guest checkouts.
type OrderPlacedEvent struct {
	OrderID    uint64            `json:"order_id"`
	UserID     *uint64           `json:"user_id,omitempty"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Location   string            `json:"location"`
	Email      *string           `json:"email,omitempty"`
	TotalPrice float64           `json:"total_price"`
	Items      []OrderPlacedItem `json:"items"`
	PlacedAt   string            `json:"placed_at"`
}
