package handler

import (
	"context"  // publisher context independent of the request lifetime
	"log"      // server-side failure detail
	"net/http" // HTTP status codes
	"strings"  // status normalization
	"time"     // event timestamps

	"github.com/labstack/echo/v4"

	"github.com/dangoo/shop-backend/internal/model"
	"github.com/dangoo/shop-backend/internal/queue"
	"github.com/dangoo/shop-backend/internal/repository"
)

// OrderPublisher emits an order event after a successful commit.  It is
// a function value so tests and deployments without a broker can leave
// it nil; publish failures never fail the request that placed the order.
type OrderPublisher func(ctx context.Context, event queue.OrderPlacedEvent) error

// OrderHandler coordinates order placement and retrieval.  Placement is
// the only multi-statement atomic unit in the system: the order header,
// its line items and the cart purge either all become durable or none
// do.  There is no shared mutable state between concurrent placements
// beyond the database's own isolation.
type OrderHandler struct {
	Orders  *repository.OrderRepo
	Carts   *repository.CartRepo
	Publish OrderPublisher
}

// NewOrderHandler constructs an OrderHandler.  publish may be nil.
func NewOrderHandler(orders *repository.OrderRepo, carts *repository.CartRepo, publish OrderPublisher) *OrderHandler {
	if orders == nil || carts == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Carts: carts, Publish: publish}
}

type orderItemReq struct {
	ProductID       uint64  `json:"product_id"`
	Quantity        uint32  `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

type placeOrderReq struct {
	UserID     *uint64        `json:"user_id"`
	Items      []orderItemReq `json:"items"`
	ProductID  uint64         `json:"product_id"`
	Quantity   uint32         `json:"quantity"`
	TotalPrice float64        `json:"total_price"`
	Phone      string         `json:"phone"`
	Location   string         `json:"location"`
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Email      *string        `json:"email"`
}

// normalizeItems accepts either the items array or the older
// single-product form and returns the effective line-item list.
func normalizeItems(req placeOrderReq) []orderItemReq {
	if len(req.Items) > 0 {
		return req.Items
	}
	if req.ProductID == 0 {
		return nil
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	return []orderItemReq{{
		ProductID:       req.ProductID,
		Quantity:        qty,
		PriceAtPurchase: req.TotalPrice / float64(qty),
	}}
}

// Place handles POST /api/orders.  Validation happens before the
// transaction opens: an empty line-item list or missing contact fields
// is a client error, not a database one.  Inside the transaction the
// order header is inserted first to obtain its generated id, then all
// line items in one bulk statement, then the user's cart is purged.
// Any failure rolls the whole scope back and the client sees a single
// generic error; no partial write ever becomes visible.  Guest orders
// (no user_id) skip the cart purge.
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	items := normalizeItems(req)
	if len(items) == 0 {
		return jsonFail(c, http.StatusBadRequest, "order has no items")
	}
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return jsonFail(c, http.StatusBadRequest, "invalid order item")
		}
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Location) == "" || strings.TrimSpace(req.Name) == "" {
		return jsonFail(c, http.StatusBadRequest, "phone, location and name are required")
	}
	if req.TotalPrice <= 0 {
		return jsonFail(c, http.StatusBadRequest, "invalid total_price")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		log.Printf("place order: begin tx: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "failed to place order")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order := model.Order{
		UserID:     req.UserID,
		TotalPrice: req.TotalPrice,
		Phone:      req.Phone,
		Location:   req.Location,
		Email:      req.Email,
		Name:       req.Name,
	}
	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		log.Printf("place order: insert header: %v", err)
		return jsonFail(c, http.StatusInternalServerError, "failed to place order")
	}

	lines := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, model.OrderItem{
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, lines); err != nil {
		// A foreign key violation here means a line referenced a missing
		// product; the rollback also discards the order header.
		log.Printf("place order %d: insert items: %v", order.ID, err)
		return jsonFail(c, http.StatusInternalServerError, "failed to place order")
	}
	if req.UserID != nil {
		if err := h.Carts.ClearByUserTx(ctx, tx, *req.UserID); err != nil {
			log.Printf("place order %d: clear cart of user %d: %v", order.ID, *req.UserID, err)
			return jsonFail(c, http.StatusInternalServerError, "failed to place order")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("place order %d: commit: %v", order.ID, err)
		return jsonFail(c, http.StatusInternalServerError, "failed to place order")
	}
	committed = true

	if h.Publish != nil {
		event := queue.OrderPlacedEvent{
			OrderID:    order.ID,
			UserID:     req.UserID,
			Name:       req.Name,
			Phone:      req.Phone,
			Location:   req.Location,
			Email:      req.Email,
			TotalPrice: req.TotalPrice,
			PlacedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		for _, it := range lines {
			event.Items = append(event.Items, queue.OrderPlacedItem{
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				PriceAtPurchase: it.PriceAtPurchase,
			})
		}
		// The order is durable at this point; a broker outage only loses
		// the notification, so the error is logged and dropped.
		if err := h.Publish(context.Background(), event); err != nil {
			log.Printf("place order %d: publish event: %v", order.ID, err)
		}
	}

	return jsonOK(c, http.StatusOK, echo.Map{
		"message":  "Order placed successfully",
		"order_id": order.ID,
	})
}

// ListByUser handles GET /api/orders/:userId.
func (h *OrderHandler) ListByUser(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("list orders: user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch orders")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"orders": orders})
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/orders/:id/status.  Only the closed
// status set is accepted.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid order id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidOrderStatus(status) {
		return jsonFail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Orders.UpdateStatus(ctx, id, status); err != nil {
		if err == repository.ErrOrderNotFound {
			return jsonFail(c, http.StatusNotFound, "order not found")
		}
		log.Printf("update order %d status: %v", id, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to update order")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "order updated"})
}
