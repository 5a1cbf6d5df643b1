package handler

import (
	"log"      // server-side failure detail
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4"

	"github.com/dangoo/shop-backend/internal/model"
	"github.com/dangoo/shop-backend/internal/repository"
)

// CartHandler serves the shopping cart.  Adding a product snapshots its
// title, description, price and first image into the line, then writes
// through a single upsert keyed on the (user, product) uniqueness
// constraint — repeated adds increment quantity instead of duplicating
// rows, including under concurrent requests.
type CartHandler struct {
	Products *repository.ProductRepo
	Carts    *repository.CartRepo
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(products *repository.ProductRepo, carts *repository.CartRepo) *CartHandler {
	if products == nil || carts == nil {
		panic("nil repository passed to NewCartHandler")
	}
	return &CartHandler{Products: products, Carts: carts}
}

type cartAddReq struct {
	UserID     uint64   `json:"user_id"`
	ItemID     uint64   `json:"item_id"`
	Quantity   uint32   `json:"quantity"`
	TotalPrice *float64 `json:"total_price"`
}

// Add handles POST /cart/add.  Required fields are checked before any
// database round-trip; a missing product is rejected with 404 before
// the write is attempted.
func (h *CartHandler) Add(c echo.Context) error {
	var req cartAddReq
	if err := c.Bind(&req); err != nil {
		return jsonFail(c, http.StatusBadRequest, "invalid body")
	}
	if req.UserID == 0 || req.ItemID == 0 || req.Quantity == 0 {
		return jsonFail(c, http.StatusBadRequest, "user_id, item_id and quantity are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	title, description, price, image, err := h.Products.Snapshot(ctx, req.ItemID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return jsonFail(c, http.StatusNotFound, "product not found")
		}
		log.Printf("cart add: snapshot product %d: %v", req.ItemID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add item to cart")
	}

	line := model.CartLine{
		UserID:      req.UserID,
		ProductID:   req.ItemID,
		Quantity:    req.Quantity,
		Title:       title,
		Description: description,
		Price:       price,
		Image:       image,
		TotalPrice:  req.TotalPrice,
	}
	if err := h.Carts.Upsert(ctx, line); err != nil {
		log.Printf("cart add: upsert user %d product %d: %v", req.UserID, req.ItemID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to add item to cart")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "Item added to cart"})
}

// List handles GET /cart/:userId.
func (h *CartHandler) List(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	lines, err := h.Carts.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("cart list: user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to fetch cart")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"cart": lines})
}

// Remove handles DELETE /cart/:userId/:itemId, dropping one line.
func (h *CartHandler) Remove(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid user id")
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid item id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Carts.DeleteLine(ctx, userID, itemID); err != nil {
		if err == repository.ErrCartLineNotFound {
			return jsonFail(c, http.StatusNotFound, "cart line not found")
		}
		log.Printf("cart remove: user %d product %d: %v", userID, itemID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to remove item from cart")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "Item removed from cart"})
}

// Clear handles DELETE /cart/:userId.  Clearing an empty cart succeeds.
func (h *CartHandler) Clear(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return jsonFail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Carts.ClearByUser(ctx, userID); err != nil {
		log.Printf("cart clear: user %d: %v", userID, err)
		return jsonFail(c, http.StatusInternalServerError, "Failed to clear cart")
	}
	return jsonOK(c, http.StatusOK, echo.Map{"message": "Cart cleared"})
}
