// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/handler"
	"github.com/dangoo/shop-backend/internal/middleware"
	"github.com/dangoo/shop-backend/internal/model"
)

// Handlers bundles every handler the API exposes so registration takes a
// single argument from main.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Carts    *handler.CartHandler
	Orders   *handler.OrderHandler
}

// Register mounts all routes.  Auth and cart endpoints live at the
// root; the /api prefix carries the catalog and order endpoints only.
// rdb may be nil, in which case the cache and rate-limit middleware
// become pass-throughs.
func Register(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Auth. Signup and login are the credential-stuffing targets, so
	// they sit behind the token bucket.
	e.POST("/signup", h.Auth.Signup, limiter)
	e.POST("/login", h.Auth.Login, limiter)
	e.POST("/auth/refresh", h.Auth.Refresh, limiter)

	// Cart endpoints stay open: guests build carts too, keyed by the
	// user id carried in the body or path.
	e.POST("/cart/add", h.Carts.Add)
	e.GET("/cart/:userId", h.Carts.List)
	e.DELETE("/cart/:userId/:itemId", h.Carts.Remove)
	e.DELETE("/cart/:userId", h.Carts.Clear)

	// Account routes below require a valid access token.
	jwt := middleware.JWTAuth(cfg.JWTSecret)
	e.POST("/password/change", h.Auth.ChangePassword, jwt)
	e.DELETE("/account", h.Auth.DeleteAccount, jwt)

	api := e.Group("/api")

	// Catalog reads are public and cacheable.
	api.GET("/products", h.Products.List, cache)
	api.GET("/products/:id", h.Products.Get, cache)
	api.GET("/deals", h.Products.Deals, cache)
	api.GET("/categories", h.Products.Categories, cache)

	// Guests may place orders, so checkout stays open.
	api.POST("/orders", h.Orders.Place)
	api.GET("/orders/:userId", h.Orders.ListByUser, jwt)

	// Catalog writes and order administration are admin-only.
	admin := api.Group("", jwt, middleware.RequireRole(model.RoleAdmin))
	admin.POST("/products", h.Products.Create)
	admin.DELETE("/products/:id", h.Products.Delete)
	admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)
}
