package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/handler"
	"github.com/dangoo/shop-backend/internal/repository"
)

func newRegisteredEcho(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	products := repository.NewProductRepo(db)
	carts := repository.NewCartRepo(db)

	h := Handlers{
		Auth:     handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)),
		Products: handler.NewProductHandler(cfg, products),
		Carts:    handler.NewCartHandler(products, carts),
		Orders:   handler.NewOrderHandler(repository.NewOrderRepo(db), carts, nil),
	}

	e := echo.New()
	Register(e, h, &cfg, nil)
	return e, mock
}

// Auth and cart live at the root; only catalog and orders carry the
// /api prefix.
func TestRouteSurface(t *testing.T) {
	e, _ := newRegisteredEcho(t)

	want := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/healthz"},
		{http.MethodPost, "/signup"},
		{http.MethodPost, "/login"},
		{http.MethodPost, "/auth/refresh"},
		{http.MethodPost, "/cart/add"},
		{http.MethodGet, "/cart/:userId"},
		{http.MethodDelete, "/cart/:userId/:itemId"},
		{http.MethodDelete, "/cart/:userId"},
		{http.MethodPost, "/password/change"},
		{http.MethodDelete, "/account"},
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/products/:id"},
		{http.MethodGet, "/api/deals"},
		{http.MethodGet, "/api/categories"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders/:userId"},
		{http.MethodPost, "/api/products"},
		{http.MethodDelete, "/api/products/:id"},
		{http.MethodPut, "/api/orders/:id/status"},
	}

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, w := range want {
		assert.True(t, registered[w.method+" "+w.path], "missing route %s %s", w.method, w.path)
	}
}

func TestRootRoutesAnswerWithoutAPIPrefix(t *testing.T) {
	e, mock := newRegisteredEcho(t)

	// Handler-level validation answers, so reaching anything but 404
	// proves the route is mounted.
	cases := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/signup", `{"email":"a@b.c","password":"x","confirmPassword":"y"}`},
		{http.MethodPost, "/login", `{"email":"","password":""}`},
		{http.MethodPost, "/cart/add", `{"user_id":0,"item_id":0,"quantity":0}`},
		{http.MethodDelete, "/cart/0", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
		if tc.body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.method, tc.target)
	}

	mock.ExpectQuery("FROM cart_items WHERE user_id =").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "title", "description", "price", "quantity", "image", "total_price"}))

	req := httptest.NewRequest(http.MethodGet, "/cart/1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cart":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newRegisteredEcho(t)

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodPost, "/password/change"},
		{http.MethodDelete, "/account"},
		{http.MethodGet, "/api/orders/1"},
		{http.MethodPost, "/api/products"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.target)
	}
}
