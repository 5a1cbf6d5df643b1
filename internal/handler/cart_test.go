package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangoo/shop-backend/internal/repository"
)

func newCartHandler(t *testing.T) (*CartHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCartHandler(repository.NewProductRepo(db), repository.NewCartRepo(db)), mock
}

func TestCartAddRequiresAllFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"item_id":7,"quantity":1}`},
		{"missing item", `{"user_id":1,"quantity":1}`},
		{"zero quantity", `{"user_id":1,"item_id":7,"quantity":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, mock := newCartHandler(t)
			c, rec := postJSON("/api/cart", tc.body)
			require.NoError(t, h.Add(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCartAddUnknownProductRejectedBeforeWrite(t *testing.T) {
	h, mock := newCartHandler(t)

	mock.ExpectQuery("SELECT p.title, p.description, p.price").
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "description", "price", "image"}))

	c, rec := postJSON("/api/cart", `{"user_id":1,"item_id":999,"quantity":1}`)
	require.NoError(t, h.Add(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartAddSnapshotsProductAndUpserts(t *testing.T) {
	h, mock := newCartHandler(t)

	img := []byte{0xff, 0xd8}
	mock.ExpectQuery("SELECT p.title, p.description, p.price").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "description", "price", "image"}).
			AddRow("ThinkBook 14", "slim laptop", 899.99, img))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(uint64(1), uint64(7), uint32(2), "ThinkBook 14", "slim laptop", 899.99, img, 1799.98).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := postJSON("/api/cart", `{"user_id":1,"item_id":7,"quantity":2,"total_price":1799.98}`)
	require.NoError(t, h.Add(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Item added to cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRemoveUnknownLine(t *testing.T) {
	h, mock := newCartHandler(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id =").
		WithArgs(uint64(1), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/cart/1/item/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("userId", "itemId")
	c.SetParamValues("1", "9")

	require.NoError(t, h.Remove(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
