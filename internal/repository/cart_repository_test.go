package repository

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangoo/shop-backend/internal/model"
)

func newCartRepo(t *testing.T) (*CartRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCartRepo(db), mock
}

func TestUpsertIsOneStatement(t *testing.T) {
	repo, mock := newCartRepo(t)

	total := 59.98
	mock.ExpectExec(`INSERT INTO cart_items[\s\S]*ON DUPLICATE KEY UPDATE[\s\S]*quantity = quantity \+ VALUES\(quantity\)`).
		WithArgs(uint64(1), uint64(7), uint32(2), "ThinkBook 14", "slim laptop", 29.99, []byte{0xff}, &total).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.Upsert(context.Background(), model.CartLine{
		UserID:      1,
		ProductID:   7,
		Quantity:    2,
		Title:       "ThinkBook 14",
		Description: "slim laptop",
		Price:       29.99,
		Image:       []byte{0xff},
		TotalPrice:  &total,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserEncodesSnapshotImage(t *testing.T) {
	repo, mock := newCartRepo(t)

	img := []byte{0xde, 0xad}
	rows := sqlmock.NewRows([]string{"id", "product_id", "title", "description", "price", "quantity", "image", "total_price"}).
		AddRow(10, 7, "ThinkBook 14", "slim laptop", 899.99, 1, img, 899.99).
		AddRow(11, 9, "USB-C Hub", "7-in-1", 39.50, 3, nil, nil)

	mock.ExpectQuery("FROM cart_items WHERE user_id =").
		WithArgs(uint64(1)).
		WillReturnRows(rows)

	lines, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(img), lines[0].Image)
	require.NotNil(t, lines[0].TotalPrice)
	assert.Equal(t, 899.99, *lines[0].TotalPrice)

	assert.Empty(t, lines[1].Image)
	assert.Nil(t, lines[1].TotalPrice)
}

func TestDeleteLineNotFound(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id =").
		WithArgs(uint64(1), uint64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteLine(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestClearByUserEmptyCartIsNotAnError(t *testing.T) {
	repo, mock := newCartRepo(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE user_id =").
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.ClearByUser(context.Background(), 42))
}
