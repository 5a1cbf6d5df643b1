package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dangoo/shop-backend/internal/model"
)

// OrderRepo provides persistence for orders and their line items.
// Order placement is the only multi-statement atomic unit in the
// system: header insert, bulk item insert and cart purge share one
// transaction opened by the handler through DB().
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so the order placement handler can
// open the transaction that spans order, items and cart writes.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the order header within the scope of an existing
// transaction and populates the generated ID on the provided record.
// Status is always 'pending' for new orders.  The caller must commit
// or roll back.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, total_price, status, phone, location, email, name)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.UserID, o.TotalPrice, model.OrderStatusPending,
		o.Phone, o.Location, o.Email, o.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.OrderStatusPending
	return nil
}

// CreateItemsBulkTx inserts all line items in a single statement within
// the provided transaction.  Each record must carry the order ID
// generated by CreateTx.  Passing an empty slice has no effect and
// returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES `
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.ProductID, it.Quantity, it.PriceAtPurchase)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// OrderDetail is an order with its line items folded in, as returned to
// clients.
type OrderDetail struct {
	ID         uint64            `json:"id"`
	UserID     *uint64           `json:"user_id,omitempty"`
	TotalPrice float64           `json:"total_price"`
	Status     string            `json:"status"`
	Phone      string            `json:"phone"`
	Location   string            `json:"location"`
	Email      *string           `json:"email,omitempty"`
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemDetail `json:"items"`
}

// OrderItemDetail is one purchased line within an OrderDetail.
type OrderItemDetail struct {
	ProductID       uint64  `json:"product_id"`
	Quantity        uint32  `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

func scanOrderRow(rows *sql.Rows, d *OrderDetail) error {
	var (
		userID sql.NullInt64
		email  sql.NullString
	)
	if err := rows.Scan(&d.ID, &userID, &d.TotalPrice, &d.Status,
		&d.Phone, &d.Location, &email, &d.Name, &d.CreatedAt); err != nil {
		return err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		d.UserID = &uid
	}
	if email.Valid {
		e := email.String
		d.Email = &e
	}
	d.Items = []OrderItemDetail{}
	return nil
}

// ListByUser returns the user's orders, newest first, with line items
// populated in a single follow-up query folded by order id.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	const q = `SELECT id, user_id, total_price, status, phone, location, email, name, created_at
	           FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d OrderDetail
		if err := scanOrderRow(rows, &d); err != nil {
			return nil, err
		}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate items for all orders in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	itemQuery := `SELECT order_id, product_id, quantity, price_at_purchase
	              FROM order_items
	              WHERE order_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY order_id, id`
	irows, err := r.db.QueryContext(ctx, itemQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var (
			orderID uint64
			it      OrderItemDetail
		)
		if err := irows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, err
		}
		i, ok := index[orderID]
		if !ok {
			continue
		}
		details[i].Items = append(details[i].Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByID returns a single order with items.  ErrOrderNotFound is
// returned when the id does not resolve.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*OrderDetail, error) {
	const q = `SELECT id, user_id, total_price, status, phone, location, email, name, created_at
	           FROM orders WHERE id = ?`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrOrderNotFound
	}
	var d OrderDetail
	if err := scanOrderRow(rows, &d); err != nil {
		return nil, err
	}
	rows.Close()
	const itemQ = `SELECT order_id, product_id, quantity, price_at_purchase
	               FROM order_items WHERE order_id = ? ORDER BY id`
	irows, err := r.db.QueryContext(ctx, itemQ, id)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var (
			orderID uint64
			it      OrderItemDetail
		)
		if err := irows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, err
		}
		d.Items = append(d.Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus transitions an order to one of the closed states.  The
// caller validates the status value; this method reports
// ErrOrderNotFound when the id does not resolve.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the order does not exist or the status already matched.
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM orders WHERE id = ?", id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrOrderNotFound
			}
			return err
		}
	}
	return nil
}
