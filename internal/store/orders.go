package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// StatusPending is the only status orders get at creation; fulfillment
// happens outside this service.
const StatusPending = "Đang chờ xử lý"

type Order struct {
	OrderID      int       `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	BookID       int       `json:"book_id"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	OrderDate    time.Time `json:"order_date"`
}

type CreateOrderParams struct {
	CustomerName string
	Phone        string
	Address      string
	BookID       int
	Quantity     int
}

func CreateOrder(ctx context.Context, q Querier, p CreateOrderParams) (*Order, error) {
	var o Order
	err := q.QueryRow(ctx, `
		INSERT INTO orders (customer_name, phone, address, book_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING order_id, customer_name, phone, address, book_id, quantity, status, order_date`,
		p.CustomerName, p.Phone, p.Address, p.BookID, p.Quantity, StatusPending,
	).Scan(&o.OrderID, &o.CustomerName, &o.Phone, &o.Address, &o.BookID, &o.Quantity, &o.Status, &o.OrderDate)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// PlaceOrder reserves stock and creates the order in one transaction, so
// a failed insert never leaves the stock decremented without an order
// row. It reports false without error when stock is insufficient.
func PlaceOrder(ctx context.Context, db DB, p CreateOrderParams) (*Order, bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	ok, err := DecrementStock(ctx, tx, p.BookID, p.Quantity)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	order, err := CreateOrder(ctx, tx, p)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// GetOrderByID returns nil when the order does not exist.
func GetOrderByID(ctx context.Context, q Querier, id int) (*Order, error) {
	var o Order
	err := q.QueryRow(ctx, `
		SELECT order_id, customer_name, phone, address, book_id, quantity, status, order_date
		FROM orders
		WHERE order_id = $1`, id,
	).Scan(&o.OrderID, &o.CustomerName, &o.Phone, &o.Address, &o.BookID, &o.Quantity, &o.Status, &o.OrderDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// DecrementStock reserves stock for an order. It reports false when the
// remaining stock is insufficient; the caller decides the error message.
func DecrementStock(ctx context.Context, q Querier, bookID, quantity int) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE books SET stock = stock - $2
		WHERE book_id = $1 AND stock >= $2`, bookID, quantity)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
