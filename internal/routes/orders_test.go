package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"bookshop-assistant/internal/card"
	"bookshop-assistant/internal/confirm"
	"bookshop-assistant/internal/orderapi"
	"bookshop-assistant/internal/store"
)

type fakeRow struct {
	err  error
	vals []any
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := d.(type) {
		case *int:
			*v = r.vals[i].(int)
		case *string:
			*v = r.vals[i].(string)
		case *float64:
			*v = r.vals[i].(float64)
		case *time.Time:
			*v = r.vals[i].(time.Time)
		}
	}
	return nil
}

// fakeDB backs the order handlers with one book and an adjustable stock
// level. It dispatches on the statement text the way the store queries
// are written; insertErr makes order creation fail mid-transaction.
type fakeDB struct {
	book      *store.Book
	order     *store.Order
	created   store.CreateOrderParams
	insertErr error
}

// fakeTx gives the fake store transactional semantics: a rollback
// restores the stock level captured at Begin.
type fakeTx struct {
	db        *fakeDB
	stock     int
	committed bool
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{db: f}
	if f.book != nil {
		tx.stock = f.book.Stock
	}
	return tx, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed && t.db.book != nil {
		t.db.book.Stock = t.stock
	}
	return nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Conn() *pgx.Conn                       { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FROM books"):
		if f.book == nil || args[0].(int) != f.book.BookID {
			return fakeRow{err: pgx.ErrNoRows}
		}
		b := f.book
		return fakeRow{vals: []any{b.BookID, b.Title, b.Author, b.Category, b.Price, b.Stock}}
	case strings.Contains(sql, "INSERT INTO orders"):
		if f.insertErr != nil {
			return fakeRow{err: f.insertErr}
		}
		f.created = store.CreateOrderParams{
			CustomerName: args[0].(string),
			Phone:        args[1].(string),
			Address:      args[2].(string),
			BookID:       args[3].(int),
			Quantity:     args[4].(int),
		}
		return fakeRow{vals: []any{
			17, f.created.CustomerName, f.created.Phone, f.created.Address,
			f.created.BookID, f.created.Quantity, store.StatusPending, time.Now(),
		}}
	case strings.Contains(sql, "FROM orders"):
		if f.order == nil || args[0].(int) != f.order.OrderID {
			return fakeRow{err: pgx.ErrNoRows}
		}
		o := f.order
		return fakeRow{vals: []any{
			o.OrderID, o.CustomerName, o.Phone, o.Address,
			o.BookID, o.Quantity, o.Status, o.OrderDate,
		}}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "UPDATE books") && f.book != nil && f.book.Stock >= args[1].(int) {
		f.book.Stock -= args[1].(int)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

func validConfirmRequest() card.ConfirmRequest {
	return card.ConfirmRequest{
		BookID:       4,
		BookTitle:    "Nhà Giả Kim",
		Quantity:     2,
		CustomerName: "Nguyễn Văn An",
		Phone:        "0901234567",
		Address:      "123 Lê Lợi, Quận 1, TP.HCM",
	}
}

func postConfirm(t *testing.T, h http.HandlerFunc, req card.ConfirmRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/orders/confirm", bytes.NewReader(body)))
	return rec
}

func TestConfirmOrderSuccess(t *testing.T) {
	db := &fakeDB{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Price: 85000, Stock: 10}}
	rec := postConfirm(t, ConfirmOrderHandler(db, nil), validConfirmRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, "Đặt hàng thành công!", body.Get("message").String())
	assert.Equal(t, int64(17), body.Get("order_id").Int())
	assert.Equal(t, "Nhà Giả Kim", body.Get("order_details.book.title").String())
	assert.Equal(t, float64(170000), body.Get("order_details.total_amount").Float())
	assert.Equal(t, store.StatusPending, body.Get("order_details.status").String())
	assert.Equal(t, deliveryEstimate, body.Get("order_details.delivery_estimate").String())
	assert.Equal(t, 2, db.created.Quantity)
}

func TestConfirmOrderNormalizesPhone(t *testing.T) {
	db := &fakeDB{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Price: 85000, Stock: 10}}
	req := validConfirmRequest()
	req.Phone = "090 123.45-67"

	rec := postConfirm(t, ConfirmOrderHandler(db, nil), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0901234567", db.created.Phone)
}

func TestConfirmOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*card.ConfirmRequest)
		message string
	}{
		{"missing name", func(r *card.ConfirmRequest) { r.CustomerName = "  " }, "Vui lòng cung cấp tên khách hàng"},
		{"bad phone", func(r *card.ConfirmRequest) { r.Phone = "12ab" }, "Số điện thoại không hợp lệ"},
		{"missing address", func(r *card.ConfirmRequest) { r.Address = "" }, "Vui lòng cung cấp địa chỉ giao hàng"},
		{"zero quantity", func(r *card.ConfirmRequest) { r.Quantity = 0 }, "Số lượng không hợp lệ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validConfirmRequest()
			tt.mutate(&req)
			rec := postConfirm(t, ConfirmOrderHandler(&fakeDB{}, nil), req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := gjson.ParseBytes(rec.Body.Bytes())
			assert.False(t, body.Get("detail.success").Bool())
			assert.Equal(t, tt.message, body.Get("detail.message").String())
			assert.Equal(t, "validation_error", body.Get("detail.error_type").String())
		})
	}
}

func TestConfirmOrderBookNotFound(t *testing.T) {
	rec := postConfirm(t, ConfirmOrderHandler(&fakeDB{}, nil), validConfirmRequest())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, "Không tìm thấy sách", body.Get("detail.message").String())
	assert.Equal(t, "book_not_found", body.Get("detail.error_type").String())
}

// A failed order insert must roll the stock reservation back: no order
// row, no decrement.
func TestConfirmOrderInsertFailureRestoresStock(t *testing.T) {
	db := &fakeDB{
		book:      &store.Book{BookID: 4, Title: "Nhà Giả Kim", Price: 85000, Stock: 10},
		insertErr: errors.New("connection reset"),
	}
	rec := postConfirm(t, ConfirmOrderHandler(db, nil), validConfirmRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 10, db.book.Stock)
}

func TestConfirmOrderInsufficientStock(t *testing.T) {
	db := &fakeDB{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Price: 85000, Stock: 1}}
	rec := postConfirm(t, ConfirmOrderHandler(db, nil), validConfirmRequest())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, "Không đủ hàng tồn kho", body.Get("detail.message").String())
	assert.Equal(t, "insufficient_stock", body.Get("detail.error_type").String())
}

func TestOrderStatus(t *testing.T) {
	db := &fakeDB{order: &store.Order{
		OrderID:      17,
		CustomerName: "Nguyễn Văn An",
		Phone:        "0901234567",
		Address:      "123 Lê Lợi",
		BookID:       4,
		Quantity:     2,
		Status:       store.StatusPending,
		OrderDate:    time.Now(),
	}}
	r := chi.NewRouter()
	r.Get("/api/orders/status/{id}", OrderStatusHandler(db))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/status/17", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, int64(17), body.Get("order_id").Int())
	assert.Equal(t, store.StatusPending, body.Get("status").String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/status/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/status/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// The typed client and the handler speak the same wire format: a card
// confirmed through a real HTTP round trip ends up confirmed, and a
// stock rejection surfaces the server's message on the card.
func TestConfirmRoundTripThroughClient(t *testing.T) {
	db := &fakeDB{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Price: 85000, Stock: 2}}
	r := chi.NewRouter()
	r.Post("/api/orders/confirm", ConfirmOrderHandler(db, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := orderapi.NewClient(srv.URL, 5*time.Second)
	c := card.New(confirm.Record{
		BookID:       "4",
		BookTitle:    "Nhà Giả Kim",
		Quantity:     "2",
		CustomerName: "Nguyễn Văn An",
		Phone:        "0901234567",
		Address:      "123 Lê Lợi, Quận 1",
	})

	require.NoError(t, c.Confirm(context.Background(), client))
	require.Equal(t, card.StateConfirmed, c.State())
	require.NotNil(t, c.Result())
	assert.Equal(t, 17, c.Result().OrderID)
	assert.Equal(t, float64(170000), c.Result().TotalAmount)

	// Stock is now exhausted; a second card fails and keeps the message.
	c2 := card.New(c.Record())
	err := c2.Confirm(context.Background(), client)
	require.Error(t, err)
	assert.Equal(t, card.StateFailed, c2.State())
	assert.Contains(t, c2.LastError(), "Không đủ hàng tồn kho")
}
