package agent

import (
	"context"
	"strings"
	"testing"

	"bookshop-assistant/internal/confirm"
	"bookshop-assistant/internal/llm"
	"bookshop-assistant/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// scriptedLLM answers each stage from a fixed script.
type scriptedLLM struct {
	byStage map[string]string
	calls   []string
}

func (s *scriptedLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.calls = append(s.calls, req.Stage)
	return &llm.GenerateResponse{Content: s.byStage[req.Stage], Model: req.Model}, nil
}

type fakeCatalog struct {
	book *store.Book
}

func (f *fakeCatalog) FindByTitle(_ context.Context, title string) (*store.Book, error) {
	if f.book != nil && strings.Contains(strings.ToLower(f.book.Title), strings.ToLower(title)) {
		return f.book, nil
	}
	return nil, nil
}

func newTestAgent(script map[string]string, catalog BookFinder) *Agent {
	tp := sdktrace.NewTracerProvider()
	return &Agent{
		LLM:          &scriptedLLM{byStage: script},
		Books:        catalog,
		Tracer:       tp.Tracer("test"),
		ModelCapable: "gpt-4.1",
		ModelFast:    "gpt-4.1-mini",
	}
}

func TestRespondSearchIntent(t *testing.T) {
	a := newTestAgent(map[string]string{
		"intent": "search_book",
		"assist": "Chúng tôi có nhiều sách về Python.",
	}, nil)

	reply, err := a.Respond(context.Background(), "u1", "Cho tôi xem sách về Python")
	require.NoError(t, err)
	assert.Equal(t, "Chúng tôi có nhiều sách về Python.", reply)
}

func TestRespondOrderAsksForMissingField(t *testing.T) {
	a := newTestAgent(map[string]string{
		"intent":  "order_book",
		"extract": `{"book_title": "Nhà Giả Kim", "quantity": "2", "customer_name": "None", "phone": "None", "address": "None"}`,
	}, &fakeCatalog{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Price: 85000, Stock: 10}})

	reply, err := a.Respond(context.Background(), "u1", "Tôi muốn mua 2 cuốn Nhà Giả Kim")
	require.NoError(t, err)
	assert.Equal(t, "Bạn có thể cho tôi biết tên của bạn được không?", reply)
}

func TestRespondOrderEmitsConfirmBlock(t *testing.T) {
	a := newTestAgent(map[string]string{
		"intent":  "order_book",
		"extract": `{"book_title": "Nhà Giả Kim", "quantity": "2", "customer_name": "An", "phone": "0900000000", "address": "HN"}`,
	}, &fakeCatalog{book: &store.Book{BookID: 4, Title: "Nhà Giả Kim", Author: "Paulo Coelho", Price: 85000, Stock: 10}})

	reply, err := a.Respond(context.Background(), "u1", "Tên An, sđt 0900000000, địa chỉ HN, đặt 2 cuốn Nhà Giả Kim")
	require.NoError(t, err)

	payload, _, found := confirm.ExtractBlock(reply)
	require.True(t, found, "reply should embed a confirmation block")

	rec := confirm.ParseRecord(payload)
	assert.Equal(t, "4", rec.BookID)
	assert.Equal(t, "Nhà Giả Kim", rec.BookTitle)
	assert.Equal(t, "2", rec.Quantity)
	assert.Equal(t, "An", rec.CustomerName)
	assert.Equal(t, "0900000000", rec.Phone)
	assert.Equal(t, "HN", rec.Address)
}

func TestRespondOrderBookNotFound(t *testing.T) {
	a := newTestAgent(map[string]string{
		"intent":  "order_book",
		"extract": `{"book_title": "Sách Không Tồn Tại", "quantity": "1", "customer_name": "An", "phone": "0900000000", "address": "HN"}`,
	}, &fakeCatalog{})

	reply, err := a.Respond(context.Background(), "u1", "Đặt Sách Không Tồn Tại")
	require.NoError(t, err)
	assert.Equal(t, bookNotFoundReply, reply)
}

func TestOrderStateAccumulatesAcrossTurns(t *testing.T) {
	catalog := &fakeCatalog{book: &store.Book{BookID: 7, Title: "Lão Hạc", Price: 45000, Stock: 3}}
	script := map[string]string{
		"intent":  "order_book",
		"extract": `{"book_title": "Lão Hạc", "quantity": "3", "customer_name": "None", "phone": "None", "address": "None"}`,
	}
	a := newTestAgent(script, catalog)

	reply, err := a.Respond(context.Background(), "u1", "3 cuốn Lão Hạc")
	require.NoError(t, err)
	assert.Equal(t, "Bạn có thể cho tôi biết tên của bạn được không?", reply)

	// Later turn: the extraction now carries the personal fields but the
	// model dropped the quantity back to its default.
	script["extract"] = `{"book_title": "Lão Hạc", "quantity": "1", "customer_name": "Bình", "phone": "0911222333", "address": "Huế"}`
	reply, err = a.Respond(context.Background(), "u1", "Tôi là Bình, 0911222333, Huế")
	require.NoError(t, err)

	payload, _, found := confirm.ExtractBlock(reply)
	require.True(t, found)
	rec := confirm.ParseRecord(payload)
	assert.Equal(t, "3", rec.Quantity, "stated quantity survives a defaulted re-extraction")
	assert.Equal(t, "7", rec.BookID)
	assert.Equal(t, "Bình", rec.CustomerName)
}

func TestResetDropsConversation(t *testing.T) {
	a := newTestAgent(map[string]string{
		"intent": "unknown",
		"assist": "Chào bạn!",
	}, nil)

	_, err := a.Respond(context.Background(), "u1", "xin chào")
	require.NoError(t, err)
	require.NotEmpty(t, a.conversation("u1").history)

	a.Reset("u1")
	assert.Empty(t, a.conversation("u1").history)
}

func TestParseIntent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"order_book", "order_book"},
		{`Ý định: "order_book"`, "order_book"},
		{"search_book", "search_book"},
		{"tôi không chắc", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseIntent(tc.in), "input %q", tc.in)
	}
}
