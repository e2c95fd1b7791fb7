package card

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bookshop-assistant/internal/confirm"
)

// State of a confirmation card. Confirmed and cancelled are terminal;
// failed offers retry with the original record.
type State string

const (
	StateDraft      State = "draft"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// ConfirmRequest is the coerced form of a record sent to the confirmation
// endpoint: integer book id and quantity, trimmed strings for the rest.
type ConfirmRequest struct {
	BookID       int    `json:"book_id"`
	BookTitle    string `json:"book_title"`
	Author       string `json:"author,omitempty"`
	Category     string `json:"category,omitempty"`
	Quantity     int    `json:"quantity"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// ConfirmResult carries the accepted order's details for rendering.
type ConfirmResult struct {
	OrderID     int
	Message     string
	BookTitle   string
	Quantity    int
	TotalAmount float64
	Delivery    string
}

// Confirmer issues one confirmation attempt against the remote service.
type Confirmer interface {
	ConfirmOrder(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
}

// ValidationError reports the first required field missing from a draft
// record. No request is sent when validation fails.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNotAllowed is returned for an action invalid in the card's current
// state, including a confirm while one is already in flight.
type ErrNotAllowed struct {
	Action string
	State  State
}

func (e *ErrNotAllowed) Error() string {
	return fmt.Sprintf("action %q not allowed in state %q", e.Action, e.State)
}

// Card binds one immutable record to a confirmation lifecycle. The record
// is held in memory and reused verbatim on retry; actions are methods, not
// data round-tripped through rendered markup.
type Card struct {
	mu      sync.Mutex
	id      string
	record  confirm.Record
	state   State
	lastErr string
	result  *ConfirmResult
}

// New creates a card in the draft state. The identifier derives from the
// creation timestamp; collisions within a session are accepted as
// negligible.
func New(rec confirm.Record) *Card {
	return &Card{
		id:     "card-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		record: rec,
		state:  StateDraft,
	}
}

func (c *Card) ID() string { return c.id }

func (c *Card) Record() confirm.Record { return c.record }

func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the message retained when the card entered failed.
func (c *Card) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Result returns the order details once the card is confirmed.
func (c *Card) Result() *ConfirmResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// BuildRequest coerces the record into a wire request. Unparseable bookId
// becomes 0, unparseable quantity becomes 1; display strings stay
// untouched so the UI never renders a coercion artifact.
func BuildRequest(rec confirm.Record) ConfirmRequest {
	bookID, err := strconv.Atoi(strings.TrimSpace(rec.BookID))
	if err != nil {
		bookID = 0
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec.Quantity))
	if err != nil || qty <= 0 {
		qty = 1
	}
	return ConfirmRequest{
		BookID:       bookID,
		BookTitle:    strings.TrimSpace(rec.BookTitle),
		Author:       strings.TrimSpace(rec.Author),
		Category:     strings.TrimSpace(rec.Category),
		Quantity:     qty,
		CustomerName: strings.TrimSpace(rec.CustomerName),
		Phone:        strings.TrimSpace(rec.Phone),
		Address:      strings.TrimSpace(rec.Address),
	}
}

func validate(req ConfirmRequest) *ValidationError {
	if req.BookID == 0 {
		return &ValidationError{Field: "book_id", Message: "Không xác định được sách cần đặt. Vui lòng chọn lại sách."}
	}
	if req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Message: "Vui lòng cho biết tên của bạn."}
	}
	if req.Phone == "" {
		return &ValidationError{Field: "phone", Message: "Vui lòng cung cấp số điện thoại."}
	}
	if req.Address == "" {
		return &ValidationError{Field: "address", Message: "Vui lòng cung cấp địa chỉ giao hàng."}
	}
	return nil
}

// Confirm drives draft→confirming and failed→confirming (retry), issues
// exactly one confirmation request, and settles the card on the outcome.
// Validation failure aborts back to the previous state with no network
// call. A card already confirming rejects the action, so at most one
// attempt per card is in flight.
func (c *Card) Confirm(ctx context.Context, svc Confirmer) error {
	c.mu.Lock()
	prev := c.state
	if prev != StateDraft && prev != StateFailed {
		c.mu.Unlock()
		return &ErrNotAllowed{Action: "confirm", State: prev}
	}

	req := BuildRequest(c.record)
	if verr := validate(req); verr != nil {
		c.mu.Unlock()
		return verr
	}

	c.state = StateConfirming
	c.mu.Unlock()

	result, err := svc.ConfirmOrder(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		c.lastErr = err.Error()
		return err
	}
	c.state = StateConfirmed
	c.result = result
	c.lastErr = ""
	return nil
}

// Cancel moves a draft or failed card to cancelled. No network call is
// ever made for a cancellation.
func (c *Card) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDraft && c.state != StateFailed {
		return &ErrNotAllowed{Action: "cancel", State: c.state}
	}
	c.state = StateCancelled
	return nil
}
