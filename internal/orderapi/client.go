package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookshop-assistant/internal/card"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every outbound call. Indefinite suspension on a
// stuck endpoint is an availability risk, so a timeout always surfaces as
// a transport failure.
const DefaultTimeout = 30 * time.Second

// Client talks to the assistant service: the chat endpoint and the order
// confirmation endpoint. An empty base URL means same-origin relative
// paths, which only makes sense behind a preconfigured http.Client.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ChatReply is the assistant's answer plus timing metadata.
type ChatReply struct {
	Response       string  `json:"response"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
}

type chatRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// Chat sends one user message. Non-2xx or a malformed body is an error.
func (c *Client) Chat(ctx context.Context, text, userID string) (*ChatReply, error) {
	body, err := c.post(ctx, "/api/v1/chat", chatRequest{Text: text, UserID: userID})
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("malformed chat response: %w", err)
	}
	if reply.Response == "" {
		return nil, fmt.Errorf("malformed chat response: missing response text")
	}
	return &reply, nil
}

// ConfirmOrder implements card.Confirmer against the confirmation
// endpoint. An application-level rejection (2xx with success=false) is
// reported the same way as a transport failure.
func (c *Client) ConfirmOrder(ctx context.Context, req card.ConfirmRequest) (*card.ConfirmResult, error) {
	body, err := c.post(ctx, "/api/orders/confirm", req)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.Get("success").Bool() {
		return nil, fmt.Errorf("%s", errorMessage(body))
	}

	return &card.ConfirmResult{
		OrderID:     int(parsed.Get("order_id").Int()),
		Message:     parsed.Get("message").String(),
		BookTitle:   parsed.Get("order_details.book.title").String(),
		Quantity:    int(parsed.Get("order_details.quantity").Int()),
		TotalAmount: parsed.Get("order_details.total_amount").Float(),
		Delivery:    parsed.Get("order_details.delivery_estimate").String(),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s", resp.Status, errorMessage(body))
	}
	return body, nil
}

// errorMessage digs a human-readable message out of an error body. The
// service may nest it under a detail wrapper, or put it at the top level.
func errorMessage(body []byte) string {
	parsed := gjson.ParseBytes(body)
	for _, path := range []string{"detail.message", "message", "detail", "error"} {
		if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return "yêu cầu thất bại"
}
