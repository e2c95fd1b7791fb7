package routes

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bookshop-assistant/internal/card"
	"bookshop-assistant/internal/store"
	"bookshop-assistant/internal/telemetry"
)

const deliveryEstimate = "2-3 ngày làm việc"

var phonePattern = regexp.MustCompile(`^(0|84)\d{9,10}$`)

type orderError struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

type bookDetails struct {
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
	Price  float64 `json:"price"`
}

type orderDetails struct {
	OrderID          int         `json:"order_id"`
	Book             bookDetails `json:"book"`
	Quantity         int         `json:"quantity"`
	TotalAmount      float64     `json:"total_amount"`
	Status           string      `json:"status"`
	OrderDate        string      `json:"order_date"`
	DeliveryEstimate string      `json:"delivery_estimate"`
}

type confirmResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	OrderID      int          `json:"order_id"`
	OrderDetails orderDetails `json:"order_details"`
}

// ConfirmOrderHandler validates the confirmed record, reserves stock and
// creates the order. Rejections come back as 400 with the failure nested
// under "detail" so the message survives the framework error shape the
// widget already understands.
func ConfirmOrderHandler(db store.DB, metrics *telemetry.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req card.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeOrderError(w, http.StatusBadRequest, "Dữ liệu đơn hàng không hợp lệ", "invalid_request")
			return
		}

		reject := func(message, errType string) {
			if metrics != nil {
				metrics.ConfirmOutcomes.Add(ctx, 1, telemetry.WithOutcome("rejected"))
			}
			writeOrderError(w, http.StatusBadRequest, message, errType)
		}

		if strings.TrimSpace(req.CustomerName) == "" {
			reject("Vui lòng cung cấp tên khách hàng", "validation_error")
			return
		}
		phone := strings.NewReplacer(" ", "", ".", "", "-", "").Replace(req.Phone)
		if !phonePattern.MatchString(phone) {
			reject("Số điện thoại không hợp lệ", "validation_error")
			return
		}
		if strings.TrimSpace(req.Address) == "" {
			reject("Vui lòng cung cấp địa chỉ giao hàng", "validation_error")
			return
		}
		if req.Quantity < 1 {
			reject("Số lượng không hợp lệ", "validation_error")
			return
		}

		book, err := store.GetBookByID(ctx, db, req.BookID)
		if err != nil {
			writeOrderError(w, http.StatusInternalServerError, "Lỗi hệ thống, vui lòng thử lại sau", "internal_error")
			return
		}
		if book == nil {
			reject("Không tìm thấy sách", "book_not_found")
			return
		}

		order, ok, err := store.PlaceOrder(ctx, db, store.CreateOrderParams{
			CustomerName: strings.TrimSpace(req.CustomerName),
			Phone:        phone,
			Address:      strings.TrimSpace(req.Address),
			BookID:       book.BookID,
			Quantity:     req.Quantity,
		})
		if err != nil {
			writeOrderError(w, http.StatusInternalServerError, "Lỗi hệ thống, vui lòng thử lại sau", "internal_error")
			return
		}
		if !ok {
			reject("Không đủ hàng tồn kho", "insufficient_stock")
			return
		}

		if metrics != nil {
			metrics.ConfirmOutcomes.Add(ctx, 1, telemetry.WithOutcome("accepted"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(confirmResponse{
			Success: true,
			Message: "Đặt hàng thành công!",
			OrderID: order.OrderID,
			OrderDetails: orderDetails{
				OrderID: order.OrderID,
				Book: bookDetails{
					Title:  book.Title,
					Author: book.Author,
					Price:  book.Price,
				},
				Quantity:         order.Quantity,
				TotalAmount:      book.Price * float64(order.Quantity),
				Status:           order.Status,
				OrderDate:        order.OrderDate.Format("2006-01-02 15:04:05"),
				DeliveryEstimate: deliveryEstimate,
			},
		})
	}
}

// OrderStatusHandler looks up one order by id.
func OrderStatusHandler(db store.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeOrderError(w, http.StatusBadRequest, "Mã đơn hàng không hợp lệ", "invalid_request")
			return
		}

		order, err := store.GetOrderByID(r.Context(), db, id)
		if err != nil {
			writeOrderError(w, http.StatusInternalServerError, "Lỗi hệ thống, vui lòng thử lại sau", "internal_error")
			return
		}
		if order == nil {
			writeOrderError(w, http.StatusNotFound, "Không tìm thấy đơn hàng", "order_not_found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(order)
	}
}

func writeOrderError(w http.ResponseWriter, code int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]orderError{
		"detail": {Success: false, Message: message, ErrorType: errType},
	})
}
