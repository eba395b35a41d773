package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/application"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/domain"
)

type Handler struct {
	log       *slog.Logger
	processor *application.Processor
	tracer    trace.Tracer
}

func NewHandler(log *slog.Logger, processor *application.Processor) *Handler {
	return &Handler{
		log:       log,
		processor: processor,
		tracer:    otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/books_stock", h.listStock)
	r.Get("/books_stock/{bookID}", h.getStock)
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var items []domain.LineItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid body"))
		return
	}

	o, err := h.processor.SubmitOrder(ctx, items)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": o.ID})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.processor.ListOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.processor.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.processor.ListStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if stock == nil {
		stock = []invdomain.BookStock{}
	}
	writeJSON(w, http.StatusOK, stock)
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	s, err := h.processor.Stock(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		// A stock read on a missing book is a lookup miss, not a bad order.
		var unknown invdomain.UnknownBookError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// statusFor maps the domain error taxonomy onto HTTP statuses. Every order
// rejection is a 400; only a failed durable write is a server error.
func statusFor(err error) int {
	var (
		unknown      invdomain.UnknownBookError
		insufficient invdomain.InsufficientStockError
		invalidQty   domain.InvalidQuantityError
		persistence  domain.PersistenceError
	)
	switch {
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.As(err, &unknown), errors.As(err, &insufficient),
		errors.As(err, &invalidQty), errors.Is(err, domain.ErrEmptyOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
