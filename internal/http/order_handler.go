package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID primitive.ObjectID, in service.PlaceOrderInput) (*domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	ListForCustomer(ctx context.Context, customerID primitive.ObjectID, page domain.Page) ([]*domain.Order, int64, error)
	ListForSeller(ctx context.Context, sellerID primitive.ObjectID, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, orderID string, next domain.OrderStatus, note string) (*domain.Order, error)
	Cancel(ctx context.Context, customerID primitive.ObjectID, orderID, reason string) (*domain.Order, error)
	MarkPaid(ctx context.Context, customerID primitive.ObjectID, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type PlaceOrderRequestDTO struct {
	ShippingAddress domain.Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *domain.Address `json:"billing_address" validate:"omitempty"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=card cash_on_delivery wallet bank_transfer"`
	Notes           string          `json:"notes" validate:"max=500"`
}

type CancelOrderRequestDTO struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(ctx, actor.ID, service.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondCreated(w, "order placed", order)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	page := pageFromQuery(r)
	orders, total, err := h.orders.ListForCustomer(ctx, actor.ID, page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "orders retrieved", newListResponse(orders, total, page))
}

// GET /api/v1/orders/{orderId}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	order, err := h.orders.Get(ctx, actor, chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "order retrieved", order)
}

// POST /api/v1/orders/{orderId}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req CancelOrderRequestDTO
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.Cancel(ctx, actor.ID, chi.URLParam(r, "orderId"), req.Reason)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "order cancelled", order)
}

// POST /api/v1/orders/{orderId}/pay
func (h *OrdersHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	order, err := h.orders.MarkPaid(ctx, actor.ID, chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "payment recorded", order)
}

// GET /api/v1/seller/orders?status=&from=&to=&search=&page=&limit=
func (h *OrdersHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	filter := domain.OrderFilter{
		Status: domain.OrderStatus(q.Get("status")),
		From:   from,
		To:     to,
		Search: q.Get("search"),
	}
	page := pageFromQuery(r)

	orders, total, err := h.orders.ListForSeller(ctx, actor.ID, filter, page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "orders retrieved", newListResponse(orders, total, page))
}

// PUT /api/v1/seller/orders/{orderId}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req UpdateOrderStatusRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(ctx, actor, chi.URLParam(r, "orderId"), domain.OrderStatus(req.Status), req.Note)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "order status updated", order)
}
