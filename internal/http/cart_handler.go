package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartService interface {
	GetCart(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID primitive.ObjectID, in service.AddItemInput) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, customerID, productID primitive.ObjectID, quantity int, variant domain.Variant) (*domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID primitive.ObjectID, variant domain.Variant) (*domain.Cart, error)
	ClearCart(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddToCartRequestDTO struct {
	ProductID string         `json:"product_id" validate:"required,mongodb"`
	Quantity  int            `json:"quantity" validate:"required,min=1,max=99"`
	Variant   domain.Variant `json:"selected_variant"`
}

type UpdateCartItemRequestDTO struct {
	ProductID string         `json:"product_id" validate:"required,mongodb"`
	Quantity  int            `json:"quantity" validate:"min=0,max=99"`
	Variant   domain.Variant `json:"selected_variant"`
}

type RemoveCartItemRequestDTO struct {
	ProductID string         `json:"product_id" validate:"required,mongodb"`
	Variant   domain.Variant `json:"selected_variant"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, actor.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "cart retrieved", cart)
}

// POST /api/v1/cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req AddToCartRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.carts.AddItem(ctx, actor.ID, service.AddItemInput{
		ProductID: mustObjectID(req.ProductID),
		Quantity:  req.Quantity,
		Variant:   req.Variant,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "item added to cart", cart)
}

// PUT /api/v1/cart/update
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req UpdateCartItemRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, actor.ID, mustObjectID(req.ProductID), req.Quantity, req.Variant)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "cart updated", cart)
}

// DELETE /api/v1/cart/remove
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req RemoveCartItemRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, actor.ID, mustObjectID(req.ProductID), req.Variant)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "item removed from cart", cart)
}

// DELETE /api/v1/cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	cart, err := h.carts.ClearCart(ctx, actor.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "cart cleared", cart)
}
