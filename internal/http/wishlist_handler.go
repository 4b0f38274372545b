package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistService interface {
	GetWishlist(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error)
	AddItem(ctx context.Context, customerID primitive.ObjectID, in service.WishlistAddInput) (*domain.Wishlist, bool, error)
	RemoveItem(ctx context.Context, customerID, productID primitive.ObjectID) (*domain.Wishlist, error)
	Toggle(ctx context.Context, customerID primitive.ObjectID, in service.WishlistAddInput) (service.ToggleResult, error)
	Check(ctx context.Context, customerID, productID primitive.ObjectID) (bool, error)
	Clear(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error)
	MoveToCart(ctx context.Context, customerID primitive.ObjectID, in service.AddItemInput) (*domain.Cart, *domain.Wishlist, error)
}

type WishlistHandler struct {
	wishlists WishlistService
	timeout   time.Duration
}

func NewWishlistHandler(wishlists WishlistService, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{
		wishlists: wishlists,
		timeout:   timeout,
	}
}

type WishlistItemRequestDTO struct {
	ProductID       string `json:"product_id" validate:"required,mongodb"`
	NotifyOnSale    bool   `json:"notify_on_sale"`
	NotifyOnRestock bool   `json:"notify_on_restock"`
}

type WishlistRemoveRequestDTO struct {
	ProductID string `json:"product_id" validate:"required,mongodb"`
}

type MoveToCartRequestDTO struct {
	ProductID string         `json:"product_id" validate:"required,mongodb"`
	Quantity  int            `json:"quantity" validate:"omitempty,min=1,max=99"`
	Variant   domain.Variant `json:"selected_variant"`
}

type MoveToCartResponseDTO struct {
	Cart     *domain.Cart     `json:"cart"`
	Wishlist *domain.Wishlist `json:"wishlist"`
}

func (req WishlistItemRequestDTO) input() service.WishlistAddInput {
	return service.WishlistAddInput{
		ProductID:       mustObjectID(req.ProductID),
		NotifyOnSale:    req.NotifyOnSale,
		NotifyOnRestock: req.NotifyOnRestock,
	}
}

// GET /api/v1/wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	wishlist, err := h.wishlists.GetWishlist(ctx, actor.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "wishlist retrieved", wishlist)
}

// POST /api/v1/wishlist/add
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req WishlistItemRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wishlist, added, err := h.wishlists.AddItem(ctx, actor.ID, req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !added {
		respondOK(w, "wishlist preferences updated", wishlist)
		return
	}
	respondCreated(w, "item added to wishlist", wishlist)
}

// DELETE /api/v1/wishlist/remove
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req WishlistRemoveRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wishlist, err := h.wishlists.RemoveItem(ctx, actor.ID, mustObjectID(req.ProductID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "item removed from wishlist", wishlist)
}

// POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req WishlistItemRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.wishlists.Toggle(ctx, actor.ID, req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "item "+string(res.Action), res)
}

// GET /api/v1/wishlist/check/{productId}
func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}
	productID, ok := pathObjectID(w, r, "productId")
	if !ok {
		return
	}

	in, err := h.wishlists.Check(ctx, actor.ID, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "wishlist checked", map[string]bool{"in_wishlist": in})
}

// DELETE /api/v1/wishlist/clear
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	wishlist, err := h.wishlists.Clear(ctx, actor.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "wishlist cleared", wishlist)
}

// POST /api/v1/wishlist/move-to-cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req MoveToCartRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cart, wishlist, err := h.wishlists.MoveToCart(ctx, actor.ID, service.AddItemInput{
		ProductID: mustObjectID(req.ProductID),
		Quantity:  req.Quantity,
		Variant:   req.Variant,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "item moved to cart", MoveToCartResponseDTO{Cart: cart, Wishlist: wishlist})
}
