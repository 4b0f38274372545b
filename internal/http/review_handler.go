package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewService interface {
	Create(ctx context.Context, customerID primitive.ObjectID, in service.CreateReviewInput) (*domain.Review, error)
	ListForProduct(ctx context.Context, productID primitive.ObjectID, page domain.Page) ([]*domain.Review, int64, error)
	Moderate(ctx context.Context, reviewID primitive.ObjectID, status domain.ReviewStatus) (*domain.Review, error)
	MarkHelpful(ctx context.Context, voterID, reviewID primitive.ObjectID) (*domain.Review, error)
	Respond(ctx context.Context, sellerID, reviewID primitive.ObjectID, comment string) (*domain.Review, error)
	Delete(ctx context.Context, actor domain.Actor, reviewID primitive.ObjectID) error
}

type ReviewHandler struct {
	reviews ReviewService
	timeout time.Duration
}

func NewReviewHandler(reviews ReviewService, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		timeout: timeout,
	}
}

type CreateReviewRequestDTO struct {
	ProductID string   `json:"product_id" validate:"required,mongodb"`
	OrderID   string   `json:"order_id" validate:"required,startswith=ORD"`
	Rating    float64  `json:"rating" validate:"required,min=1,max=5"`
	Title     string   `json:"title" validate:"required,max=100"`
	Comment   string   `json:"comment" validate:"required,max=2000"`
	Images    []string `json:"images" validate:"max=5,dive,url"`
}

type SellerResponseRequestDTO struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

type ModerateReviewRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected flagged"`
}

// POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}

	var req CreateReviewRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.reviews.Create(ctx, actor.ID, service.CreateReviewInput{
		ProductID: mustObjectID(req.ProductID),
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Images:    req.Images,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondCreated(w, "review created", review)
}

// GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) ListForProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathObjectID(w, r, "productId")
	if !ok {
		return
	}

	page := pageFromQuery(r)
	reviews, total, err := h.reviews.ListForProduct(ctx, productID, page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "reviews retrieved", newListResponse(reviews, total, page))
}

// POST /api/v1/reviews/{reviewId}/helpful
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}
	reviewID, ok := pathObjectID(w, r, "reviewId")
	if !ok {
		return
	}

	review, err := h.reviews.MarkHelpful(ctx, actor.ID, reviewID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "review marked helpful", review)
}

// PUT /api/v1/reviews/{reviewId}/response
func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}
	reviewID, ok := pathObjectID(w, r, "reviewId")
	if !ok {
		return
	}

	var req SellerResponseRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.reviews.Respond(ctx, actor.ID, reviewID, req.Comment)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "response saved", review)
}

// PUT /api/v1/reviews/{reviewId}/moderate
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviewID, ok := pathObjectID(w, r, "reviewId")
	if !ok {
		return
	}

	var req ModerateReviewRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.reviews.Moderate(ctx, reviewID, domain.ReviewStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "review moderated", review)
}

// DELETE /api/v1/reviews/{reviewId}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user authentication")
		return
	}
	reviewID, ok := pathObjectID(w, r, "reviewId")
	if !ok {
		return
	}

	if err := h.reviews.Delete(ctx, actor, reviewID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondOK(w, "review deleted", nil)
}
