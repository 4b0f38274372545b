package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateReviewInput struct {
	ProductID primitive.ObjectID
	OrderID   string
	Rating    float64
	Title     string
	Comment   string
	Images    []string
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	tx       repository.Transactor
	now      func() time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	tx repository.Transactor,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		products: products,
		tx:       tx,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a review for a delivered purchase. Reviews go live
// immediately and can be taken down through moderation.
func (s *ReviewService) Create(ctx context.Context, customerID primitive.ObjectID, in CreateReviewInput) (*domain.Review, error) {
	if err := domain.ValidateRating(in.Rating); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrReviewNotAllowed
		}
		return nil, err
	}
	if order.CustomerID != customerID || order.Status != domain.OrderStatusDelivered || !order.HasProduct(in.ProductID) {
		return nil, ErrReviewNotAllowed
	}

	if _, err := s.products.Get(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := s.now()
	images := in.Images
	if images == nil {
		images = []string{}
	}
	review := &domain.Review{
		ProductID:     in.ProductID,
		CustomerID:    customerID,
		OrderID:       in.OrderID,
		Rating:        in.Rating,
		Title:         in.Title,
		Comment:       in.Comment,
		Images:        images,
		HelpfulVoters: []primitive.ObjectID{},
		Status:        domain.ReviewApproved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}
		return s.refreshRating(ctx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListForProduct(ctx context.Context, productID primitive.ObjectID, page domain.Page) ([]*domain.Review, int64, error) {
	return s.reviews.ListByProduct(ctx, productID, page)
}

// Moderate sets the review status. The product rating is recomputed when the
// review enters or leaves the approved set.
func (s *ReviewService) Moderate(ctx context.Context, reviewID primitive.ObjectID, status domain.ReviewStatus) (*domain.Review, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	review, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == status {
		return review, nil
	}

	affectsRating := review.IsApproved() || status == domain.ReviewApproved
	review.Status = status
	review.UpdatedAt = s.now()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reviews.Update(ctx, review); err != nil {
			return err
		}
		if !affectsRating {
			return nil
		}
		return s.refreshRating(ctx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "review moderated", "review_id", reviewID.Hex(), "status", status)
	return review, nil
}

// MarkHelpful counts one helpful vote per customer. Authors cannot vote on
// their own review.
func (s *ReviewService) MarkHelpful(ctx context.Context, voterID, reviewID primitive.ObjectID) (*domain.Review, error) {
	review, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsApproved() {
		return nil, repository.ErrReviewNotFound
	}
	if review.CustomerID == voterID {
		return nil, ErrForbidden
	}
	if err := review.MarkHelpful(voterID); err != nil {
		return nil, err
	}
	review.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Respond attaches the seller's public answer, replacing an earlier one.
func (s *ReviewService) Respond(ctx context.Context, sellerID, reviewID primitive.ObjectID, comment string) (*domain.Review, error) {
	review, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, review.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, ErrForbidden
	}

	now := s.now()
	review.SellerResponse = &domain.SellerResponse{Comment: comment, RespondedAt: now}
	review.UpdatedAt = now
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor domain.Actor, reviewID primitive.ObjectID) error {
	review, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.CustomerID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		if !review.IsApproved() {
			return nil
		}
		return s.refreshRating(ctx, review.ProductID)
	})
}

func (s *ReviewService) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	summary, err := s.reviews.RatingSummary(ctx, productID)
	if err != nil {
		return err
	}
	return s.products.UpdateRating(ctx, productID, summary)
}
