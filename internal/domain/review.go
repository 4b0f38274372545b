package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewFlagged  ReviewStatus = "flagged"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewFlagged:
		return true
	}
	return false
}

type SellerResponse struct {
	Comment     string    `bson:"comment" json:"comment"`
	RespondedAt time.Time `bson:"responded_at" json:"responded_at"`
}

// Review is unique per (product, customer, order): one review per purchase.
type Review struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProductID      primitive.ObjectID   `bson:"product_id" json:"product_id"`
	CustomerID     primitive.ObjectID   `bson:"customer_id" json:"customer_id"`
	OrderID        string               `bson:"order_id" json:"order_id"`
	Rating         float64              `bson:"rating" json:"rating"`
	Title          string               `bson:"title" json:"title"`
	Comment        string               `bson:"comment" json:"comment"`
	Images         []string             `bson:"images" json:"images"`
	HelpfulVotes   int                  `bson:"helpful_votes" json:"helpful_votes"`
	HelpfulVoters  []primitive.ObjectID `bson:"helpful_voters" json:"-"`
	SellerResponse *SellerResponse      `bson:"seller_response,omitempty" json:"seller_response,omitempty"`
	Status         ReviewStatus         `bson:"status" json:"status"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// ValidateRating accepts 1..5 in half steps.
func ValidateRating(r float64) error {
	if r < 1 || r > 5 || math.Mod(r*2, 1) != 0 {
		return ErrInvalidRating
	}
	return nil
}

func (r *Review) MarkHelpful(voter primitive.ObjectID) error {
	for _, v := range r.HelpfulVoters {
		if v == voter {
			return ErrAlreadyVoted
		}
	}
	r.HelpfulVoters = append(r.HelpfulVoters, voter)
	r.HelpfulVotes = len(r.HelpfulVoters)
	return nil
}

func (r *Review) IsApproved() bool {
	return r.Status == ReviewApproved
}

// RatingSummary is the denormalised rating stored on the product.
type RatingSummary struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Rounded returns the summary with the average rounded to one decimal.
func (s RatingSummary) Rounded() RatingSummary {
	return RatingSummary{
		Average: decimal.NewFromFloat(s.Average).Round(1).InexactFloat64(),
		Count:   s.Count,
	}
}
