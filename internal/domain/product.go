package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LowStockThreshold is the stock level at or below which the seller is alerted.
const LowStockThreshold = 5

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    primitive.ObjectID `bson:"seller_id" json:"seller_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Price       float64            `bson:"price" json:"price"`
	SalePrice   float64            `bson:"sale_price,omitempty" json:"sale_price,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	Rating      float64            `bson:"rating" json:"rating"`
	ReviewCount int                `bson:"review_count" json:"review_count"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// EffectivePrice is the price a customer pays right now.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

func (p *Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
