package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

type AlertKind string

const (
	AlertSale    AlertKind = "sale"
	AlertRestock AlertKind = "restock"
)

// WishlistAlert is one entry of the sale/restock notification worklist.
type WishlistAlert struct {
	Kind           AlertKind          `json:"kind"`
	CustomerID     primitive.ObjectID `json:"customer_id"`
	ProductID      primitive.ObjectID `json:"product_id"`
	ProductName    string             `json:"product_name"`
	PriceWhenAdded float64            `json:"price_when_added"`
	CurrentPrice   float64            `json:"current_price"`
}

// SaleAlert reports whether the item should trigger a sale alert for the
// product's live price. An alert is only repeated when the price drops below
// the one announced last time.
func SaleAlert(item WishlistItem, p *Product) bool {
	if !item.NotifyOnSale || !p.IsActive {
		return false
	}
	price := p.EffectivePrice()
	if price >= item.PriceWhenAdded {
		return false
	}
	return item.LastAlertPrice == 0 || price < item.LastAlertPrice
}

// RestockAlert reports whether an item that was waiting for stock can now be
// announced as available.
func RestockAlert(item WishlistItem, p *Product) bool {
	return item.NotifyOnRestock && item.AwaitingRestock && p.IsActive && p.InStock()
}

func NewWishlistAlert(kind AlertKind, customerID primitive.ObjectID, item WishlistItem, p *Product) WishlistAlert {
	return WishlistAlert{
		Kind:           kind,
		CustomerID:     customerID,
		ProductID:      p.ID,
		ProductName:    p.Name,
		PriceWhenAdded: item.PriceWhenAdded,
		CurrentPrice:   p.EffectivePrice(),
	}
}
