package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
)

type WishlistItem struct {
	ProductID       primitive.ObjectID `bson:"product_id" json:"product_id"`
	AddedAt         time.Time          `bson:"added_at" json:"added_at"`
	NotifyOnSale    bool               `bson:"notify_on_sale" json:"notify_on_sale"`
	NotifyOnRestock bool               `bson:"notify_on_restock" json:"notify_on_restock"`
	PriceWhenAdded  float64            `bson:"price_when_added" json:"price_when_added"`

	// AwaitingRestock is set while the product is known to be out of stock and
	// cleared once the restock alert went out.
	AwaitingRestock bool `bson:"awaiting_restock" json:"-"`
	// LastAlertPrice is the price announced by the last sale alert.
	LastAlertPrice float64 `bson:"last_alert_price,omitempty" json:"-"`
}

type Wishlist struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Items      []WishlistItem     `bson:"items" json:"items"`
	TotalItems int                `bson:"total_items" json:"total_items"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func NewWishlist(customerID primitive.ObjectID, now time.Time) *Wishlist {
	w := &Wishlist{
		CustomerID: customerID,
		Items:      []WishlistItem{},
		CreatedAt:  now,
	}
	w.Recalculate(now)
	return w
}

// AddItem appends the product with a snapshot of its current price. When the
// product is already present only the notification preferences change and
// false is returned.
func (w *Wishlist) AddItem(product *Product, notifyOnSale, notifyOnRestock bool) bool {
	if item := w.Item(product.ID); item != nil {
		item.NotifyOnSale = notifyOnSale
		item.NotifyOnRestock = notifyOnRestock
		item.AwaitingRestock = notifyOnRestock && !product.InStock()
		return false
	}
	w.Items = append(w.Items, WishlistItem{
		ProductID:       product.ID,
		AddedAt:         time.Now().UTC(),
		NotifyOnSale:    notifyOnSale,
		NotifyOnRestock: notifyOnRestock,
		PriceWhenAdded:  product.EffectivePrice(),
		AwaitingRestock: notifyOnRestock && !product.InStock(),
	})
	return true
}

func (w *Wishlist) RemoveItem(productID primitive.ObjectID) bool {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle removes the product if present, otherwise adds it.
func (w *Wishlist) Toggle(product *Product, notifyOnSale, notifyOnRestock bool) (ToggleAction, bool) {
	if w.RemoveItem(product.ID) {
		return ToggleRemoved, false
	}
	w.AddItem(product, notifyOnSale, notifyOnRestock)
	return ToggleAdded, true
}

func (w *Wishlist) HasItem(productID primitive.ObjectID) bool {
	return w.Item(productID) != nil
}

func (w *Wishlist) Item(productID primitive.ObjectID) *WishlistItem {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			return &w.Items[i]
		}
	}
	return nil
}

func (w *Wishlist) Clear() {
	w.Items = []WishlistItem{}
}

func (w *Wishlist) Recalculate(now time.Time) {
	if w.Items == nil {
		w.Items = []WishlistItem{}
	}
	w.TotalItems = len(w.Items)
	w.UpdatedAt = now
}

func (w *Wishlist) ProductIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(w.Items))
	for _, item := range w.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
