package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// CartTTL is rolled forward on every save, so only abandoned carts expire.
	CartTTL = 30 * 24 * time.Hour

	MaxItemQuantity = 99
)

// Variant is the customer's selection for a configurable product. Two cart
// lines with the same product but different variants are distinct lines.
type Variant struct {
	Color    string `bson:"color,omitempty" json:"color,omitempty"`
	Size     string `bson:"size,omitempty" json:"size,omitempty"`
	Material string `bson:"material,omitempty" json:"material,omitempty"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Variant   Variant            `bson:"selected_variant" json:"selected_variant"`
	AddedAt   time.Time          `bson:"added_at" json:"added_at"`
}

func (i CartItem) matches(productID primitive.ObjectID, variant Variant) bool {
	return i.ProductID == productID && i.Variant == variant
}

type Cart struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID   primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Items        []CartItem         `bson:"items" json:"items"`
	TotalItems   int                `bson:"total_items" json:"total_items"`
	TotalAmount  float64            `bson:"total_amount" json:"total_amount"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
}

func NewCart(customerID primitive.ObjectID, now time.Time) *Cart {
	c := &Cart{
		CustomerID: customerID,
		Items:      []CartItem{},
		CreatedAt:  now,
	}
	c.Recalculate(now)
	return c
}

// AddItem merges into an existing line with the same product and variant,
// refreshing its price to the one given, or appends a new line.
func (c *Cart) AddItem(productID primitive.ObjectID, quantity int, price float64, variant Variant) {
	for i := range c.Items {
		if c.Items[i].matches(productID, variant) {
			c.Items[i].Quantity += quantity
			c.Items[i].Price = price
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		Variant:   variant,
		AddedAt:   time.Now().UTC(),
	})
}

// UpdateItemQuantity overwrites the quantity of a line; zero or negative
// removes it. Reports whether the line existed.
func (c *Cart) UpdateItemQuantity(productID primitive.ObjectID, quantity int, variant Variant) bool {
	for i := range c.Items {
		if !c.Items[i].matches(productID, variant) {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return true
	}
	return false
}

func (c *Cart) RemoveItem(productID primitive.ObjectID, variant Variant) bool {
	return c.UpdateItemQuantity(productID, 0, variant)
}

func (c *Cart) HasItem(productID primitive.ObjectID, variant Variant) bool {
	return c.Item(productID, variant) != nil
}

func (c *Cart) Item(productID primitive.ObjectID, variant Variant) *CartItem {
	for i := range c.Items {
		if c.Items[i].matches(productID, variant) {
			return &c.Items[i]
		}
	}
	return nil
}

// QuantityOf sums the quantity of a product across all of its variants.
func (c *Cart) QuantityOf(productID primitive.ObjectID) int {
	n := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			n += item.Quantity
		}
	}
	return n
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Recalculate refreshes the derived totals and rolls the expiry forward.
// Repositories call it before every write.
func (c *Cart) Recalculate(now time.Time) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	total := decimal.Zero
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalItems = count
	c.TotalAmount = total.Round(2).InexactFloat64()
	c.LastModified = now
	c.ExpiresAt = now.Add(CartTTL)
}
