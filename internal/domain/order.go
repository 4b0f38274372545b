package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Address struct {
	FullName   string `bson:"full_name" json:"full_name" validate:"required"`
	Phone      string `bson:"phone" json:"phone" validate:"required"`
	Line1      string `bson:"line1" json:"line1" validate:"required"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city" validate:"required"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postal_code" validate:"required"`
	Country    string `bson:"country" json:"country" validate:"required"`
}

// OrderItem is an immutable snapshot of the product at checkout time.
type OrderItem struct {
	ProductID     primitive.ObjectID `bson:"product_id" json:"product_id"`
	SellerID      primitive.ObjectID `bson:"seller_id" json:"seller_id"`
	Name          string             `bson:"name" json:"name"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Variant       Variant            `bson:"selected_variant" json:"selected_variant"`
	Customization string             `bson:"customization,omitempty" json:"customization,omitempty"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
}

type StatusEntry struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Note      string      `bson:"note,omitempty" json:"note,omitempty"`
	UpdatedBy string      `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID         string             `bson:"order_id" json:"order_id"`
	CustomerID      primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StatusHistory   []StatusEntry      `bson:"status_history" json:"status_history"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost    float64            `bson:"shipping_cost" json:"shipping_cost"`
	Tax             float64            `bson:"tax" json:"tax"`
	Discount        float64            `bson:"discount" json:"discount"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	ShippingAddress Address            `bson:"shipping_address" json:"shipping_address"`
	BillingAddress  Address            `bson:"billing_address" json:"billing_address"`
	PaymentMethod   string             `bson:"payment_method" json:"payment_method"`
	PaymentStatus   PaymentStatus      `bson:"payment_status" json:"payment_status"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// OrderState is the part of an order every write changes. Updates are
// applied only if the stored order is still in the state it was read in.
type OrderState struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

func (o *Order) State() OrderState {
	return OrderState{Status: o.Status, PaymentStatus: o.PaymentStatus}
}

// NewOrderID returns a human readable id: "ORD", the epoch millis and four
// random digits.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD%d%04d", now.UnixMilli(), rand.IntN(10000))
}

// UpdateStatus moves the order along the status graph and appends exactly one
// history entry.
func (o *Order) UpdateStatus(next OrderStatus, note, updatedBy string, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
	}
	o.Status = next
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		Status:    next,
		Timestamp: now,
		Note:      note,
		UpdatedBy: updatedBy,
	})
	o.UpdatedAt = now
	return nil
}

func (o *Order) Cancellable() bool {
	return o.Status.CanTransitionTo(OrderStatusCancelled)
}

func (o *Order) HasSeller(sellerID primitive.ObjectID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (o *Order) HasProduct(productID primitive.ObjectID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// OrderFilter narrows a seller's order listing. Zero values are ignored.
type OrderFilter struct {
	Status OrderStatus
	From   time.Time
	To     time.Time
	Search string
}
