package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_market/internal/domain"
)

type Event string

const (
	EventOrderConfirmation   Event = "order_confirmation"
	EventOrderStatusUpdate   Event = "order_status_update"
	EventWelcome             Event = "welcome"
	EventPaymentConfirmation Event = "payment_confirmation"
	EventLowStock            Event = "low_stock"
	EventWishlistSale        Event = "wishlist_sale"
	EventWishlistRestock     Event = "wishlist_restock"
)

type message struct {
	event       Event
	recipientID string
	email       string
	phone       string
	subject     string
	body        string
	sms         string
	payload     any
}

func newMessage(event Event, to domain.Contact) message {
	m := message{event: event, email: to.Email, phone: to.Phone}
	if !to.ID.IsZero() {
		m.recipientID = to.ID.Hex()
	}
	return m
}

func greeting(c domain.Contact) string {
	if c.Name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", c.Name)
}

func (d *Dispatcher) OrderConfirmation(ctx context.Context, to domain.Contact, o *domain.Order) Result {
	m := newMessage(EventOrderConfirmation, to)
	m.subject = fmt.Sprintf("Order %s confirmed", o.OrderID)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nThank you for your order %s.\n\n", greeting(to), o.OrderID)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  %.2f\n", item.Quantity, item.Name, item.Subtotal)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f\nShipping: %.2f\nTax: %.2f\nTotal: %.2f\n",
		o.Subtotal, o.ShippingCost, o.Tax, o.TotalAmount)
	m.body = b.String()

	m.sms = fmt.Sprintf("Order %s confirmed. Total %.2f.", o.OrderID, o.TotalAmount)
	m.payload = orderPayload(o)
	return d.dispatch(ctx, m)
}

func (d *Dispatcher) StatusUpdate(ctx context.Context, to domain.Contact, o *domain.Order) Result {
	m := newMessage(EventOrderStatusUpdate, to)
	status := humanStatus(o.Status)
	m.subject = fmt.Sprintf("Order %s is %s", o.OrderID, status)
	m.body = fmt.Sprintf("%s\n\nYour order %s is now %s.\n", greeting(to), o.OrderID, status)
	if n := len(o.StatusHistory); n > 0 && o.StatusHistory[n-1].Note != "" {
		m.body += fmt.Sprintf("\nNote: %s\n", o.StatusHistory[n-1].Note)
	}
	m.sms = fmt.Sprintf("Order %s: %s.", o.OrderID, status)
	m.payload = orderPayload(o)
	return d.dispatch(ctx, m)
}

func (d *Dispatcher) PaymentConfirmation(ctx context.Context, to domain.Contact, o *domain.Order) Result {
	m := newMessage(EventPaymentConfirmation, to)
	m.subject = fmt.Sprintf("Payment received for order %s", o.OrderID)
	m.body = fmt.Sprintf("%s\n\nWe received your payment of %.2f via %s for order %s.\n",
		greeting(to), o.TotalAmount, o.PaymentMethod, o.OrderID)
	m.sms = fmt.Sprintf("Payment of %.2f received for order %s.", o.TotalAmount, o.OrderID)
	m.payload = orderPayload(o)
	return d.dispatch(ctx, m)
}

// Welcome greets a newly registered customer. Registration lives in the
// account service, so nothing in this module sends it.
func (d *Dispatcher) Welcome(ctx context.Context, to domain.Contact) Result {
	m := newMessage(EventWelcome, to)
	m.subject = "Welcome to the marketplace"
	m.body = fmt.Sprintf("%s\n\nYour account is ready. Happy shopping!\n", greeting(to))
	m.sms = "Welcome to the marketplace! Your account is ready."
	m.payload = map[string]any{"name": to.Name}
	return d.dispatch(ctx, m)
}

// LowStock goes to the seller owning the product.
func (d *Dispatcher) LowStock(ctx context.Context, seller domain.Contact, p *domain.Product) Result {
	m := newMessage(EventLowStock, seller)
	m.subject = fmt.Sprintf("Low stock: %s", p.Name)
	m.body = fmt.Sprintf("%s\n\nOnly %d unit(s) of %s are left in stock.\n", greeting(seller), p.Stock, p.Name)
	m.sms = fmt.Sprintf("Low stock: %d left of %s.", p.Stock, p.Name)
	m.payload = map[string]any{
		"product_id": p.ID.Hex(),
		"name":       p.Name,
		"stock":      p.Stock,
	}
	return d.dispatch(ctx, m)
}

func (d *Dispatcher) WishlistAlert(ctx context.Context, to domain.Contact, a domain.WishlistAlert) Result {
	event := EventWishlistSale
	if a.Kind == domain.AlertRestock {
		event = EventWishlistRestock
	}
	m := newMessage(event, to)

	switch a.Kind {
	case domain.AlertRestock:
		m.subject = fmt.Sprintf("%s is back in stock", a.ProductName)
		m.body = fmt.Sprintf("%s\n\n%s from your wishlist is back in stock at %.2f.\n",
			greeting(to), a.ProductName, a.CurrentPrice)
		m.sms = fmt.Sprintf("%s is back in stock.", a.ProductName)
	default:
		m.subject = fmt.Sprintf("Price drop on %s", a.ProductName)
		m.body = fmt.Sprintf("%s\n\n%s from your wishlist dropped from %.2f to %.2f.\n",
			greeting(to), a.ProductName, a.PriceWhenAdded, a.CurrentPrice)
		m.sms = fmt.Sprintf("%s is now %.2f (was %.2f).", a.ProductName, a.CurrentPrice, a.PriceWhenAdded)
	}
	m.payload = a
	return d.dispatch(ctx, m)
}

func orderPayload(o *domain.Order) map[string]any {
	return map[string]any{
		"order_id":       o.OrderID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"total_amount":   o.TotalAmount,
	}
}

func humanStatus(s domain.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
