package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/notify"
	"github.com/fjod/go_market/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	orderIDAttempts = 3
	notifyTimeout   = 30 * time.Second
	systemActor     = "system"
)

// Notifier is the notification surface the services depend on.
type Notifier interface {
	OrderConfirmation(ctx context.Context, to domain.Contact, o *domain.Order) notify.Result
	StatusUpdate(ctx context.Context, to domain.Contact, o *domain.Order) notify.Result
	PaymentConfirmation(ctx context.Context, to domain.Contact, o *domain.Order) notify.Result
	LowStock(ctx context.Context, seller domain.Contact, p *domain.Product) notify.Result
	WishlistAlert(ctx context.Context, to domain.Contact, a domain.WishlistAlert) notify.Result
}

type PlaceOrderInput struct {
	ShippingAddress domain.Address
	BillingAddress  *domain.Address // defaults to the shipping address
	PaymentMethod   string
	Notes           string
}

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	contacts repository.ContactRepository
	carts    *CartService
	notifier Notifier
	pricing  domain.Pricing

	wg  sync.WaitGroup // in-flight notifications
	now func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	contacts repository.ContactRepository,
	carts *CartService,
	notifier Notifier,
	pricing domain.Pricing,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		contacts: contacts,
		carts:    carts,
		notifier: notifier,
		pricing:  pricing,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder turns the customer's cart into a pending order. Items are
// snapshotted at the live catalog price, stock is taken for every line and
// given back if the order cannot be stored.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID primitive.ObjectID, in PlaceOrderInput) (*domain.Order, error) {
	cart, err := s.carts.loadForCheckout(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.reserveStock(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	billing := in.ShippingAddress
	if in.BillingAddress != nil {
		billing = *in.BillingAddress
	}
	order := &domain.Order{
		CustomerID: customerID,
		Items:      items,
		Status:     domain.OrderStatusPending,
		StatusHistory: []domain.StatusEntry{{
			Status:    domain.OrderStatusPending,
			Timestamp: now,
			Note:      "order placed",
			UpdatedBy: customerID.Hex(),
		}},
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.pricing.Apply(order)

	if err := s.create(ctx, order); err != nil {
		s.releaseStock(ctx, items)
		return nil, err
	}

	if _, err := s.carts.ClearCart(ctx, customerID); err != nil {
		slog.WarnContext(ctx, "clear cart after checkout failed", "order_id", order.OrderID, "error", err)
	}

	slog.InfoContext(ctx, "order placed", "order_id", order.OrderID, "customer_id", customerID.Hex(), "total", order.TotalAmount)

	placed := *order
	s.notifyAsync(ctx, func(ctx context.Context) {
		s.notifier.OrderConfirmation(ctx, s.customerContact(ctx, customerID), &placed)
		for _, p := range lowStock {
			s.notifier.LowStock(ctx, s.sellerContact(ctx, p.SellerID), p)
		}
	})
	return order, nil
}

func (s *OrderService) snapshotItems(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID.Hex())
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Image:     p.Thumbnail(),
			Price:     p.EffectivePrice(),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	return items, nil
}

// reserveStock decrements stock line by line. On failure the lines already
// taken are restored. The products that dropped to the low stock threshold
// are returned.
func (s *OrderService) reserveStock(ctx context.Context, items []domain.OrderItem) ([]*domain.Product, error) {
	var lowStock []*domain.Product
	for i, item := range items {
		p, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.releaseStock(ctx, items[:i])
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, item.Name)
			}
			return nil, err
		}
		if p.Stock <= domain.LowStockThreshold {
			lowStock = append(lowStock, p)
		}
	}
	return lowStock, nil
}

func (s *OrderService) releaseStock(ctx context.Context, items []domain.OrderItem) {
	for _, item := range items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			slog.ErrorContext(ctx, "restore stock failed", "product_id", item.ProductID.Hex(), "quantity", item.Quantity, "error", err)
		}
	}
}

// create stores the order, drawing a fresh order id when the generated one
// collides with an existing order.
func (s *OrderService) create(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		order.OrderID = domain.NewOrderID(s.now())
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateOrderID) {
			return err
		}
		slog.WarnContext(ctx, "order id collision", "order_id", order.OrderID, "attempt", attempt+1)
	}
	return err
}

// Get returns an order to its customer, a seller with items in it, or an admin.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, ErrForbidden
	}
	return order, nil
}

func canView(actor domain.Actor, order *domain.Order) bool {
	switch {
	case actor.IsAdmin():
		return true
	case order.CustomerID == actor.ID:
		return true
	case actor.Role == domain.RoleSeller:
		return order.HasSeller(actor.ID)
	}
	return false
}

func (s *OrderService) ListForCustomer(ctx context.Context, customerID primitive.ObjectID, page domain.Page) ([]*domain.Order, int64, error) {
	return s.orders.ListByCustomer(ctx, customerID, page)
}

func (s *OrderService) ListForSeller(ctx context.Context, sellerID primitive.ObjectID, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.orders.ListBySeller(ctx, sellerID, filter, page)
}

// UpdateStatus moves an order along the fulfilment graph on behalf of a
// seller owning one of its items or an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID string, next domain.OrderStatus, note string) (*domain.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !order.HasSeller(actor.ID) {
		return nil, ErrForbidden
	}

	from := order.State()
	if err := order.UpdateStatus(next, note, actor.ID.Hex(), s.now()); err != nil {
		return nil, err
	}
	refundIfPaid(order)

	if err := s.orders.Update(ctx, order, from); err != nil {
		return nil, err
	}
	if next == domain.OrderStatusCancelled {
		s.releaseStock(ctx, order.Items)
	}

	s.notifyStatus(ctx, order)
	return order, nil
}

// refundIfPaid marks the payment refunded once a paid order is cancelled or
// refunded.
func refundIfPaid(order *domain.Order) {
	if order.PaymentStatus != domain.PaymentStatusPaid {
		return
	}
	if order.Status == domain.OrderStatusCancelled || order.Status == domain.OrderStatusRefunded {
		order.PaymentStatus = domain.PaymentStatusRefunded
	}
}

// Cancel lets the customer withdraw an order that has not entered fulfilment.
func (s *OrderService) Cancel(ctx context.Context, customerID primitive.ObjectID, orderID, reason string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if !order.Cancellable() {
		return nil, ErrOrderNotCancellable
	}

	if reason == "" {
		reason = "cancelled by customer"
	}
	from := order.State()
	if err := order.UpdateStatus(domain.OrderStatusCancelled, reason, customerID.Hex(), s.now()); err != nil {
		return nil, err
	}
	refundIfPaid(order)

	if err := s.orders.Update(ctx, order, from); err != nil {
		return nil, err
	}
	s.releaseStock(ctx, order.Items)

	s.notifyStatus(ctx, order)
	return order, nil
}

// MarkPaid records a successful payment. A pending order is confirmed.
func (s *OrderService) MarkPaid(ctx context.Context, customerID primitive.ObjectID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}
	if order.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}

	from := order.State()
	now := s.now()
	order.PaymentStatus = domain.PaymentStatusPaid
	order.UpdatedAt = now
	if order.Status == domain.OrderStatusPending {
		if err := order.UpdateStatus(domain.OrderStatusConfirmed, "payment received", systemActor, now); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Update(ctx, order, from); err != nil {
		return nil, err
	}

	paid := *order
	s.notifyAsync(ctx, func(ctx context.Context) {
		s.notifier.PaymentConfirmation(ctx, s.customerContact(ctx, paid.CustomerID), &paid)
	})
	return order, nil
}

func (s *OrderService) notifyStatus(ctx context.Context, order *domain.Order) {
	updated := *order
	s.notifyAsync(ctx, func(ctx context.Context) {
		s.notifier.StatusUpdate(ctx, s.customerContact(ctx, updated.CustomerID), &updated)
	})
}

// notifyAsync runs fn detached from the request. Delivery is best effort.
func (s *OrderService) notifyAsync(ctx context.Context, fn func(ctx context.Context)) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until in-flight notifications are done.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

func (s *OrderService) customerContact(ctx context.Context, id primitive.ObjectID) domain.Contact {
	return lookupContact(ctx, s.contacts.Customer, id)
}

func (s *OrderService) sellerContact(ctx context.Context, id primitive.ObjectID) domain.Contact {
	return lookupContact(ctx, s.contacts.Seller, id)
}

// lookupContact falls back to an id-only contact, which still reaches the
// realtime channel.
func lookupContact(ctx context.Context, find func(context.Context, primitive.ObjectID) (domain.Contact, error), id primitive.ObjectID) domain.Contact {
	c, err := find(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrContactNotFound) {
			slog.WarnContext(ctx, "contact lookup failed", "id", id.Hex(), "error", err)
		}
		return domain.Contact{ID: id}
	}
	return c
}
