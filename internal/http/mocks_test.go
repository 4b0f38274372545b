package http

import (
	"context"
	"sync"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCartService struct {
	m       sync.RWMutex
	cart    *domain.Cart
	err     error
	lastAdd service.AddItemInput
	lastQty int
}

func (m *mockCartService) result() (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartService) GetCart(context.Context, primitive.ObjectID) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.result()
}

func (m *mockCartService) AddItem(_ context.Context, _ primitive.ObjectID, in service.AddItemInput) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastAdd = in
	return m.result()
}

func (m *mockCartService) UpdateQuantity(_ context.Context, _, _ primitive.ObjectID, quantity int, _ domain.Variant) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastQty = quantity
	return m.result()
}

func (m *mockCartService) RemoveItem(context.Context, primitive.ObjectID, primitive.ObjectID, domain.Variant) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.result()
}

func (m *mockCartService) ClearCart(context.Context, primitive.ObjectID) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.result()
}

type mockWishlistService struct {
	m        sync.RWMutex
	wishlist *domain.Wishlist
	added    bool
	toggle   service.ToggleResult
	in       bool
	err      error
}

func (m *mockWishlistService) GetWishlist(context.Context, primitive.ObjectID) (*domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.wishlist, m.err
}

func (m *mockWishlistService) AddItem(context.Context, primitive.ObjectID, service.WishlistAddInput) (*domain.Wishlist, bool, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.wishlist, m.added, m.err
}

func (m *mockWishlistService) RemoveItem(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.wishlist, m.err
}

func (m *mockWishlistService) Toggle(context.Context, primitive.ObjectID, service.WishlistAddInput) (service.ToggleResult, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.toggle, m.err
}

func (m *mockWishlistService) Check(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.in, m.err
}

func (m *mockWishlistService) Clear(context.Context, primitive.ObjectID) (*domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.wishlist, m.err
}

func (m *mockWishlistService) MoveToCart(context.Context, primitive.ObjectID, service.AddItemInput) (*domain.Cart, *domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return &domain.Cart{}, m.wishlist, m.err
}

type mockOrderService struct {
	m          sync.RWMutex
	order      *domain.Order
	orders     []*domain.Order
	err        error
	lastFilter domain.OrderFilter
	lastPage   domain.Page
	lastActor  domain.Actor
	lastReason string
}

func (m *mockOrderService) PlaceOrder(context.Context, primitive.ObjectID, service.PlaceOrderInput) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.order, m.err
}

func (m *mockOrderService) Get(_ context.Context, actor domain.Actor, _ string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastActor = actor
	return m.order, m.err
}

func (m *mockOrderService) ListForCustomer(_ context.Context, _ primitive.ObjectID, page domain.Page) ([]*domain.Order, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastPage = page
	return m.orders, int64(len(m.orders)), m.err
}

func (m *mockOrderService) ListForSeller(_ context.Context, _ primitive.ObjectID, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastFilter = filter
	m.lastPage = page
	return m.orders, int64(len(m.orders)), m.err
}

func (m *mockOrderService) UpdateStatus(_ context.Context, actor domain.Actor, _ string, _ domain.OrderStatus, _ string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastActor = actor
	return m.order, m.err
}

func (m *mockOrderService) Cancel(_ context.Context, _ primitive.ObjectID, _, reason string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastReason = reason
	return m.order, m.err
}

func (m *mockOrderService) MarkPaid(context.Context, primitive.ObjectID, string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.order, m.err
}

type mockReviewService struct {
	m      sync.RWMutex
	review *domain.Review
	err    error
}

func (m *mockReviewService) Create(context.Context, primitive.ObjectID, service.CreateReviewInput) (*domain.Review, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.review, m.err
}

func (m *mockReviewService) ListForProduct(context.Context, primitive.ObjectID, domain.Page) ([]*domain.Review, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.review == nil {
		return nil, 0, m.err
	}
	return []*domain.Review{m.review}, 1, m.err
}

func (m *mockReviewService) Moderate(context.Context, primitive.ObjectID, domain.ReviewStatus) (*domain.Review, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.review, m.err
}

func (m *mockReviewService) MarkHelpful(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.Review, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.review, m.err
}

func (m *mockReviewService) Respond(context.Context, primitive.ObjectID, primitive.ObjectID, string) (*domain.Review, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.review, m.err
}

func (m *mockReviewService) Delete(context.Context, domain.Actor, primitive.ObjectID) error {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.err
}

type mockProductReader struct {
	product *domain.Product
	err     error
}

func (m *mockProductReader) Get(context.Context, primitive.ObjectID) (*domain.Product, error) {
	return m.product, m.err
}
