package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_market/internal/cache"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/notify"
	"github.com/fjod/go_market/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCartRepository struct {
	m         sync.RWMutex
	carts     map[primitive.ObjectID]*domain.Cart
	err       error
	saves     int
	afterRead func() // runs after GetOrCreate has copied the cart
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[primitive.ObjectID]*domain.Cart{}}
}

func (m *mockCartRepository) GetOrCreate(_ context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	m.m.Lock()
	if m.err != nil {
		m.m.Unlock()
		return nil, m.err
	}
	cart, ok := m.carts[customerID]
	if !ok {
		cart = domain.NewCart(customerID, time.Now())
		m.carts[customerID] = cart
	}
	c := *cart
	c.Items = append([]domain.CartItem{}, cart.Items...)
	hook := m.afterRead
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	return &c, nil
}

func (m *mockCartRepository) Get(_ context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[customerID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart, nil
}

func (m *mockCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart.Recalculate(time.Now())
	c := *cart
	c.Items = append([]domain.CartItem{}, cart.Items...)
	m.carts[cart.CustomerID] = &c
	m.saves++
	return nil
}

func (m *mockCartRepository) Delete(_ context.Context, customerID primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, customerID)
	return m.err
}

func (m *mockCartRepository) stored(customerID primitive.ObjectID) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[customerID]
}

type mockCache struct {
	m     sync.RWMutex
	cart  *domain.Cart
	err   error
	gets  int
	fills int
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart = copyCart(cart)
	return nil
}

func (m *mockCache) SetIfAbsent(_ context.Context, _ string, cart *domain.Cart) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.fills++
	if m.err != nil {
		return false, m.err
	}
	if m.cart != nil {
		return false, nil
	}
	m.cart = copyCart(cart)
	return true, nil
}

func (m *mockCache) fillCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.fills
}

func copyCart(cart *domain.Cart) *domain.Cart {
	c := *cart
	c.Items = append([]domain.CartItem{}, cart.Items...)
	return &c
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockProductRepository struct {
	m        sync.RWMutex
	products map[primitive.ObjectID]*domain.Product
	err      error
	restored map[primitive.ObjectID]int
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{
		products: map[primitive.ObjectID]*domain.Product{},
		restored: map[primitive.ObjectID]int{},
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Get(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := map[primitive.ObjectID]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockProductRepository) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.ID] = p
	return m.err
}

func (m *mockProductRepository) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return nil, repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) RestoreStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if p, ok := m.products[id]; ok {
		p.Stock += quantity
	}
	m.restored[id] += quantity
	return nil
}

func (m *mockProductRepository) UpdateRating(_ context.Context, id primitive.ObjectID, summary domain.RatingSummary) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Rating = summary.Average
	p.ReviewCount = summary.Count
	return nil
}

func (m *mockProductRepository) stock(id primitive.ObjectID) int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.products[id].Stock
}

func (m *mockProductRepository) product(id primitive.ObjectID) domain.Product {
	m.m.RLock()
	defer m.m.RUnlock()
	return *m.products[id]
}

type mockWishlistRepository struct {
	m         sync.RWMutex
	wishlists map[primitive.ObjectID]*domain.Wishlist
	err       error
	flagged   []primitive.ObjectID
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{wishlists: map[primitive.ObjectID]*domain.Wishlist{}}
}

func (m *mockWishlistRepository) GetOrCreate(_ context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	w, ok := m.wishlists[customerID]
	if !ok {
		w = domain.NewWishlist(customerID, time.Now())
		m.wishlists[customerID] = w
	}
	cp := *w
	cp.Items = append([]domain.WishlistItem{}, w.Items...)
	return &cp, nil
}

func (m *mockWishlistRepository) Save(_ context.Context, w *domain.Wishlist) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	w.Recalculate(time.Now())
	cp := *w
	cp.Items = append([]domain.WishlistItem{}, w.Items...)
	m.wishlists[w.CustomerID] = &cp
	return nil
}

func (m *mockWishlistRepository) FindWithAlertOptIn(context.Context) ([]*domain.Wishlist, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Wishlist
	for _, w := range m.wishlists {
		for _, item := range w.Items {
			if item.NotifyOnSale || item.NotifyOnRestock {
				cp := *w
				cp.Items = append([]domain.WishlistItem{}, w.Items...)
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *mockWishlistRepository) MarkSaleAlerted(_ context.Context, customerID, productID primitive.ObjectID, price float64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if item := m.item(customerID, productID); item != nil {
		item.LastAlertPrice = price
	}
	return m.err
}

func (m *mockWishlistRepository) MarkRestockAlerted(_ context.Context, customerID, productID primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if item := m.item(customerID, productID); item != nil {
		item.AwaitingRestock = false
	}
	return m.err
}

func (m *mockWishlistRepository) FlagAwaitingRestock(_ context.Context, productIDs []primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.flagged = append(m.flagged, productIDs...)
	for _, w := range m.wishlists {
		for i := range w.Items {
			for _, id := range productIDs {
				if w.Items[i].ProductID == id && w.Items[i].NotifyOnRestock {
					w.Items[i].AwaitingRestock = true
				}
			}
		}
	}
	return m.err
}

func (m *mockWishlistRepository) item(customerID, productID primitive.ObjectID) *domain.WishlistItem {
	w, ok := m.wishlists[customerID]
	if !ok {
		return nil
	}
	return w.Item(productID)
}

func (m *mockWishlistRepository) stored(customerID primitive.ObjectID) *domain.Wishlist {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.wishlists[customerID]
}

type mockOrderRepository struct {
	m          sync.RWMutex
	orders     map[string]*domain.Order
	createErrs []error // consumed one per Create call
	err        error
	filter     domain.OrderFilter
	afterGet   func() // runs after GetByOrderID has copied the order
}

func newMockOrderRepository(orders ...*domain.Order) *mockOrderRepository {
	m := &mockOrderRepository{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		m.orders[o.OrderID] = o
	}
	return m
}

func (m *mockOrderRepository) Create(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepository) GetByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	m.m.RLock()
	if m.err != nil {
		m.m.RUnlock()
		return nil, m.err
	}
	o, ok := m.orders[orderID]
	if !ok {
		m.m.RUnlock()
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	cp.StatusHistory = append([]domain.StatusEntry{}, o.StatusHistory...)
	hook := m.afterGet
	m.m.RUnlock()

	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (m *mockOrderRepository) Update(_ context.Context, o *domain.Order, from domain.OrderState) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	current, ok := m.orders[o.OrderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if current.State() != from {
		return repository.ErrOrderConflict
	}
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepository) ListByCustomer(_ context.Context, customerID primitive.ObjectID, _ domain.Page) ([]*domain.Order, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), m.err
}

func (m *mockOrderRepository) ListBySeller(_ context.Context, sellerID primitive.ObjectID, filter domain.OrderFilter, _ domain.Page) ([]*domain.Order, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.filter = filter
	var out []*domain.Order
	for _, o := range m.orders {
		if o.HasSeller(sellerID) {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), m.err
}

func (m *mockOrderRepository) stored(orderID string) *domain.Order {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.orders[orderID]
}

func (m *mockOrderRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

type mockReviewRepository struct {
	m       sync.RWMutex
	reviews map[primitive.ObjectID]*domain.Review
	err     error
}

func newMockReviewRepository(reviews ...*domain.Review) *mockReviewRepository {
	m := &mockReviewRepository{reviews: map[primitive.ObjectID]*domain.Review{}}
	for _, r := range reviews {
		m.reviews[r.ID] = r
	}
	return m
}

func (m *mockReviewRepository) Create(_ context.Context, r *domain.Review) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.reviews {
		if existing.ProductID == r.ProductID && existing.CustomerID == r.CustomerID && existing.OrderID == r.OrderID {
			return repository.ErrDuplicateReview
		}
	}
	r.ID = primitive.NewObjectID()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepository) Get(_ context.Context, id primitive.ObjectID) (*domain.Review, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cp := *r
	cp.HelpfulVoters = append([]primitive.ObjectID{}, r.HelpfulVoters...)
	return &cp, nil
}

func (m *mockReviewRepository) Update(_ context.Context, r *domain.Review) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return m.err
}

func (m *mockReviewRepository) ListByProduct(_ context.Context, productID primitive.ObjectID, _ domain.Page) ([]*domain.Review, int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID && r.IsApproved() {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), m.err
}

func (m *mockReviewRepository) RatingSummary(_ context.Context, productID primitive.ObjectID) (domain.RatingSummary, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var sum float64
	var n int
	for _, r := range m.reviews {
		if r.ProductID == productID && r.IsApproved() {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingSummary{}, nil
	}
	return domain.RatingSummary{Average: sum / float64(n), Count: n}.Rounded(), nil
}

type mockContactRepository struct {
	contacts map[primitive.ObjectID]domain.Contact
}

func (m *mockContactRepository) Customer(_ context.Context, id primitive.ObjectID) (domain.Contact, error) {
	return m.find(id)
}

func (m *mockContactRepository) Seller(_ context.Context, id primitive.ObjectID) (domain.Contact, error) {
	return m.find(id)
}

func (m *mockContactRepository) find(id primitive.ObjectID) (domain.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return domain.Contact{}, repository.ErrContactNotFound
	}
	return c, nil
}

type mockTransactor struct {
	m     sync.Mutex
	calls int
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.m.Lock()
	m.calls++
	m.m.Unlock()
	return fn(ctx)
}

type mockNotifier struct {
	m             sync.RWMutex
	confirmations []string
	statusUpdates []domain.OrderStatus
	payments      []string
	lowStock      []primitive.ObjectID
	alerts        []domain.WishlistAlert
	contacts      []domain.Contact
	result        notify.Result
}

func (m *mockNotifier) OrderConfirmation(_ context.Context, to domain.Contact, o *domain.Order) notify.Result {
	m.m.Lock()
	defer m.m.Unlock()
	m.confirmations = append(m.confirmations, o.OrderID)
	m.contacts = append(m.contacts, to)
	return m.result
}

func (m *mockNotifier) StatusUpdate(_ context.Context, to domain.Contact, o *domain.Order) notify.Result {
	m.m.Lock()
	defer m.m.Unlock()
	m.statusUpdates = append(m.statusUpdates, o.Status)
	m.contacts = append(m.contacts, to)
	return m.result
}

func (m *mockNotifier) PaymentConfirmation(_ context.Context, to domain.Contact, o *domain.Order) notify.Result {
	m.m.Lock()
	defer m.m.Unlock()
	m.payments = append(m.payments, o.OrderID)
	m.contacts = append(m.contacts, to)
	return m.result
}

func (m *mockNotifier) LowStock(_ context.Context, _ domain.Contact, p *domain.Product) notify.Result {
	m.m.Lock()
	defer m.m.Unlock()
	m.lowStock = append(m.lowStock, p.ID)
	return m.result
}

func (m *mockNotifier) WishlistAlert(_ context.Context, to domain.Contact, a domain.WishlistAlert) notify.Result {
	m.m.Lock()
	defer m.m.Unlock()
	m.alerts = append(m.alerts, a)
	m.contacts = append(m.contacts, to)
	return m.result
}

type sentNotifications struct {
	confirmations []string
	statusUpdates []domain.OrderStatus
	payments      []string
	lowStock      []primitive.ObjectID
	alerts        []domain.WishlistAlert
	contacts      []domain.Contact
}

func (m *mockNotifier) sent() sentNotifications {
	m.m.RLock()
	defer m.m.RUnlock()
	return sentNotifications{
		confirmations: append([]string{}, m.confirmations...),
		statusUpdates: append([]domain.OrderStatus{}, m.statusUpdates...),
		payments:      append([]string{}, m.payments...),
		lowStock:      append([]primitive.ObjectID{}, m.lowStock...),
		alerts:        append([]domain.WishlistAlert{}, m.alerts...),
		contacts:      append([]domain.Contact{}, m.contacts...),
	}
}

func newProduct(price float64, stock int) *domain.Product {
	return &domain.Product{
		ID:       primitive.NewObjectID(),
		SellerID: primitive.NewObjectID(),
		Name:     "Lamp",
		Images:   []string{"lamp.jpg"},
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
}
