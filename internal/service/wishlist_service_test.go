package service

import (
	"context"
	"testing"

	"github.com/fjod/go_market/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type wishlistFixture struct {
	svc       *WishlistService
	wishlists *mockWishlistRepository
	products  *mockProductRepository
	carts     *mockCartRepository
}

func newWishlistFixture(products ...*domain.Product) wishlistFixture {
	f := wishlistFixture{
		wishlists: newMockWishlistRepository(),
		products:  newMockProductRepository(products...),
		carts:     newMockCartRepository(),
	}
	cartSvc := NewCartService(f.carts, f.products, &mockCache{})
	f.svc = NewWishlistService(f.wishlists, f.products, cartSvc)
	return f
}

func TestWishlistAddItem(t *testing.T) {
	product := newProduct(30, 3)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()

	w, added, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID, NotifyOnSale: true})
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, w.Items, 1)
	assert.Equal(t, 30.0, w.Items[0].PriceWhenAdded)
	assert.Equal(t, 1, w.TotalItems)

	w, added, err = f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID, NotifyOnRestock: true})
	require.NoError(t, err)
	assert.False(t, added, "second add only updates preferences")
	require.Len(t, w.Items, 1)
	assert.False(t, w.Items[0].NotifyOnSale)
	assert.True(t, w.Items[0].NotifyOnRestock)
}

func TestWishlistAddItem_UnknownProduct(t *testing.T) {
	f := newWishlistFixture()
	_, _, err := f.svc.AddItem(context.Background(), primitive.NewObjectID(), WishlistAddInput{ProductID: primitive.NewObjectID()})
	assert.Error(t, err)
}

func TestWishlistToggleIsInvolution(t *testing.T) {
	product := newProduct(30, 3)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()

	res, err := f.svc.Toggle(context.Background(), customerID, WishlistAddInput{ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Action: domain.ToggleAdded, InWishlist: true}, res)

	in, err := f.svc.Check(context.Background(), customerID, product.ID)
	require.NoError(t, err)
	assert.True(t, in)

	res, err = f.svc.Toggle(context.Background(), customerID, WishlistAddInput{ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Action: domain.ToggleRemoved, InWishlist: false}, res)
	assert.Empty(t, f.wishlists.stored(customerID).Items)
}

func TestWishlistRemoveAndClear(t *testing.T) {
	a, b := newProduct(1, 1), newProduct(2, 2)
	f := newWishlistFixture(a, b)
	customerID := primitive.NewObjectID()
	for _, p := range []*domain.Product{a, b} {
		_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: p.ID})
		require.NoError(t, err)
	}

	w, err := f.svc.RemoveItem(context.Background(), customerID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, w.TotalItems)

	_, err = f.svc.RemoveItem(context.Background(), customerID, a.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	w, err = f.svc.Clear(context.Background(), customerID)
	require.NoError(t, err)
	assert.Zero(t, w.TotalItems)
}

func TestWishlistMoveToCart(t *testing.T) {
	product := newProduct(12, 5)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()
	_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID})
	require.NoError(t, err)

	cart, w, err := f.svc.MoveToCart(context.Background(), customerID, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity, "quantity defaults to one")
	assert.Equal(t, 12.0, cart.Items[0].Price)
	assert.Empty(t, w.Items)
	assert.False(t, f.wishlists.stored(customerID).HasItem(product.ID))
}

func TestWishlistMoveToCart_NotInWishlist(t *testing.T) {
	product := newProduct(12, 5)
	f := newWishlistFixture(product)

	_, _, err := f.svc.MoveToCart(context.Background(), primitive.NewObjectID(), AddItemInput{ProductID: product.ID})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestWishlistMoveToCart_CartFailureKeepsWishlistItem(t *testing.T) {
	product := newProduct(12, 0)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()
	_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID})
	require.NoError(t, err)

	_, _, err = f.svc.MoveToCart(context.Background(), customerID, AddItemInput{ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, f.wishlists.stored(customerID).HasItem(product.ID))
}

func TestItemsOnSale(t *testing.T) {
	product := newProduct(100, 10)
	quiet := newProduct(50, 10)
	f := newWishlistFixture(product, quiet)
	customerID := primitive.NewObjectID()
	_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID, NotifyOnSale: true})
	require.NoError(t, err)
	_, _, err = f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: quiet.ID})
	require.NoError(t, err)

	alerts, err := f.svc.ItemsOnSale(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts, "no price drop yet")

	f.products.m.Lock()
	f.products.products[product.ID].SalePrice = 80
	f.products.products[quiet.ID].SalePrice = 10
	f.products.m.Unlock()

	alerts, err = f.svc.ItemsOnSale(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.WishlistAlert{
		Kind:           domain.AlertSale,
		CustomerID:     customerID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		PriceWhenAdded: 100,
		CurrentPrice:   80,
	}, alerts[0])

	require.NoError(t, f.svc.AcknowledgeAlert(context.Background(), alerts[0]))
	alerts, err = f.svc.ItemsOnSale(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts, "same price is announced once")
}

func TestItemsBackInStock(t *testing.T) {
	product := newProduct(40, 0)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()
	_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID, NotifyOnRestock: true})
	require.NoError(t, err)

	alerts, err := f.svc.ItemsBackInStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)

	f.products.m.Lock()
	f.products.products[product.ID].Stock = 3
	f.products.m.Unlock()

	alerts, err = f.svc.ItemsBackInStock(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertRestock, alerts[0].Kind)

	require.NoError(t, f.svc.AcknowledgeAlert(context.Background(), alerts[0]))
	alerts, err = f.svc.ItemsBackInStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestItemsBackInStock_FlagsSoldOutItems(t *testing.T) {
	product := newProduct(40, 2)
	f := newWishlistFixture(product)
	customerID := primitive.NewObjectID()
	_, _, err := f.svc.AddItem(context.Background(), customerID, WishlistAddInput{ProductID: product.ID, NotifyOnRestock: true})
	require.NoError(t, err)

	f.products.m.Lock()
	f.products.products[product.ID].Stock = 0
	f.products.m.Unlock()

	_, err = f.svc.ItemsBackInStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{product.ID}, f.wishlists.flagged)

	f.products.m.Lock()
	f.products.products[product.ID].Stock = 1
	f.products.m.Unlock()

	alerts, err := f.svc.ItemsBackInStock(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
