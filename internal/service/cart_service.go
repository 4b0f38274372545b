package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_market/internal/cache"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

type AddItemInput struct {
	ProductID primitive.ObjectID
	Quantity  int
	Variant   domain.Variant
}

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    cache.Cache[domain.Cart]
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, cache cache.Cache[domain.Cart]) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cache,
	}
}

// GetCart returns the customer's cart, creating an empty one on first use.
func (s *CartService) GetCart(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	key := customerID.Hex()
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, key)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cache get error", "key", key, "error", err) // log cache error but continue
		}

		cart, err = s.carts.GetOrCreate(ctx, customerID)
		if err != nil {
			return nil, err
		}

		// A write that lands meanwhile has already cached the newer cart.
		go func(cart *domain.Cart) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, errSet := s.cache.SetIfAbsent(ctx, key, cart); errSet != nil {
				slog.Warn("cache fill error", "key", key, "error", errSet)
			}
		}(cart)

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem adds quantity units of a product variant at the product's current
// price, merging with an existing line for the same variant. The 99 unit cap
// is cumulative: it applies to the merged line, not to each call.
func (s *CartService) AddItem(ctx context.Context, customerID primitive.ObjectID, in AddItemInput) (*domain.Cart, error) {
	product, err := s.availableProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if line := cart.Item(product.ID, in.Variant); line != nil && line.Quantity+in.Quantity > domain.MaxItemQuantity {
		return nil, ErrQuantityLimit
	}
	if cart.QuantityOf(product.ID)+in.Quantity > product.Stock {
		return nil, ErrInsufficientStock
	}

	cart.AddItem(product.ID, in.Quantity, product.EffectivePrice(), in.Variant)
	return s.save(ctx, cart)
}

// UpdateQuantity overwrites a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID primitive.ObjectID, quantity int, variant domain.Variant) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if quantity > 0 {
		item := cart.Item(productID, variant)
		if item == nil {
			return nil, ErrItemNotFound
		}
		product, err := s.availableProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if cart.QuantityOf(productID)-item.Quantity+quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
	}

	if !cart.UpdateItemQuantity(productID, quantity, variant) {
		return nil, ErrItemNotFound
	}
	return s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, productID primitive.ObjectID, variant domain.Variant) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(productID, variant) {
		return nil, ErrItemNotFound
	}
	return s.save(ctx, cart)
}

func (s *CartService) ClearCart(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return s.save(ctx, cart)
}

// loadForCheckout reads the cart straight from the store, bypassing the cache.
func (s *CartService) loadForCheckout(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error) {
	return s.carts.GetOrCreate(ctx, customerID)
}

func (s *CartService) availableProduct(ctx context.Context, productID primitive.ObjectID) (*domain.Product, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := s.carts.Save(ctx, cart); err != nil {
		slog.ErrorContext(ctx, "repo save cart error", "customer_id", cart.CustomerID.Hex(), "error", err)
		return nil, err
	}
	s.refreshCache(cart)
	return cart, nil
}

// refreshCache stores the saved cart. If that fails the key is dropped so
// readers fall through to the store.
func (s *CartService) refreshCache(cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	key := cart.CustomerID.Hex()
	if err := s.cache.Set(ctx, key, cart); err != nil {
		slog.Warn("cache refresh error", "customer_id", key, "error", err)
		if errDel := s.cache.Delete(ctx, key); errDel != nil {
			slog.Warn("cache invalidate error", "customer_id", key, "error", errDel)
		}
	}
}
