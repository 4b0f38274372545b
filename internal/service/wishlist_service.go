package service

import (
	"context"
	"log/slog"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistAddInput struct {
	ProductID       primitive.ObjectID
	NotifyOnSale    bool
	NotifyOnRestock bool
}

type ToggleResult struct {
	Action     domain.ToggleAction `json:"action"`
	InWishlist bool                `json:"in_wishlist"`
}

type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	carts     *CartService
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository, carts *CartService) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		carts:     carts,
	}
}

func (s *WishlistService) GetWishlist(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error) {
	return s.wishlists.GetOrCreate(ctx, customerID)
}

// AddItem reports added=false when the product was already wishlisted and
// only its notification preferences were updated.
func (s *WishlistService) AddItem(ctx context.Context, customerID primitive.ObjectID, in WishlistAddInput) (*domain.Wishlist, bool, error) {
	product, err := s.products.Get(ctx, in.ProductID)
	if err != nil {
		return nil, false, err
	}

	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, false, err
	}

	added := wishlist.AddItem(product, in.NotifyOnSale, in.NotifyOnRestock)
	if err := s.wishlists.Save(ctx, wishlist); err != nil {
		return nil, false, err
	}
	return wishlist, added, nil
}

func (s *WishlistService) RemoveItem(ctx context.Context, customerID, productID primitive.ObjectID) (*domain.Wishlist, error) {
	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !wishlist.RemoveItem(productID) {
		return nil, ErrItemNotFound
	}
	if err := s.wishlists.Save(ctx, wishlist); err != nil {
		return nil, err
	}
	return wishlist, nil
}

func (s *WishlistService) Toggle(ctx context.Context, customerID primitive.ObjectID, in WishlistAddInput) (ToggleResult, error) {
	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return ToggleResult{}, err
	}

	var res ToggleResult
	if wishlist.RemoveItem(in.ProductID) {
		res = ToggleResult{Action: domain.ToggleRemoved, InWishlist: false}
	} else {
		product, err := s.products.Get(ctx, in.ProductID)
		if err != nil {
			return ToggleResult{}, err
		}
		action, inList := wishlist.Toggle(product, in.NotifyOnSale, in.NotifyOnRestock)
		res = ToggleResult{Action: action, InWishlist: inList}
	}

	if err := s.wishlists.Save(ctx, wishlist); err != nil {
		return ToggleResult{}, err
	}
	return res, nil
}

func (s *WishlistService) Check(ctx context.Context, customerID, productID primitive.ObjectID) (bool, error) {
	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return false, err
	}
	return wishlist.HasItem(productID), nil
}

func (s *WishlistService) Clear(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error) {
	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	wishlist.Clear()
	if err := s.wishlists.Save(ctx, wishlist); err != nil {
		return nil, err
	}
	return wishlist, nil
}

// MoveToCart adds a wishlisted product to the cart at its current price and
// drops it from the wishlist. The cart write happens first, so a failure in
// between leaves the product in both rather than in neither.
func (s *WishlistService) MoveToCart(ctx context.Context, customerID primitive.ObjectID, in AddItemInput) (*domain.Cart, *domain.Wishlist, error) {
	wishlist, err := s.wishlists.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	if !wishlist.HasItem(in.ProductID) {
		return nil, nil, ErrItemNotFound
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	cart, err := s.carts.AddItem(ctx, customerID, in)
	if err != nil {
		return nil, nil, err
	}

	wishlist.RemoveItem(in.ProductID)
	if err := s.wishlists.Save(ctx, wishlist); err != nil {
		return nil, nil, err
	}
	return cart, wishlist, nil
}

// ItemsOnSale lists, across all wishlists, the opted-in items whose product
// now sells below the price it had when wishlisted.
func (s *WishlistService) ItemsOnSale(ctx context.Context) ([]domain.WishlistAlert, error) {
	var alerts []domain.WishlistAlert
	err := s.scan(ctx, func(w *domain.Wishlist, item domain.WishlistItem, p *domain.Product) {
		if domain.SaleAlert(item, p) {
			alerts = append(alerts, domain.NewWishlistAlert(domain.AlertSale, w.CustomerID, item, p))
		}
	})
	return alerts, err
}

// ItemsBackInStock lists the restock-subscribed items whose product came back
// in stock. Subscribed items that are currently out of stock are flagged so
// they are reported once stock returns.
func (s *WishlistService) ItemsBackInStock(ctx context.Context) ([]domain.WishlistAlert, error) {
	var alerts []domain.WishlistAlert
	soldOut := map[primitive.ObjectID]struct{}{}

	err := s.scan(ctx, func(w *domain.Wishlist, item domain.WishlistItem, p *domain.Product) {
		switch {
		case domain.RestockAlert(item, p):
			alerts = append(alerts, domain.NewWishlistAlert(domain.AlertRestock, w.CustomerID, item, p))
		case item.NotifyOnRestock && !item.AwaitingRestock && !p.InStock():
			soldOut[p.ID] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	if len(soldOut) > 0 {
		ids := make([]primitive.ObjectID, 0, len(soldOut))
		for id := range soldOut {
			ids = append(ids, id)
		}
		if err := s.wishlists.FlagAwaitingRestock(ctx, ids); err != nil {
			slog.WarnContext(ctx, "flag awaiting restock failed", "error", err)
		}
	}
	return alerts, nil
}

// AcknowledgeAlert records that an alert went out so it is not sent again.
func (s *WishlistService) AcknowledgeAlert(ctx context.Context, a domain.WishlistAlert) error {
	if a.Kind == domain.AlertRestock {
		return s.wishlists.MarkRestockAlerted(ctx, a.CustomerID, a.ProductID)
	}
	return s.wishlists.MarkSaleAlerted(ctx, a.CustomerID, a.ProductID, a.CurrentPrice)
}

func (s *WishlistService) scan(ctx context.Context, visit func(*domain.Wishlist, domain.WishlistItem, *domain.Product)) error {
	wishlists, err := s.wishlists.FindWithAlertOptIn(ctx)
	if err != nil {
		return err
	}

	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, w := range wishlists {
		for _, id := range w.ProductIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return err
	}

	for _, w := range wishlists {
		for _, item := range w.Items {
			p, ok := products[item.ProductID]
			if !ok {
				continue
			}
			visit(w, item, p)
		}
	}
	return nil
}
