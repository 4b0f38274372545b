package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_market/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrWishlistNotFound  = errors.New("wishlist not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrderID  = errors.New("order id already exists")
	ErrOrderConflict     = errors.New("order was changed by another request")
	ErrReviewNotFound    = errors.New("review not found")
	ErrDuplicateReview   = errors.New("product already reviewed for this order")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrContactNotFound   = errors.New("contact not found")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetOrCreate(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error)
	Get(ctx context.Context, customerID primitive.ObjectID) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, customerID primitive.ObjectID) error
}

type WishlistRepository interface {
	GetOrCreate(ctx context.Context, customerID primitive.ObjectID) (*domain.Wishlist, error)
	Save(ctx context.Context, wishlist *domain.Wishlist) error
	FindWithAlertOptIn(ctx context.Context) ([]*domain.Wishlist, error)
	MarkSaleAlerted(ctx context.Context, customerID, productID primitive.ObjectID, price float64) error
	MarkRestockAlerted(ctx context.Context, customerID, productID primitive.ObjectID) error
	FlagAwaitingRestock(ctx context.Context, productIDs []primitive.ObjectID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order, from domain.OrderState) error
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page domain.Page) ([]*domain.Order, int64, error)
	ListBySeller(ctx context.Context, sellerID primitive.ObjectID, filter domain.OrderFilter, page domain.Page) ([]*domain.Order, int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByProduct(ctx context.Context, productID primitive.ObjectID, page domain.Page) ([]*domain.Review, int64, error)
	RatingSummary(ctx context.Context, productID primitive.ObjectID) (domain.RatingSummary, error)
}

type ProductRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (*domain.Product, error)
	RestoreStock(ctx context.Context, id primitive.ObjectID, quantity int) error
	UpdateRating(ctx context.Context, id primitive.ObjectID, summary domain.RatingSummary) error
}

type ContactRepository interface {
	Customer(ctx context.Context, id primitive.ObjectID) (domain.Contact, error)
	Seller(ctx context.Context, id primitive.ObjectID) (domain.Contact, error)
}

// Transactor runs fn so that its writes commit together when the deployment
// supports transactions.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
