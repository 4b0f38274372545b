package service

import (
	"errors"

	"github.com/fjod/go_market/internal/repository"
)

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrInsufficientStock   = repository.ErrInsufficientStock
	ErrQuantityLimit       = errors.New("quantity per cart line exceeds the limit")
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrForbidden           = errors.New("not allowed to access this resource")
	ErrInvalidStatus       = errors.New("unknown status")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrAlreadyPaid         = errors.New("order is already paid")
	ErrOrderClosed         = errors.New("order is closed")
	ErrReviewNotAllowed    = errors.New("only delivered purchases of this product can be reviewed")
)
