package domain

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal transition of order status")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5 in steps of 0.5")
	ErrAlreadyVoted      = errors.New("review already marked helpful by this customer")
)
