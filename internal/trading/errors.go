package trading

import "errors"

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientVolume   = errors.New("not enough volume available")
	ErrInsufficientQuantity = errors.New("not enough shares to sell")
	ErrUnauthorized         = errors.New("position belongs to another account")
)
