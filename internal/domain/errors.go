package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrder      = errors.New("duplicate order id")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadySettled      = errors.New("settlement already applied")
	ErrInvalidAmount       = errors.New("invalid amount")
)
