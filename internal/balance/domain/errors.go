package domain

import "errors"

var (
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidType         = errors.New("invalid_transaction_type")
	ErrInsufficientBalance = errors.New("insufficient_balance")
)
