package domain

import "errors"

var (
	ErrNotFound        = errors.New("subscription_not_found")
	ErrInvalidAccount  = errors.New("invalid_subscription_account")
	ErrInvalidDuration = errors.New("invalid_subscription_duration")
	ErrNotPending      = errors.New("subscription_not_pending")
	ErrAlreadyTerminal = errors.New("subscription_already_terminal")
	ErrReasonRequired  = errors.New("subscription_reason_required")
)
