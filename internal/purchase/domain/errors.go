package domain

import "errors"

var (
	ErrNotFound        = errors.New("purchase_not_found")
	ErrInvalidAccount  = errors.New("invalid_purchase_account")
	ErrInvalidMethod   = errors.New("invalid_payment_method")
	ErrCatalogInactive = errors.New("catalog_entry_inactive")
	ErrAlreadyTerminal = errors.New("purchase_already_terminal")
	ErrProofRequired   = errors.New("proof_required")
	ErrReasonRequired  = errors.New("reason_required")
	ErrConflict        = errors.New("duplicate_payment_reference")
)
