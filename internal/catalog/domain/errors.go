package domain

import "errors"

var (
	ErrNotFound       = errors.New("catalog_entry_not_found")
	ErrInvalidKind    = errors.New("invalid_catalog_kind")
	ErrInvalidConfig  = errors.New("invalid_catalog_config")
	ErrInvalidName    = errors.New("invalid_catalog_name")
	ErrInvalidPrice   = errors.New("invalid_catalog_price")
	ErrEntryInactive  = errors.New("catalog_entry_inactive")
	ErrInvalidEntryID = errors.New("invalid_catalog_entry_id")
)
