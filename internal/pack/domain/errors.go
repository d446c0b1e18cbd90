package domain

import "errors"

var (
	ErrNotFound       = errors.New("pack_grant_not_found")
	ErrInvalidAccount = errors.New("invalid_pack_account")
	ErrInvalidQuota   = errors.New("invalid_pack_quota")
)
