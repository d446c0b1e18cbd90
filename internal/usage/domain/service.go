package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidAccount = errors.New("invalid_usage_account")
	ErrInvalidFeature = errors.New("invalid_usage_feature")
	ErrInvalidCount   = errors.New("invalid_usage_count")
)

type ListRequest struct {
	AccountID snowflake.ID
	Feature   FeatureType
	Limit     int
}

type Service interface {
	// RecordTx appends a usage event inside the caller's transaction so the
	// event commits or rolls back together with the consumption it meters.
	RecordTx(ctx context.Context, tx *gorm.DB, event *Event) error
	List(ctx context.Context, req ListRequest) ([]Event, error)
}
