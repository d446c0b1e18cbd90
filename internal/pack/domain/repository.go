package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertGrant(ctx context.Context, db *gorm.DB, grant *Grant) error
	UpdateGrant(ctx context.Context, db *gorm.DB, grant *Grant) error
	// FindUsableGrantsForUpdate locks every active, unexpired grant with
	// remaining profiles for the account, earliest expiry first.
	FindUsableGrantsForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, now time.Time) ([]Grant, error)
	ListGrantsByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Grant, error)
	ExpireDueGrants(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)

	InsertPromotionGrant(ctx context.Context, db *gorm.DB, grant *PromotionGrant) error
	UpdatePromotionGrant(ctx context.Context, db *gorm.DB, grant *PromotionGrant) error
	FindUsablePromotionGrantForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, now time.Time) (*PromotionGrant, error)
	ExpireDuePromotionGrants(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
