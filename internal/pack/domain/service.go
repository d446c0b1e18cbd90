package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"gorm.io/gorm"
)

// ConsumeResult reports the outcome of a pack consumption attempt.
type ConsumeResult struct {
	// Handled is false when no usable grant exists for the account.
	Handled   bool
	Allowed   bool
	Remaining int64
	GrantID   snowflake.ID
}

type GrantCVPackRequest struct {
	AccountID  snowflake.ID
	CatalogID  snowflake.ID
	PurchaseID snowflake.ID
	Config     catalogdomain.CVPackConfig
}

type GrantPromotionRequest struct {
	AccountID  snowflake.ID
	CatalogID  snowflake.ID
	PurchaseID snowflake.ID
	Config     catalogdomain.PromotionConfig
}

type Service interface {
	// GrantCVPackTx provisions a CV pack grant for a completed purchase
	// inside the caller's transaction.
	GrantCVPackTx(ctx context.Context, tx *gorm.DB, req GrantCVPackRequest) (*Grant, error)
	GrantPromotionTx(ctx context.Context, tx *gorm.DB, req GrantPromotionRequest) (*PromotionGrant, error)
	// TryConsumeTx decrements ProfilesRemaining across the account's
	// usable grants inside the caller's transaction, draining the
	// earliest-expiring grants first and flipping each to exhausted at
	// zero. The consumption is denied only when the combined remaining
	// quota is short of count.
	TryConsumeTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, count int64) (ConsumeResult, error)
	// TryConsumePromotionTx occupies a promotion slot on the account's
	// active promotion grant.
	TryConsumePromotionTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, count int64) (ConsumeResult, error)
	ListByAccount(ctx context.Context, accountID snowflake.ID) ([]Grant, error)
	// ExpireDue flips every active grant whose window has passed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
