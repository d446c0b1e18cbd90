package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindActiveByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Subscription, error)
	// FindActiveByAccountForUpdate locks the active subscription row for
	// the duration of the surrounding transaction.
	FindActiveByAccountForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Subscription, error)
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Subscription, error)
	ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	// FindDailyUsageForUpdate locks (creating when absent) the per-day
	// consumption row for a capped subscription.
	FindDailyUsageForUpdate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, day string, genID func() snowflake.ID) (*DailyUsage, error)
	UpdateDailyUsage(ctx context.Context, db *gorm.DB, usage *DailyUsage) error
}
