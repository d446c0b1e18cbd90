package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, account_id, catalog_id, purchase_id, status, start_at, end_at,
			monthly_cv_quota, monthly_matching_quota, unlimited_cv, unlimited_matching,
			daily_cv_cap, duration_days, cv_consumed, matching_consumed, period_start,
			admin_notes, reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.AccountID,
		sub.CatalogID,
		sub.PurchaseID,
		sub.Status,
		sub.StartAt,
		sub.EndAt,
		sub.MonthlyCVQuota,
		sub.MonthlyMatchingQuota,
		sub.UnlimitedCV,
		sub.UnlimitedMatching,
		sub.DailyCVCap,
		sub.DurationDays,
		sub.CVConsumed,
		sub.MatchingConsumed,
		sub.PeriodStart,
		sub.AdminNotes,
		sub.Reason,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			status = ?, start_at = ?, end_at = ?, cv_consumed = ?, matching_consumed = ?,
			period_start = ?, admin_notes = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		sub.Status,
		sub.StartAt,
		sub.EndAt,
		sub.CVConsumed,
		sub.MatchingConsumed,
		sub.PeriodStart,
		sub.AdminNotes,
		sub.Reason,
		sub.UpdatedAt,
		sub.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindActiveByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findActive(ctx, db, accountID, false)
}

func (r *repo) FindActiveByAccountForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findActive(ctx, db, accountID, true)
}

func (r *repo) findActive(ctx context.Context, db *gorm.DB, accountID snowflake.ID, forUpdate bool) (*subscriptiondomain.Subscription, error) {
	stmt := db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, subscriptiondomain.StatusActive).
		Order("created_at DESC")
	if forUpdate {
		stmt = pkgdb.LockForUpdate(stmt)
	}

	var sub subscriptiondomain.Subscription
	err := stmt.First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var subs []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *repo) ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, updated_at = ?
		 WHERE status = ? AND end_at IS NOT NULL AND end_at < ?`,
		subscriptiondomain.StatusExpired,
		now,
		subscriptiondomain.StatusActive,
		now,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindDailyUsageForUpdate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, day string, genID func() snowflake.ID) (*subscriptiondomain.DailyUsage, error) {
	var usage subscriptiondomain.DailyUsage
	err := pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("subscription_id = ? AND day = ?", subscriptionID, day).
		First(&usage).Error
	if err == nil {
		return &usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	usage = subscriptiondomain.DailyUsage{
		ID:             genID(),
		SubscriptionID: subscriptionID,
		Day:            day,
		CVCount:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&usage).Error; err != nil {
		return nil, err
	}

	err = pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("subscription_id = ? AND day = ?", subscriptionID, day).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *repo) UpdateDailyUsage(ctx context.Context, db *gorm.DB, usage *subscriptiondomain.DailyUsage) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_daily_usage SET cv_count = ?, updated_at = ? WHERE id = ?`,
		usage.CVCount,
		time.Now().UTC(),
		usage.ID,
	).Error
}
