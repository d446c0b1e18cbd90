package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() packdomain.Repository {
	return &repo{}
}

func (r *repo) InsertGrant(ctx context.Context, db *gorm.DB, grant *packdomain.Grant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pack_grants (
			id, account_id, catalog_id, purchase_id, status, profiles_remaining, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		grant.ID,
		grant.AccountID,
		grant.CatalogID,
		grant.PurchaseID,
		grant.Status,
		grant.ProfilesRemaining,
		grant.ExpiresAt,
		grant.CreatedAt,
		grant.UpdatedAt,
	).Error
}

func (r *repo) UpdateGrant(ctx context.Context, db *gorm.DB, grant *packdomain.Grant) error {
	return db.WithContext(ctx).Exec(
		`UPDATE pack_grants SET status = ?, profiles_remaining = ?, updated_at = ? WHERE id = ?`,
		grant.Status,
		grant.ProfilesRemaining,
		grant.UpdatedAt,
		grant.ID,
	).Error
}

func (r *repo) FindUsableGrantsForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, now time.Time) ([]packdomain.Grant, error) {
	var grants []packdomain.Grant
	err := pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("account_id = ? AND status = ? AND profiles_remaining > 0 AND expires_at >= ?",
			accountID, packdomain.GrantStatusActive, now).
		Order("expires_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repo) ListGrantsByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]packdomain.Grant, error) {
	var grants []packdomain.Grant
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&grants).Error
	return grants, err
}

func (r *repo) ExpireDueGrants(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE pack_grants SET status = ?, updated_at = ? WHERE status = ? AND expires_at < ?`,
		packdomain.GrantStatusExpired,
		now,
		packdomain.GrantStatusActive,
		now,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertPromotionGrant(ctx context.Context, db *gorm.DB, grant *packdomain.PromotionGrant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO promotion_grants (
			id, account_id, catalog_id, purchase_id, status, max_active, slots_consumed, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		grant.ID,
		grant.AccountID,
		grant.CatalogID,
		grant.PurchaseID,
		grant.Status,
		grant.MaxActive,
		grant.SlotsConsumed,
		grant.ExpiresAt,
		grant.CreatedAt,
		grant.UpdatedAt,
	).Error
}

func (r *repo) UpdatePromotionGrant(ctx context.Context, db *gorm.DB, grant *packdomain.PromotionGrant) error {
	return db.WithContext(ctx).Exec(
		`UPDATE promotion_grants SET status = ?, slots_consumed = ?, updated_at = ? WHERE id = ?`,
		grant.Status,
		grant.SlotsConsumed,
		grant.UpdatedAt,
		grant.ID,
	).Error
}

func (r *repo) FindUsablePromotionGrantForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, now time.Time) (*packdomain.PromotionGrant, error) {
	var grant packdomain.PromotionGrant
	err := pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("account_id = ? AND status = ? AND expires_at >= ?",
			accountID, packdomain.GrantStatusActive, now).
		Order("expires_at ASC").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repo) ExpireDuePromotionGrants(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE promotion_grants SET status = ?, updated_at = ? WHERE status = ? AND expires_at < ?`,
		packdomain.GrantStatusExpired,
		now,
		packdomain.GrantStatusActive,
		now,
	)
	return result.RowsAffected, result.Error
}
