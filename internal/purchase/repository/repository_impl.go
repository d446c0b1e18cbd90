package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() purchasedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, purchase *purchasedomain.Purchase) error {
	return db.WithContext(ctx).Create(purchase).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, purchase *purchasedomain.Purchase) error {
	return db.WithContext(ctx).Exec(
		`UPDATE purchases SET
			status = ?, payment_status = ?, proof_url = ?, admin_id = ?, admin_notes = ?,
			reason = ?, provider_transaction_id = ?, updated_at = ?, completed_at = ?, cancelled_at = ?
		WHERE id = ?`,
		purchase.Status,
		purchase.PaymentStatus,
		purchase.ProofURL,
		purchase.AdminID,
		purchase.AdminNotes,
		purchase.Reason,
		purchase.ProviderTransactionID,
		purchase.UpdatedAt,
		purchase.CompletedAt,
		purchase.CancelledAt,
		purchase.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*purchasedomain.Purchase, error) {
	return r.findOne(db.WithContext(ctx), "id = ?", id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*purchasedomain.Purchase, error) {
	return r.findOne(pkgdb.LockForUpdate(db.WithContext(ctx)), "id = ?", id)
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*purchasedomain.Purchase, error) {
	return r.findOne(db.WithContext(ctx), "payment_reference = ?", reference)
}

func (r *repo) FindByReferenceForUpdate(ctx context.Context, db *gorm.DB, reference string) (*purchasedomain.Purchase, error) {
	return r.findOne(pkgdb.LockForUpdate(db.WithContext(ctx)), "payment_reference = ?", reference)
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]purchasedomain.Purchase, error) {
	var purchases []purchasedomain.Purchase
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *repo) findOne(db *gorm.DB, query string, arg any) (*purchasedomain.Purchase, error) {
	var purchase purchasedomain.Purchase
	err := db.Where(query, arg).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}
