package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() balancedomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*balancedomain.Account, error) {
	var account balancedomain.Account
	err := db.WithContext(ctx).
		Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*balancedomain.Account, error) {
	var account balancedomain.Account
	err := pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("id = ?", accountID).
		First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account = balancedomain.Account{
		ID:             accountID,
		CreditsBalance: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&account).Error; err != nil {
		return nil, err
	}

	// Re-read under lock; the insert may have lost a race with another writer.
	err = pkgdb.LockForUpdate(db.WithContext(ctx)).
		Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, accountID snowflake.ID, balance int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET credits_balance = ?, updated_at = ? WHERE id = ?`,
		balance,
		time.Now().UTC(),
		accountID,
	).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *balancedomain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (
			id, account_id, type, amount, balance_before, balance_after, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.AccountID,
		txn.Type,
		txn.Amount,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.Description,
		txn.CreatedAt,
	).Error
}
