package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Account, error)
	// FindByIDForUpdate locks the account row for the duration of the
	// surrounding transaction, creating it with a zero balance when absent.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Account, error)
	UpdateBalance(ctx context.Context, db *gorm.DB, accountID snowflake.ID, balance int64) error
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) error
}
