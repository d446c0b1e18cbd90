package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, purchase *Purchase) error
	Update(ctx context.Context, db *gorm.DB, purchase *Purchase) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Purchase, error)
	// FindByIDForUpdate locks the row for the duration of the caller's
	// transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Purchase, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Purchase, error)
	FindByReferenceForUpdate(ctx context.Context, db *gorm.DB, reference string) (*Purchase, error)
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Purchase, error)
}
