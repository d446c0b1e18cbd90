package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *catalogdomain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO catalog_entries (
			id, kind, name, description, price, currency, active, display_order, config, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Kind,
		entry.Name,
		entry.Description,
		entry.Price,
		entry.Currency,
		entry.Active,
		entry.DisplayOrder,
		entry.Config,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entry *catalogdomain.Entry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE catalog_entries SET
			name = ?, description = ?, price = ?, display_order = ?, config = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		entry.Name,
		entry.Description,
		entry.Price,
		entry.DisplayOrder,
		entry.Config,
		entry.Active,
		entry.UpdatedAt,
		entry.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Entry, error) {
	var entry catalogdomain.Entry
	err := db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, kind catalogdomain.Kind, activeOnly bool) ([]catalogdomain.Entry, error) {
	stmt := db.WithContext(ctx).Model(&catalogdomain.Entry{})
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var entries []catalogdomain.Entry
	err := stmt.Order("display_order ASC, created_at ASC").Find(&entries).Error
	return entries, err
}
