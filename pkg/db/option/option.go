// Package option provides composable query modifiers for gorm statements.
package option

import (
	"github.com/emploihub/emploihub/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyPagination applies a cursor-based page window. The statement fetches
// one row beyond the page size so callers can detect a next page.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := p.PageSize
		if size <= 0 {
			size = 20
		}
		if size > 250 {
			size = 250
		}

		if p.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(p.PageToken); err == nil && cursor.CreatedAt != "" {
				db = db.Where("created_at < ?", cursor.CreatedAt)
			}
		}

		return db.Limit(size + 1)
	})
}

// WithSortDesc orders results by the given column, newest first.
func WithSortDesc(column string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " DESC")
	})
}
