package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate applies a row-level write lock on dialects that support it.
// SQLite has a single writer and rejects the FOR UPDATE syntax, so the
// clause is skipped there; transaction scoping still serializes writes.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "sqlite", "sqlite3":
		return tx
	default:
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
}
