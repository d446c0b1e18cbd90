// Package domain contains persistence models for account balances and the
// transaction log that records every mutation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TransactionType classifies a balance mutation. Credit types carry a
// positive amount, debit types a negative one.
type TransactionType string

const (
	TransactionTypeAdminAdd    TransactionType = "admin_add"
	TransactionTypeAdminRemove TransactionType = "admin_remove"
	TransactionTypePurchase    TransactionType = "purchase"
	TransactionTypeUsage       TransactionType = "usage"
	TransactionTypeBonus       TransactionType = "bonus"
)

// IsCredit reports whether the type increases the balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeAdminAdd, TransactionTypePurchase, TransactionTypeBonus:
		return true
	default:
		return false
	}
}

// IsValid reports whether the type is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeAdminAdd, TransactionTypeAdminRemove,
		TransactionTypePurchase, TransactionTypeUsage, TransactionTypeBonus:
		return true
	default:
		return false
	}
}

// Account holds the spendable credit balance for a platform account.
// Rows are provisioned lazily on first mutation and never hard-deleted.
type Account struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	CreditsBalance int64        `gorm:"not null;default:0"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Transaction is the immutable record of a single balance mutation.
// BalanceAfter = BalanceBefore + Amount always holds.
type Transaction struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	AccountID     snowflake.ID    `gorm:"not null;index"`
	Type          TransactionType `gorm:"type:text;not null"`
	Amount        int64           `gorm:"not null"`
	BalanceBefore int64           `gorm:"not null"`
	BalanceAfter  int64           `gorm:"not null"`
	Description   string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
