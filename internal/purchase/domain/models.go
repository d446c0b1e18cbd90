// Package domain contains the purchase ledger: every catalog checkout and
// the state machine it moves through until money is reconciled.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusWaitingProof Status = "waiting_proof"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusRejected     Status = "rejected"
)

// IsTerminal reports whether the purchase can no longer transition.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodOrangeMoney  PaymentMethod = "orange_money"
	MethodMTNMoMo      PaymentMethod = "mtn_momo"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodOrangeMoney, MethodMTNMoMo, MethodBankTransfer:
		return true
	}
	return false
}

// Purchase is one ledger entry. Status transitions are monotonic: the only
// exits from a terminal state are none.
type Purchase struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	CatalogID snowflake.ID `gorm:"not null;index"`

	Kind     catalogdomain.Kind `gorm:"type:text;not null"`
	Amount   int64              `gorm:"not null"`
	Currency string             `gorm:"type:text;not null"`

	PaymentMethod    PaymentMethod `gorm:"type:text;not null"`
	PaymentReference string        `gorm:"type:text;not null;uniqueIndex"`
	PaymentStatus    PaymentStatus `gorm:"type:text;not null"`

	Status     Status `gorm:"type:text;not null;index"`
	ProofURL   string `gorm:"type:text"`
	AdminID    snowflake.ID
	AdminNotes string `gorm:"type:text"`
	Reason     string `gorm:"type:text"`

	ProviderTransactionID string `gorm:"type:text;index"`

	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// TableName sets the database table name.
func (Purchase) TableName() string { return "purchases" }
