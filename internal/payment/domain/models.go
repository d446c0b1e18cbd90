// Package domain reconciles external mobile-money confirmations with the
// purchase ledger. Providers push signed webhooks; each event is recorded
// once and drives at most one ledger transition.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Provider string

const (
	ProviderOrangeMoney Provider = "orange_money"
	ProviderMTNMoMo     Provider = "mtn_momo"
)

func (p Provider) IsValid() bool {
	switch p {
	case ProviderOrangeMoney, ProviderMTNMoMo:
		return true
	}
	return false
}

type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailed  EventStatus = "failed"
)

// Event is a provider confirmation normalized by the provider adapter.
type Event struct {
	Provider              Provider
	ProviderTransactionID string
	PaymentReference      string
	Amount                int64
	Currency              string
	Status                EventStatus
}

// EventRecord is the processed-webhook journal. The unique index on
// (provider, provider_transaction_id) is what makes replays no-ops.
type EventRecord struct {
	ID                    snowflake.ID   `gorm:"primaryKey"`
	Provider              Provider       `gorm:"type:text;not null;uniqueIndex:idx_payment_provider_txn"`
	ProviderTransactionID string         `gorm:"type:text;not null;uniqueIndex:idx_payment_provider_txn"`
	PaymentReference      string         `gorm:"type:text;not null;index"`
	Status                EventStatus    `gorm:"type:text;not null"`
	Payload               datatypes.JSON `gorm:"type:json"`
	ReceivedAt            time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }
