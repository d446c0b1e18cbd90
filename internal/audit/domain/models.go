// Package domain is the append-only audit trail for admin and webhook
// driven mutations.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrInvalidAction = errors.New("invalid_audit_action")

type ActorType string

const (
	ActorAdmin   ActorType = "admin"
	ActorWebhook ActorType = "webhook"
	ActorSystem  ActorType = "system"
)

type Entry struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	ActorType  ActorType      `gorm:"type:text;not null"`
	ActorID    snowflake.ID   `gorm:"index"`
	Action     string         `gorm:"type:text;not null;index"`
	TargetType string         `gorm:"type:text;not null"`
	TargetID   snowflake.ID   `gorm:"index"`
	Detail     datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "audit_entries" }

type ListRequest struct {
	Action   string
	TargetID snowflake.ID
	Limit    int
}

type Service interface {
	// Record appends one entry. Failures are logged, never propagated:
	// an audit write must not fail the mutation it describes.
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, req ListRequest) ([]Entry, error)
}
