// Package domain contains prepaid grant models: CV packs (a fixed number of
// profile views with an expiry window) and trainer promotion slots.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type GrantStatus string

const (
	GrantStatusActive    GrantStatus = "active"
	GrantStatusExhausted GrantStatus = "exhausted"
	GrantStatusExpired   GrantStatus = "expired"
)

// Grant is a prepaid CV-pack bundle. ProfilesRemaining only decreases;
// reaching zero flips the grant to exhausted.
type Grant struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	AccountID         snowflake.ID `gorm:"not null;index"`
	CatalogID         snowflake.ID `gorm:"not null;index"`
	PurchaseID        snowflake.ID `gorm:"not null;uniqueIndex"`
	Status            GrantStatus  `gorm:"type:text;not null;index"`
	ProfilesRemaining int64        `gorm:"not null"`
	ExpiresAt         time.Time    `gorm:"not null"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Grant) TableName() string { return "pack_grants" }

// ExpiredAt reports whether the grant window has lapsed at the given instant.
func (g *Grant) ExpiredAt(now time.Time) bool {
	return g.Status == GrantStatusActive && g.ExpiresAt.Before(now)
}

// PromotionGrant entitles a trainer account to a number of concurrently
// active promotions until the window closes.
type PromotionGrant struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	AccountID      snowflake.ID `gorm:"not null;index"`
	CatalogID      snowflake.ID `gorm:"not null;index"`
	PurchaseID     snowflake.ID `gorm:"not null;uniqueIndex"`
	Status         GrantStatus  `gorm:"type:text;not null;index"`
	MaxActive      int          `gorm:"not null"`
	SlotsConsumed  int          `gorm:"not null;default:0"`
	ExpiresAt      time.Time    `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PromotionGrant) TableName() string { return "promotion_grants" }

// ExpiredAt reports whether the grant window has lapsed at the given instant.
func (g *PromotionGrant) ExpiredAt(now time.Time) bool {
	return g.Status == GrantStatusActive && g.ExpiresAt.Before(now)
}
