// Package domain keeps the recruiter's candidate cart as append-only
// history: an item is live until removed or converted, then immutable.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ExperienceLevel string

const (
	LevelJunior       ExperienceLevel = "junior"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelSenior       ExperienceLevel = "senior"
)

func (l ExperienceLevel) IsValid() bool {
	switch l {
	case LevelJunior, LevelIntermediate, LevelSenior:
		return true
	}
	return false
}

type Item struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	RecruiterID snowflake.ID `gorm:"not null;index:idx_cart_recruiter"`
	CandidateID snowflake.ID `gorm:"not null;index"`

	PriceAtSelection int64           `gorm:"not null"`
	ExperienceLevel  ExperienceLevel `gorm:"type:text;not null"`

	AddedAt             time.Time `gorm:"not null"`
	RemovedAt           *time.Time
	ConvertedToPurchase bool         `gorm:"not null;default:false"`
	PurchaseID          snowflake.ID `gorm:"index"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "cart_items" }

// Live reports whether the item is still in the cart.
func (i *Item) Live() bool {
	return i.RemovedAt == nil && !i.ConvertedToPurchase
}
