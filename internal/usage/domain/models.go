// Package domain records feature consumption events. Events are append-only
// and name the source that paid for the usage.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Source identifies which entitlement covered a usage event.
type Source string

const (
	SourceSubscription Source = "subscription"
	SourcePack         Source = "pack"
	SourceCredits      Source = "credits"
)

type FeatureType string

const (
	FeatureCVView     FeatureType = "cv_view"
	FeatureMatchingAI FeatureType = "matching_ai"
	FeatureExport     FeatureType = "export"
	FeaturePromotion  FeatureType = "promotion"
)

// IsValid reports whether the feature type is one the platform meters.
func (f FeatureType) IsValid() bool {
	switch f {
	case FeatureCVView, FeatureMatchingAI, FeatureExport, FeaturePromotion:
		return true
	}
	return false
}

// Event is one metered consumption of a feature.
type Event struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	AccountID   snowflake.ID   `gorm:"not null;index:idx_usage_account_used"`
	FeatureType FeatureType    `gorm:"type:text;not null;index"`
	Count       int64          `gorm:"not null"`
	Source      Source         `gorm:"type:text;not null"`
	SourceID    snowflake.ID   `gorm:"index"`
	Metadata    datatypes.JSON `gorm:"type:json"`
	UsedAt      time.Time      `gorm:"not null;index:idx_usage_account_used"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "usage_events" }
