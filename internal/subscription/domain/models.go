// Package domain contains persistence models for enterprise subscriptions
// and their quota counters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents lifecycle states for a subscription.
type Status string

const (
	// StatusPending marks subscriptions awaiting manual validation.
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Subscription captures an account's enterprise entitlement window and
// monthly consumption counters. Counters reset when the calendar month
// rolls past PeriodStart.
type Subscription struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID snowflake.ID `gorm:"not null;index"`
	CatalogID snowflake.ID `gorm:"not null;index"`
	PurchaseID snowflake.ID `gorm:"not null;uniqueIndex"`
	Status    Status       `gorm:"type:text;not null;index"`

	StartAt *time.Time `gorm:""`
	EndAt   *time.Time `gorm:""`

	MonthlyCVQuota       int64 `gorm:"not null;default:0"`
	MonthlyMatchingQuota int64 `gorm:"not null;default:0"`
	UnlimitedCV          bool  `gorm:"not null;default:false"`
	UnlimitedMatching    bool  `gorm:"not null;default:false"`
	DailyCVCap           int64 `gorm:"not null;default:0"`
	DurationDays         int   `gorm:"not null;default:30"`

	CVConsumed       int64     `gorm:"not null;default:0"`
	MatchingConsumed int64     `gorm:"not null;default:0"`
	PeriodStart      time.Time `gorm:"not null"`

	AdminNotes string `gorm:"type:text"`
	Reason     string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// ExpiredAt reports whether the subscription window has lapsed at the given
// instant. Read paths treat such rows as expired before persisting the flip.
func (s *Subscription) ExpiredAt(now time.Time) bool {
	return s.Status == StatusActive && s.EndAt != nil && s.EndAt.Before(now)
}

// DailyUsage tracks per-day CV consumption for subscriptions with a daily cap.
type DailyUsage struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SubscriptionID snowflake.ID `gorm:"not null;uniqueIndex:ux_daily_usage_sub_day,priority:1"`
	Day            string       `gorm:"type:text;not null;uniqueIndex:ux_daily_usage_sub_day,priority:2"`
	CVCount        int64        `gorm:"not null;default:0"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DailyUsage) TableName() string { return "subscription_daily_usage" }

// DayKey formats the calendar-day bucket used by DailyUsage rows.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
