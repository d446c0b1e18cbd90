// Package domain contains the purchasable catalog: credit packages, CV packs,
// enterprise packs and promotion packs. Each kind carries a typed
// configuration validated at the boundary.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind discriminates the catalog entry variants.
type Kind string

const (
	KindCreditPackage  Kind = "credit_package"
	KindCVPack         Kind = "cv_pack"
	KindEnterprisePack Kind = "enterprise_pack"
	KindPromotionPack  Kind = "promotion_pack"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindCreditPackage, KindCVPack, KindEnterprisePack, KindPromotionPack:
		return true
	default:
		return false
	}
}

// Entry is a purchasable catalog item. Entries referenced by purchases are
// deactivated, never deleted.
type Entry struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	Kind         Kind           `gorm:"type:text;not null;index"`
	Name         string         `gorm:"type:text;not null"`
	Description  string         `gorm:"type:text"`
	Price        int64          `gorm:"not null"`
	Currency     string         `gorm:"type:text;not null;default:'XOF'"`
	Active       bool           `gorm:"not null;default:true"`
	DisplayOrder int            `gorm:"not null;default:0"`
	Config       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "catalog_entries" }

// CreditConfig is the payload for credit_package entries.
type CreditConfig struct {
	Credits      int64 `json:"credits"`
	BonusCredits int64 `json:"bonus_credits"`
}

// CVPackConfig is the payload for cv_pack entries: a prepaid bundle of
// profile views with an expiry window.
type CVPackConfig struct {
	ProfileQuota int64 `json:"profile_quota"`
	DurationDays int   `json:"duration_days"`
}

// EnterpriseConfig is the payload for enterprise_pack entries. Monthly
// quotas of zero with the matching Unlimited flag mean no ceiling.
type EnterpriseConfig struct {
	MonthlyCVQuota       int64 `json:"monthly_cv_quota"`
	MonthlyMatchingQuota int64 `json:"monthly_matching_quota"`
	UnlimitedCV          bool  `json:"unlimited_cv"`
	UnlimitedMatching    bool  `json:"unlimited_matching"`
	DailyCVCap           int64 `json:"daily_cv_cap"`
	DurationDays         int   `json:"duration_days"`
	RequiresApproval     bool  `json:"requires_approval"`
}

// PromotionConfig is the payload for promotion_pack entries (trainer
// promotions).
type PromotionConfig struct {
	MaxActivePromotions int `json:"max_active_promotions"`
	DurationDays        int `json:"duration_days"`
}

// CreditConfig decodes the entry config as a credit package payload.
func (e *Entry) CreditConfig() (CreditConfig, error) {
	if e.Kind != KindCreditPackage {
		return CreditConfig{}, ErrInvalidKind
	}
	var cfg CreditConfig
	if err := json.Unmarshal(e.Config, &cfg); err != nil {
		return CreditConfig{}, ErrInvalidConfig
	}
	return cfg, nil
}

// CVPackConfig decodes the entry config as a CV pack payload.
func (e *Entry) CVPackConfig() (CVPackConfig, error) {
	if e.Kind != KindCVPack {
		return CVPackConfig{}, ErrInvalidKind
	}
	var cfg CVPackConfig
	if err := json.Unmarshal(e.Config, &cfg); err != nil {
		return CVPackConfig{}, ErrInvalidConfig
	}
	return cfg, nil
}

// EnterpriseConfig decodes the entry config as an enterprise pack payload.
func (e *Entry) EnterpriseConfig() (EnterpriseConfig, error) {
	if e.Kind != KindEnterprisePack {
		return EnterpriseConfig{}, ErrInvalidKind
	}
	var cfg EnterpriseConfig
	if err := json.Unmarshal(e.Config, &cfg); err != nil {
		return EnterpriseConfig{}, ErrInvalidConfig
	}
	return cfg, nil
}

// PromotionConfig decodes the entry config as a promotion pack payload.
func (e *Entry) PromotionConfig() (PromotionConfig, error) {
	if e.Kind != KindPromotionPack {
		return PromotionConfig{}, ErrInvalidKind
	}
	var cfg PromotionConfig
	if err := json.Unmarshal(e.Config, &cfg); err != nil {
		return PromotionConfig{}, ErrInvalidConfig
	}
	return cfg, nil
}

// ValidateConfig checks the raw config payload against the entry kind.
func ValidateConfig(kind Kind, raw json.RawMessage) error {
	switch kind {
	case KindCreditPackage:
		var cfg CreditConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return ErrInvalidConfig
		}
		if cfg.Credits <= 0 || cfg.BonusCredits < 0 {
			return ErrInvalidConfig
		}
	case KindCVPack:
		var cfg CVPackConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return ErrInvalidConfig
		}
		if cfg.ProfileQuota <= 0 || cfg.DurationDays <= 0 {
			return ErrInvalidConfig
		}
	case KindEnterprisePack:
		var cfg EnterpriseConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return ErrInvalidConfig
		}
		if cfg.DurationDays <= 0 {
			return ErrInvalidConfig
		}
		if !cfg.UnlimitedCV && cfg.MonthlyCVQuota <= 0 {
			return ErrInvalidConfig
		}
		if !cfg.UnlimitedMatching && cfg.MonthlyMatchingQuota < 0 {
			return ErrInvalidConfig
		}
		if cfg.DailyCVCap < 0 {
			return ErrInvalidConfig
		}
	case KindPromotionPack:
		var cfg PromotionConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return ErrInvalidConfig
		}
		if cfg.MaxActivePromotions <= 0 || cfg.DurationDays <= 0 {
			return ErrInvalidConfig
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

func strictUnmarshal(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return ErrInvalidConfig
	}
	return json.Unmarshal(raw, target)
}
