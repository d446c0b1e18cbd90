package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"gorm.io/gorm"
)

// Feature identifies a quota-limited subscription feature.
type Feature string

const (
	FeatureCVView     Feature = "cv_view"
	FeatureMatchingAI Feature = "matching_ai"
)

// ConsumeResult reports the outcome of a consumption attempt against an
// active subscription.
type ConsumeResult struct {
	// Handled is false when the account has no active subscription; the
	// caller then falls through to packs and pay-per-use credits.
	Handled   bool
	Allowed   bool
	Reason    string
	Remaining int64
	SubscriptionID snowflake.ID
}

type ActivateRequest struct {
	AccountID  snowflake.ID
	CatalogID  snowflake.ID
	PurchaseID snowflake.ID
	Config     catalogdomain.EnterpriseConfig
}

type Service interface {
	// ActivateTx provisions the subscription for a completed purchase
	// inside the caller's transaction. Packs flagged requires_approval
	// start pending and get their window on approval.
	ActivateTx(ctx context.Context, tx *gorm.DB, req ActivateRequest) (*Subscription, error)
	Approve(ctx context.Context, id snowflake.ID, adminID snowflake.ID, notes string) (*Subscription, error)
	Reject(ctx context.Context, id snowflake.ID, reason string) (*Subscription, error)
	Cancel(ctx context.Context, id snowflake.ID, reason string) (*Subscription, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Subscription, error)
	// GetActiveByAccount resolves the account's active subscription,
	// applying lazy expiry before answering.
	GetActiveByAccount(ctx context.Context, accountID snowflake.ID) (*Subscription, error)
	ListByAccount(ctx context.Context, accountID snowflake.ID) ([]Subscription, error)
	// TryConsumeTx atomically checks the monthly quota (and daily cap) and
	// increments the matching counter inside the caller's transaction.
	TryConsumeTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, feature Feature, count int64) (ConsumeResult, error)
	// ExpireDue flips every active subscription whose window has passed.
	// Idempotent; shared by the sweep and safe concurrent with traffic.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
