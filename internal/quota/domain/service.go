// Package domain decides whether an account may use a metered feature and
// charges the entitlement that covers it.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
)

var (
	ErrInvalidAccount = errors.New("invalid_quota_account")
	ErrInvalidFeature = errors.New("invalid_quota_feature")
	ErrInvalidCount   = errors.New("invalid_quota_count")
)

// Deny reasons returned on a disallowed check.
const (
	ReasonQuotaExceeded        = "quota_exceeded"
	ReasonNoActiveSubscription = "no_active_subscription"
	ReasonInsufficientCredits  = "insufficient_credits"
)

type CheckAndConsumeRequest struct {
	AccountID snowflake.ID
	Feature   usagedomain.FeatureType
	Count     int64
}

// Decision is the outcome of a check-and-consume call. When Allowed is
// true exactly one entitlement was charged and a usage event recorded;
// when false nothing was mutated.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`

	Source       usagedomain.Source `json:"source,omitempty"`
	SourceID     snowflake.ID       `json:"source_id,omitempty"`
	CreditsSpent int64              `json:"credits_spent,omitempty"`
	// Remaining is the entitlement left on the charged source after this
	// call. -1 means unlimited.
	Remaining int64 `json:"remaining"`
}

type Service interface {
	// CheckAndConsume resolves the account's entitlements in priority
	// order (active subscription, then prepaid packs, then pay-per-use
	// credits), charges the first one that covers the request, and
	// records a usage event — all in one transaction. A disallowed call
	// performs no mutation and carries a deny reason.
	CheckAndConsume(ctx context.Context, req CheckAndConsumeRequest) (Decision, error)
}
