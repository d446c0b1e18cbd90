package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	quotadomain "github.com/emploihub/emploihub/internal/quota/domain"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config

	Balance      balancedomain.Service
	Subscription subscriptiondomain.Service
	Pack         packdomain.Service
	Usage        usagedomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	costs config.QuotaConfig

	balance      balancedomain.Service
	subscription subscriptiondomain.Service
	pack         packdomain.Service
	usage        usagedomain.Service
}

func NewService(p ServiceParam) quotadomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("quota.service"),
		genID: p.GenID,
		clock: p.Clock,
		costs: p.Config.Quota,

		balance:      p.Balance,
		subscription: p.Subscription,
		pack:         p.Pack,
		usage:        p.Usage,
	}
}

// CheckAndConsume implements domain.Service.
func (s *Service) CheckAndConsume(ctx context.Context, req quotadomain.CheckAndConsumeRequest) (quotadomain.Decision, error) {
	if req.AccountID == 0 {
		return quotadomain.Decision{}, quotadomain.ErrInvalidAccount
	}
	if !req.Feature.IsValid() {
		return quotadomain.Decision{}, quotadomain.ErrInvalidFeature
	}
	if req.Count <= 0 {
		return quotadomain.Decision{}, quotadomain.ErrInvalidCount
	}

	var decision quotadomain.Decision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.resolve(ctx, tx, req)
		if err != nil {
			return err
		}
		decision = d

		if !d.Allowed {
			// No entitlement was charged; only lazy-expiry status flips
			// may commit alongside the deny.
			return nil
		}

		return s.usage.RecordTx(ctx, tx, &usagedomain.Event{
			ID:          s.genID.Generate(),
			AccountID:   req.AccountID,
			FeatureType: req.Feature,
			Count:       req.Count,
			Source:      d.Source,
			SourceID:    d.SourceID,
			UsedAt:      s.clock.Now(),
		})
	})
	if err != nil {
		return quotadomain.Decision{}, err
	}

	if !decision.Allowed {
		s.log.Info("usage denied",
			zap.Int64("account_id", req.AccountID.Int64()),
			zap.String("feature", string(req.Feature)),
			zap.String("reason", decision.Reason),
		)
	}
	return decision, nil
}

// resolve walks the entitlement chain for the feature. An active
// subscription is authoritative for the features it meters: when one
// exists, packs and credits are not consulted.
func (s *Service) resolve(ctx context.Context, tx *gorm.DB, req quotadomain.CheckAndConsumeRequest) (quotadomain.Decision, error) {
	switch req.Feature {
	case usagedomain.FeatureCVView:
		return s.resolveMetered(ctx, tx, req, subscriptiondomain.FeatureCVView, true, s.costs.CVViewCost)
	case usagedomain.FeatureMatchingAI:
		return s.resolveMetered(ctx, tx, req, subscriptiondomain.FeatureMatchingAI, false, s.costs.MatchingAICost)
	case usagedomain.FeatureExport:
		return s.debitCredits(ctx, tx, req, s.costs.ExportCost)
	case usagedomain.FeaturePromotion:
		return s.resolvePromotion(ctx, tx, req)
	}
	return quotadomain.Decision{}, quotadomain.ErrInvalidFeature
}

func (s *Service) resolveMetered(ctx context.Context, tx *gorm.DB, req quotadomain.CheckAndConsumeRequest, feature subscriptiondomain.Feature, packEligible bool, unitCost int64) (quotadomain.Decision, error) {
	sub, err := s.subscription.TryConsumeTx(ctx, tx, req.AccountID, feature, req.Count)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	if sub.Handled {
		if sub.Allowed {
			return quotadomain.Decision{
				Allowed:   true,
				Source:    usagedomain.SourceSubscription,
				SourceID:  sub.SubscriptionID,
				Remaining: sub.Remaining,
			}, nil
		}
		return quotadomain.Decision{Reason: sub.Reason}, nil
	}

	if packEligible {
		pack, err := s.pack.TryConsumeTx(ctx, tx, req.AccountID, req.Count)
		if err != nil {
			return quotadomain.Decision{}, err
		}
		if pack.Handled && pack.Allowed {
			return quotadomain.Decision{
				Allowed:   true,
				Source:    usagedomain.SourcePack,
				SourceID:  pack.GrantID,
				Remaining: pack.Remaining,
			}, nil
		}
	}

	return s.debitCredits(ctx, tx, req, unitCost)
}

func (s *Service) debitCredits(ctx context.Context, tx *gorm.DB, req quotadomain.CheckAndConsumeRequest, unitCost int64) (quotadomain.Decision, error) {
	cost := unitCost * req.Count
	txn, err := s.balance.ApplyTransactionTx(ctx, tx, balancedomain.ApplyTransactionRequest{
		AccountID:   req.AccountID,
		Type:        balancedomain.TransactionTypeUsage,
		Amount:      -cost,
		Description: fmt.Sprintf("%s x%d", req.Feature, req.Count),
	})
	if err != nil {
		if errors.Is(err, balancedomain.ErrInsufficientBalance) {
			return quotadomain.Decision{Reason: quotadomain.ReasonInsufficientCredits}, nil
		}
		return quotadomain.Decision{}, err
	}

	// The ledger entry carries the post-debit balance; reading it back
	// through a separate session would miss the uncommitted debit.
	return quotadomain.Decision{
		Allowed:      true,
		Source:       usagedomain.SourceCredits,
		CreditsSpent: cost,
		Remaining:    txn.BalanceAfter,
	}, nil
}

func (s *Service) resolvePromotion(ctx context.Context, tx *gorm.DB, req quotadomain.CheckAndConsumeRequest) (quotadomain.Decision, error) {
	res, err := s.pack.TryConsumePromotionTx(ctx, tx, req.AccountID, req.Count)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	if !res.Handled {
		return quotadomain.Decision{Reason: quotadomain.ReasonNoActiveSubscription}, nil
	}
	if !res.Allowed {
		return quotadomain.Decision{Reason: quotadomain.ReasonQuotaExceeded}, nil
	}
	return quotadomain.Decision{
		Allowed:   true,
		Source:    usagedomain.SourcePack,
		SourceID:  res.GrantID,
		Remaining: res.Remaining,
	}, nil
}
