package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/internal/clock"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// ActivateTx implements domain.Service.
func (s *Service) ActivateTx(ctx context.Context, tx *gorm.DB, req subscriptiondomain.ActivateRequest) (*subscriptiondomain.Subscription, error) {
	if req.AccountID == 0 {
		return nil, subscriptiondomain.ErrInvalidAccount
	}
	if req.Config.DurationDays <= 0 {
		return nil, subscriptiondomain.ErrInvalidDuration
	}

	now := s.clock.Now()
	sub := &subscriptiondomain.Subscription{
		ID:         s.genID.Generate(),
		AccountID:  req.AccountID,
		CatalogID:  req.CatalogID,
		PurchaseID: req.PurchaseID,

		MonthlyCVQuota:       req.Config.MonthlyCVQuota,
		MonthlyMatchingQuota: req.Config.MonthlyMatchingQuota,
		UnlimitedCV:          req.Config.UnlimitedCV,
		UnlimitedMatching:    req.Config.UnlimitedMatching,
		DailyCVCap:           req.Config.DailyCVCap,
		DurationDays:         req.Config.DurationDays,

		PeriodStart: monthStart(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Config.RequiresApproval {
		sub.Status = subscriptiondomain.StatusPending
	} else {
		sub.Status = subscriptiondomain.StatusActive
		start := now
		end := now.AddDate(0, 0, req.Config.DurationDays)
		sub.StartAt = &start
		sub.EndAt = &end
	}

	if err := s.repo.Insert(ctx, tx, sub); err != nil {
		return nil, err
	}

	s.log.Info("subscription provisioned",
		zap.String("id", sub.ID.String()),
		zap.Int64("account_id", int64(sub.AccountID)),
		zap.String("status", string(sub.Status)),
	)
	return sub, nil
}

// Approve implements domain.Service.
func (s *Service) Approve(ctx context.Context, id snowflake.ID, adminID snowflake.ID, notes string) (*subscriptiondomain.Subscription, error) {
	sub, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscriptiondomain.StatusPending {
		return nil, subscriptiondomain.ErrNotPending
	}

	now := s.clock.Now()
	end := now.AddDate(0, 0, sub.DurationDays)
	sub.Status = subscriptiondomain.StatusActive
	sub.StartAt = &now
	sub.EndAt = &end
	sub.PeriodStart = monthStart(now)
	sub.AdminNotes = strings.TrimSpace(notes)
	sub.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.log.Info("subscription approved",
		zap.String("id", sub.ID.String()),
		zap.Int64("admin_id", int64(adminID)),
	)
	return sub, nil
}

// Reject implements domain.Service.
func (s *Service) Reject(ctx context.Context, id snowflake.ID, reason string) (*subscriptiondomain.Subscription, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, subscriptiondomain.ErrReasonRequired
	}

	sub, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscriptiondomain.StatusPending {
		return nil, subscriptiondomain.ErrNotPending
	}

	sub.Status = subscriptiondomain.StatusRejected
	sub.Reason = strings.TrimSpace(reason)
	sub.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel implements domain.Service.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason string) (*subscriptiondomain.Subscription, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, subscriptiondomain.ErrReasonRequired
	}

	sub, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return nil, subscriptiondomain.ErrAlreadyTerminal
	}

	sub.Status = subscriptiondomain.StatusCancelled
	sub.Reason = strings.TrimSpace(reason)
	sub.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetByID implements domain.Service.
func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.lazyExpire(ctx, s.db, sub)
}

// GetActiveByAccount implements domain.Service.
func (s *Service) GetActiveByAccount(ctx context.Context, accountID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if accountID == 0 {
		return nil, subscriptiondomain.ErrInvalidAccount
	}

	sub, err := s.repo.FindActiveByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	sub, err = s.lazyExpire(ctx, s.db, sub)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscriptiondomain.StatusActive {
		return nil, nil
	}
	return sub, nil
}

// ListByAccount implements domain.Service.
func (s *Service) ListByAccount(ctx context.Context, accountID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	if accountID == 0 {
		return nil, subscriptiondomain.ErrInvalidAccount
	}

	subs, err := s.repo.ListByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for i := range subs {
		if subs[i].ExpiredAt(now) {
			subs[i].Status = subscriptiondomain.StatusExpired
		}
	}
	return subs, nil
}

// TryConsumeTx implements domain.Service.
func (s *Service) TryConsumeTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, feature subscriptiondomain.Feature, count int64) (subscriptiondomain.ConsumeResult, error) {
	if count <= 0 {
		return subscriptiondomain.ConsumeResult{}, subscriptiondomain.ErrInvalidAccount
	}

	sub, err := s.repo.FindActiveByAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return subscriptiondomain.ConsumeResult{}, err
	}
	if sub == nil {
		return subscriptiondomain.ConsumeResult{Handled: false}, nil
	}

	now := s.clock.Now()
	if sub.ExpiredAt(now) {
		sub.Status = subscriptiondomain.StatusExpired
		sub.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return subscriptiondomain.ConsumeResult{}, err
		}
		return subscriptiondomain.ConsumeResult{Handled: false}, nil
	}

	s.rollPeriod(sub, now)

	result := subscriptiondomain.ConsumeResult{
		Handled:        true,
		SubscriptionID: sub.ID,
	}

	switch feature {
	case subscriptiondomain.FeatureCVView:
		// Check the monthly quota before touching the daily counter so a
		// denied request leaves no consumption behind.
		if !sub.UnlimitedCV && sub.CVConsumed+count > sub.MonthlyCVQuota {
			result.Allowed = false
			result.Reason = "quota_exceeded"
			result.Remaining = sub.MonthlyCVQuota - sub.CVConsumed
			return result, nil
		}
		if sub.DailyCVCap > 0 {
			allowed, err := s.consumeDailyCap(ctx, tx, sub, count, now)
			if err != nil {
				return subscriptiondomain.ConsumeResult{}, err
			}
			if !allowed {
				result.Allowed = false
				result.Reason = "quota_exceeded"
				return result, nil
			}
		}
		if !sub.UnlimitedCV {
			sub.CVConsumed += count
			result.Remaining = sub.MonthlyCVQuota - sub.CVConsumed
		} else {
			result.Remaining = -1
		}
	case subscriptiondomain.FeatureMatchingAI:
		if !sub.UnlimitedMatching {
			if sub.MatchingConsumed+count > sub.MonthlyMatchingQuota {
				result.Allowed = false
				result.Reason = "quota_exceeded"
				result.Remaining = sub.MonthlyMatchingQuota - sub.MatchingConsumed
				return result, nil
			}
			sub.MatchingConsumed += count
			result.Remaining = sub.MonthlyMatchingQuota - sub.MatchingConsumed
		} else {
			result.Remaining = -1
		}
	default:
		// Feature not covered by subscriptions; fall through to other sources.
		return subscriptiondomain.ConsumeResult{Handled: false}, nil
	}

	sub.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, sub); err != nil {
		return subscriptiondomain.ConsumeResult{}, err
	}

	result.Allowed = true
	return result, nil
}

// ExpireDue implements domain.Service.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireDue(ctx, s.db, now)
}

func (s *Service) consumeDailyCap(ctx context.Context, tx *gorm.DB, sub *subscriptiondomain.Subscription, count int64, now time.Time) (bool, error) {
	usage, err := s.repo.FindDailyUsageForUpdate(ctx, tx, sub.ID, subscriptiondomain.DayKey(now), s.genID.Generate)
	if err != nil {
		return false, err
	}
	if usage.CVCount+count > sub.DailyCVCap {
		return false, nil
	}
	usage.CVCount += count
	return true, s.repo.UpdateDailyUsage(ctx, tx, usage)
}

// rollPeriod zeroes the monthly counters when the calendar month has rolled
// past the recorded period anchor.
func (s *Service) rollPeriod(sub *subscriptiondomain.Subscription, now time.Time) {
	current := monthStart(now)
	if sub.PeriodStart.Before(current) {
		sub.PeriodStart = current
		sub.CVConsumed = 0
		sub.MatchingConsumed = 0
	}
}

func (s *Service) getExisting(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrNotFound
	}
	return sub, nil
}

// lazyExpire persists the expired flip for rows whose window already lapsed.
func (s *Service) lazyExpire(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) (*subscriptiondomain.Subscription, error) {
	now := s.clock.Now()
	if !sub.ExpiredAt(now) {
		return sub, nil
	}
	sub.Status = subscriptiondomain.StatusExpired
	sub.UpdatedAt = now
	if err := s.repo.Update(ctx, db, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
