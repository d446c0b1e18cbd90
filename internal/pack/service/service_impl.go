package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/internal/clock"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
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
	Repo  packdomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  packdomain.Repository
}

func NewService(p ServiceParam) packdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("pack.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// GrantCVPackTx implements domain.Service.
func (s *Service) GrantCVPackTx(ctx context.Context, tx *gorm.DB, req packdomain.GrantCVPackRequest) (*packdomain.Grant, error) {
	if req.AccountID == 0 {
		return nil, packdomain.ErrInvalidAccount
	}
	if req.Config.ProfileQuota <= 0 || req.Config.DurationDays <= 0 {
		return nil, packdomain.ErrInvalidQuota
	}

	now := s.clock.Now()
	grant := &packdomain.Grant{
		ID:                s.genID.Generate(),
		AccountID:         req.AccountID,
		CatalogID:         req.CatalogID,
		PurchaseID:        req.PurchaseID,
		Status:            packdomain.GrantStatusActive,
		ProfilesRemaining: req.Config.ProfileQuota,
		ExpiresAt:         now.AddDate(0, 0, req.Config.DurationDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.InsertGrant(ctx, tx, grant); err != nil {
		return nil, err
	}

	s.log.Info("cv pack granted",
		zap.Int64("account_id", req.AccountID.Int64()),
		zap.Int64("purchase_id", req.PurchaseID.Int64()),
		zap.Int64("profile_quota", req.Config.ProfileQuota),
	)

	return grant, nil
}

// GrantPromotionTx implements domain.Service.
func (s *Service) GrantPromotionTx(ctx context.Context, tx *gorm.DB, req packdomain.GrantPromotionRequest) (*packdomain.PromotionGrant, error) {
	if req.AccountID == 0 {
		return nil, packdomain.ErrInvalidAccount
	}
	if req.Config.MaxActivePromotions <= 0 || req.Config.DurationDays <= 0 {
		return nil, packdomain.ErrInvalidQuota
	}

	now := s.clock.Now()
	grant := &packdomain.PromotionGrant{
		ID:         s.genID.Generate(),
		AccountID:  req.AccountID,
		CatalogID:  req.CatalogID,
		PurchaseID: req.PurchaseID,
		Status:     packdomain.GrantStatusActive,
		MaxActive:  req.Config.MaxActivePromotions,
		ExpiresAt:  now.AddDate(0, 0, req.Config.DurationDays),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertPromotionGrant(ctx, tx, grant); err != nil {
		return nil, err
	}

	return grant, nil
}

// TryConsumeTx implements domain.Service.
func (s *Service) TryConsumeTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, count int64) (packdomain.ConsumeResult, error) {
	if accountID == 0 {
		return packdomain.ConsumeResult{}, packdomain.ErrInvalidAccount
	}
	if count <= 0 {
		return packdomain.ConsumeResult{}, packdomain.ErrInvalidQuota
	}

	now := s.clock.Now()
	grants, err := s.repo.FindUsableGrantsForUpdate(ctx, tx, accountID, now)
	if err != nil {
		return packdomain.ConsumeResult{}, err
	}
	if len(grants) == 0 {
		return packdomain.ConsumeResult{}, nil
	}

	var total int64
	for i := range grants {
		total += grants[i].ProfilesRemaining
	}
	if total < count {
		return packdomain.ConsumeResult{Handled: true, GrantID: grants[0].ID, Remaining: total}, nil
	}

	// Drain the earliest-expiring grants first; a single consumption may
	// span several of them.
	left := count
	for i := range grants {
		if left == 0 {
			break
		}
		grant := &grants[i]
		take := grant.ProfilesRemaining
		if take > left {
			take = left
		}
		grant.ProfilesRemaining -= take
		if grant.ProfilesRemaining == 0 {
			grant.Status = packdomain.GrantStatusExhausted
		}
		grant.UpdatedAt = now
		if err := s.repo.UpdateGrant(ctx, tx, grant); err != nil {
			return packdomain.ConsumeResult{}, err
		}
		left -= take
	}

	return packdomain.ConsumeResult{
		Handled:   true,
		Allowed:   true,
		Remaining: total - count,
		GrantID:   grants[0].ID,
	}, nil
}

// TryConsumePromotionTx implements domain.Service.
func (s *Service) TryConsumePromotionTx(ctx context.Context, tx *gorm.DB, accountID snowflake.ID, count int64) (packdomain.ConsumeResult, error) {
	if accountID == 0 {
		return packdomain.ConsumeResult{}, packdomain.ErrInvalidAccount
	}
	if count <= 0 {
		return packdomain.ConsumeResult{}, packdomain.ErrInvalidQuota
	}

	now := s.clock.Now()
	grant, err := s.repo.FindUsablePromotionGrantForUpdate(ctx, tx, accountID, now)
	if err != nil {
		return packdomain.ConsumeResult{}, err
	}
	if grant == nil {
		return packdomain.ConsumeResult{}, nil
	}

	remaining := int64(grant.MaxActive - grant.SlotsConsumed)
	if remaining < count {
		return packdomain.ConsumeResult{Handled: true, GrantID: grant.ID, Remaining: remaining}, nil
	}

	grant.SlotsConsumed += int(count)
	grant.UpdatedAt = now
	if err := s.repo.UpdatePromotionGrant(ctx, tx, grant); err != nil {
		return packdomain.ConsumeResult{}, err
	}

	return packdomain.ConsumeResult{
		Handled:   true,
		Allowed:   true,
		Remaining: int64(grant.MaxActive - grant.SlotsConsumed),
		GrantID:   grant.ID,
	}, nil
}

// ListByAccount implements domain.Service.
func (s *Service) ListByAccount(ctx context.Context, accountID snowflake.ID) ([]packdomain.Grant, error) {
	if accountID == 0 {
		return nil, packdomain.ErrInvalidAccount
	}
	return s.repo.ListGrantsByAccount(ctx, s.db, accountID)
}

// ExpireDue implements domain.Service.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.ExpireDueGrants(ctx, tx, now)
		if err != nil {
			return err
		}
		m, err := s.repo.ExpireDuePromotionGrants(ctx, tx, now)
		if err != nil {
			return err
		}
		total = n + m
		return nil
	})
	if err != nil {
		return 0, err
	}
	if total > 0 {
		s.log.Info("pack grants expired", zap.Int64("count", total))
	}
	return total, nil
}
