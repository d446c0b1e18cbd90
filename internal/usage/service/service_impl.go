package service

import (
	"context"

	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),
	}
}

// RecordTx implements domain.Service.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, event *usagedomain.Event) error {
	if event.AccountID == 0 {
		return usagedomain.ErrInvalidAccount
	}
	if !event.FeatureType.IsValid() {
		return usagedomain.ErrInvalidFeature
	}
	if event.Count <= 0 {
		return usagedomain.ErrInvalidCount
	}
	return tx.WithContext(ctx).Create(event).Error
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req usagedomain.ListRequest) ([]usagedomain.Event, error) {
	if req.AccountID == 0 {
		return nil, usagedomain.ErrInvalidAccount
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Where("account_id = ?", req.AccountID)
	if req.Feature != "" {
		query = query.Where("feature_type = ?", req.Feature)
	}

	var events []usagedomain.Event
	err := query.Order("used_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
