package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	"github.com/emploihub/emploihub/internal/clock"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Record implements domain.Service.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) {
	entry.ID = s.genID.Generate()
	entry.CreatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.Entry, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&auditdomain.Entry{})
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.TargetID != 0 {
		query = query.Where("target_id = ?", req.TargetID)
	}

	var entries []auditdomain.Entry
	err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
