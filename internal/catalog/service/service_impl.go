package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  catalogdomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("catalog.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req catalogdomain.CreateEntryRequest) (*catalogdomain.Entry, error) {
	if !req.Kind.IsValid() {
		return nil, catalogdomain.ErrInvalidKind
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	if req.Price < 0 {
		return nil, catalogdomain.ErrInvalidPrice
	}
	if err := catalogdomain.ValidateConfig(req.Kind, req.Config); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "XOF"
	}

	now := s.clock.Now()
	entry := &catalogdomain.Entry{
		ID:           s.genID.Generate(),
		Kind:         req.Kind,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Currency:     currency,
		Active:       true,
		DisplayOrder: req.DisplayOrder,
		Config:       datatypes.JSON(req.Config),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		return nil, err
	}

	s.log.Info("catalog entry created",
		zap.String("id", entry.ID.String()),
		zap.String("kind", string(entry.Kind)),
		zap.String("name", entry.Name),
	)
	return entry, nil
}

// Update implements domain.Service.
func (s *Service) Update(ctx context.Context, req catalogdomain.UpdateEntryRequest) (*catalogdomain.Entry, error) {
	entry, err := s.getExisting(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		entry.Name = name
	}
	if req.Description != nil {
		entry.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, catalogdomain.ErrInvalidPrice
		}
		entry.Price = *req.Price
	}
	if req.DisplayOrder != nil {
		entry.DisplayOrder = *req.DisplayOrder
	}
	if len(req.Config) > 0 {
		if err := catalogdomain.ValidateConfig(entry.Kind, req.Config); err != nil {
			return nil, err
		}
		entry.Config = datatypes.JSON(req.Config)
	}

	entry.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Deactivate implements domain.Service.
func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	entry, err := s.getExisting(ctx, id)
	if err != nil {
		return err
	}
	if !entry.Active {
		return nil
	}

	entry.Active = false
	entry.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, entry)
}

// GetByID implements domain.Service.
func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Entry, error) {
	return s.getExisting(ctx, id)
}

// GetActiveByID implements domain.Service.
func (s *Service) GetActiveByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Entry, error) {
	entry, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.Active {
		return nil, catalogdomain.ErrEntryInactive
	}
	return entry, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req catalogdomain.ListEntriesRequest) ([]catalogdomain.Entry, error) {
	if req.Kind != "" && !req.Kind.IsValid() {
		return nil, catalogdomain.ErrInvalidKind
	}
	return s.repo.List(ctx, s.db, req.Kind, req.ActiveOnly)
}

func (s *Service) getExisting(ctx context.Context, id snowflake.ID) (*catalogdomain.Entry, error) {
	if id == 0 {
		return nil, catalogdomain.ErrInvalidEntryID
	}
	entry, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return entry, nil
}
