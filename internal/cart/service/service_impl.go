package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	"github.com/emploihub/emploihub/internal/clock"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
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

	Purchase purchasedomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock

	purchase purchasedomain.Service
}

func NewService(p ServiceParam) cartdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("cart.service"),

		genID: p.GenID,
		clock: p.Clock,

		purchase: p.Purchase,
	}
}

// Add implements domain.Service.
func (s *Service) Add(ctx context.Context, req cartdomain.AddRequest) (*cartdomain.Item, error) {
	if req.RecruiterID == 0 {
		return nil, cartdomain.ErrInvalidRecruiter
	}
	if req.CandidateID == 0 {
		return nil, cartdomain.ErrInvalidCandidate
	}
	if !req.ExperienceLevel.IsValid() {
		return nil, cartdomain.ErrInvalidLevel
	}

	var item *cartdomain.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&cartdomain.Item{}).
			Where("recruiter_id = ? AND candidate_id = ? AND removed_at IS NULL AND converted_to_purchase = ?",
				req.RecruiterID, req.CandidateID, false).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return cartdomain.ErrAlreadyInCart
		}

		item = &cartdomain.Item{
			ID:               s.genID.Generate(),
			RecruiterID:      req.RecruiterID,
			CandidateID:      req.CandidateID,
			PriceAtSelection: req.PriceAtSelection,
			ExperienceLevel:  req.ExperienceLevel,
			AddedAt:          s.clock.Now(),
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove implements domain.Service.
func (s *Service) Remove(ctx context.Context, recruiterID, itemID snowflake.ID) (*cartdomain.Item, error) {
	var item cartdomain.Item
	err := s.db.WithContext(ctx).
		Where("id = ? AND recruiter_id = ?", itemID, recruiterID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cartdomain.ErrNotFound
		}
		return nil, err
	}
	if !item.Live() {
		return nil, cartdomain.ErrItemClosed
	}

	now := s.clock.Now()
	item.RemovedAt = &now
	err = s.db.WithContext(ctx).Exec(
		`UPDATE cart_items SET removed_at = ? WHERE id = ?`, now, item.ID,
	).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ConvertToPurchase implements domain.Service.
func (s *Service) ConvertToPurchase(ctx context.Context, req cartdomain.ConvertRequest) (*purchasedomain.Purchase, error) {
	if req.RecruiterID == 0 {
		return nil, cartdomain.ErrInvalidRecruiter
	}

	var (
		purchase  *purchasedomain.Purchase
		converted int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []cartdomain.Item
		err := pkgdb.LockForUpdate(tx).
			Where("recruiter_id = ? AND removed_at IS NULL AND converted_to_purchase = ?", req.RecruiterID, false).
			Find(&items).Error
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return cartdomain.ErrEmptyCart
		}

		purchase, err = s.purchase.CreateTx(ctx, tx, purchasedomain.CreateRequest{
			AccountID:     req.RecruiterID,
			CatalogID:     req.CatalogID,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			return err
		}

		converted = len(items)
		return tx.Exec(
			`UPDATE cart_items SET converted_to_purchase = ?, purchase_id = ?
			WHERE recruiter_id = ? AND removed_at IS NULL AND converted_to_purchase = ?`,
			true, purchase.ID, req.RecruiterID, false,
		).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cart converted",
		zap.Int64("recruiter_id", req.RecruiterID.Int64()),
		zap.Int64("purchase_id", purchase.ID.Int64()),
		zap.Int("items", converted),
	)
	return purchase, nil
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, req cartdomain.ListRequest) ([]cartdomain.Item, error) {
	if req.RecruiterID == 0 {
		return nil, cartdomain.ErrInvalidRecruiter
	}

	query := s.db.WithContext(ctx).Where("recruiter_id = ?", req.RecruiterID)
	if req.LiveOnly {
		query = query.Where("removed_at IS NULL AND converted_to_purchase = ?", false)
	}

	var items []cartdomain.Item
	err := query.Order("added_at DESC").Find(&items).Error
	return items, err
}
