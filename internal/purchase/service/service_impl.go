package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/clock"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"github.com/google/uuid"
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
	Repo  purchasedomain.Repository

	Catalog      catalogdomain.Service
	Balance      balancedomain.Service
	Subscription subscriptiondomain.Service
	Pack         packdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  purchasedomain.Repository

	catalog      catalogdomain.Service
	balance      balancedomain.Service
	subscription subscriptiondomain.Service
	pack         packdomain.Service
}

func NewService(p ServiceParam) purchasedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("purchase.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		catalog:      p.Catalog,
		balance:      p.Balance,
		subscription: p.Subscription,
		pack:         p.Pack,
	}
}

// Create implements domain.Service.
func (s *Service) Create(ctx context.Context, req purchasedomain.CreateRequest) (*purchasedomain.Purchase, error) {
	return s.CreateTx(ctx, s.db, req)
}

// CreateTx implements domain.Service.
func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, req purchasedomain.CreateRequest) (*purchasedomain.Purchase, error) {
	if req.AccountID == 0 {
		return nil, purchasedomain.ErrInvalidAccount
	}
	if !req.PaymentMethod.IsValid() {
		return nil, purchasedomain.ErrInvalidMethod
	}

	entry, err := s.catalog.GetActiveByID(ctx, req.CatalogID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	purchase := &purchasedomain.Purchase{
		ID:        s.genID.Generate(),
		AccountID: req.AccountID,
		CatalogID: entry.ID,

		Kind:     entry.Kind,
		Amount:   entry.Price,
		Currency: entry.Currency,

		PaymentMethod:    req.PaymentMethod,
		PaymentReference: newPaymentReference(),
		PaymentStatus:    purchasedomain.PaymentPending,

		Status:    purchasedomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, tx, purchase); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, purchasedomain.ErrConflict
		}
		return nil, err
	}

	s.log.Info("purchase created",
		zap.Int64("purchase_id", purchase.ID.Int64()),
		zap.Int64("account_id", purchase.AccountID.Int64()),
		zap.String("kind", string(purchase.Kind)),
		zap.String("payment_reference", purchase.PaymentReference),
	)
	return purchase, nil
}

// AttachProof implements domain.Service.
func (s *Service) AttachProof(ctx context.Context, id snowflake.ID, proofURL string) (*purchasedomain.Purchase, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, purchasedomain.ErrProofRequired
	}

	var purchase *purchasedomain.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return purchasedomain.ErrNotFound
		}
		if p.Status.IsTerminal() {
			return purchasedomain.ErrAlreadyTerminal
		}

		p.Status = purchasedomain.StatusWaitingProof
		p.ProofURL = proofURL
		p.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Complete implements domain.Service.
func (s *Service) Complete(ctx context.Context, req purchasedomain.CompleteRequest) (*purchasedomain.Purchase, error) {
	return s.complete(ctx, func(tx *gorm.DB) (*purchasedomain.Purchase, error) {
		return s.repo.FindByIDForUpdate(ctx, tx, req.ID)
	}, req.AdminID, req.ProviderTransactionID, req.Notes)
}

// CompleteByReference implements domain.Service.
func (s *Service) CompleteByReference(ctx context.Context, reference string, providerTransactionID string) (*purchasedomain.Purchase, error) {
	return s.complete(ctx, func(tx *gorm.DB) (*purchasedomain.Purchase, error) {
		return s.repo.FindByReferenceForUpdate(ctx, tx, reference)
	}, 0, providerTransactionID, "")
}

func (s *Service) complete(ctx context.Context, find func(*gorm.DB) (*purchasedomain.Purchase, error), adminID snowflake.ID, providerTransactionID, notes string) (*purchasedomain.Purchase, error) {
	var purchase *purchasedomain.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := find(tx)
		if err != nil {
			return err
		}
		if p == nil {
			return purchasedomain.ErrNotFound
		}
		if p.Status == purchasedomain.StatusCompleted {
			// Retried completion is absorbed, the settlement already ran.
			purchase = p
			return nil
		}
		if p.Status.IsTerminal() {
			return purchasedomain.ErrAlreadyTerminal
		}

		if err := s.settle(ctx, tx, p); err != nil {
			return err
		}

		now := s.clock.Now()
		p.Status = purchasedomain.StatusCompleted
		p.PaymentStatus = purchasedomain.PaymentPaid
		p.AdminID = adminID
		p.AdminNotes = notes
		p.ProviderTransactionID = providerTransactionID
		p.UpdatedAt = now
		p.CompletedAt = &now
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase completed",
		zap.Int64("purchase_id", purchase.ID.Int64()),
		zap.String("payment_reference", purchase.PaymentReference),
	)
	return purchase, nil
}

// settle applies the one side effect the purchase pays for, inside the
// completion transaction.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, p *purchasedomain.Purchase) error {
	entry, err := s.catalog.GetByID(ctx, p.CatalogID)
	if err != nil {
		return err
	}

	switch entry.Kind {
	case catalogdomain.KindCreditPackage:
		cfg, err := entry.CreditConfig()
		if err != nil {
			return err
		}
		_, err = s.balance.ApplyTransactionTx(ctx, tx, balancedomain.ApplyTransactionRequest{
			AccountID:   p.AccountID,
			Type:        balancedomain.TransactionTypePurchase,
			Amount:      cfg.Credits,
			Description: fmt.Sprintf("purchase %s", p.PaymentReference),
		})
		if err != nil {
			return err
		}
		if cfg.BonusCredits > 0 {
			_, err = s.balance.ApplyTransactionTx(ctx, tx, balancedomain.ApplyTransactionRequest{
				AccountID:   p.AccountID,
				Type:        balancedomain.TransactionTypeBonus,
				Amount:      cfg.BonusCredits,
				Description: fmt.Sprintf("bonus %s", p.PaymentReference),
			})
			if err != nil {
				return err
			}
		}
		return nil

	case catalogdomain.KindCVPack:
		cfg, err := entry.CVPackConfig()
		if err != nil {
			return err
		}
		_, err = s.pack.GrantCVPackTx(ctx, tx, packdomain.GrantCVPackRequest{
			AccountID:  p.AccountID,
			CatalogID:  entry.ID,
			PurchaseID: p.ID,
			Config:     cfg,
		})
		return err

	case catalogdomain.KindEnterprisePack:
		cfg, err := entry.EnterpriseConfig()
		if err != nil {
			return err
		}
		_, err = s.subscription.ActivateTx(ctx, tx, subscriptiondomain.ActivateRequest{
			AccountID:  p.AccountID,
			CatalogID:  entry.ID,
			PurchaseID: p.ID,
			Config:     cfg,
		})
		return err

	case catalogdomain.KindPromotionPack:
		cfg, err := entry.PromotionConfig()
		if err != nil {
			return err
		}
		_, err = s.pack.GrantPromotionTx(ctx, tx, packdomain.GrantPromotionRequest{
			AccountID:  p.AccountID,
			CatalogID:  entry.ID,
			PurchaseID: p.ID,
			Config:     cfg,
		})
		return err
	}
	return catalogdomain.ErrInvalidKind
}

// Cancel implements domain.Service.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason string) (*purchasedomain.Purchase, error) {
	return s.close(ctx, id, reason, purchasedomain.StatusCancelled)
}

// Reject implements domain.Service.
func (s *Service) Reject(ctx context.Context, id snowflake.ID, reason string) (*purchasedomain.Purchase, error) {
	return s.close(ctx, id, reason, purchasedomain.StatusRejected)
}

func (s *Service) close(ctx context.Context, id snowflake.ID, reason string, status purchasedomain.Status) (*purchasedomain.Purchase, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, purchasedomain.ErrReasonRequired
	}

	var purchase *purchasedomain.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return purchasedomain.ErrNotFound
		}
		if p.Status.IsTerminal() {
			return purchasedomain.ErrAlreadyTerminal
		}

		now := s.clock.Now()
		p.Status = status
		p.PaymentStatus = purchasedomain.PaymentFailed
		p.Reason = reason
		p.UpdatedAt = now
		p.CancelledAt = &now
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// GetByID implements domain.Service.
func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*purchasedomain.Purchase, error) {
	p, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, purchasedomain.ErrNotFound
	}
	return p, nil
}

// GetByReference implements domain.Service.
func (s *Service) GetByReference(ctx context.Context, reference string) (*purchasedomain.Purchase, error) {
	p, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, purchasedomain.ErrNotFound
	}
	return p, nil
}

// ListByAccount implements domain.Service.
func (s *Service) ListByAccount(ctx context.Context, accountID snowflake.ID) ([]purchasedomain.Purchase, error) {
	if accountID == 0 {
		return nil, purchasedomain.ErrInvalidAccount
	}
	return s.repo.ListByAccount(ctx, s.db, accountID)
}

func newPaymentReference() string {
	return "EH-" + strings.ToUpper(uuid.NewString())
}
