package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/pkg/db/option"
	"github.com/emploihub/emploihub/pkg/db/pagination"
	"github.com/emploihub/emploihub/pkg/repository"
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
	Repo  balancedomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	repo    balancedomain.Repository
	txnRepo repository.Repository[balancedomain.Transaction]
}

func NewService(p ServiceParam) balancedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("balance.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		txnRepo: repository.ProvideStore[balancedomain.Transaction](p.DB),
	}
}

// GetBalance implements domain.Service.
func (s *Service) GetBalance(ctx context.Context, accountID snowflake.ID) (int64, error) {
	if accountID == 0 {
		return 0, balancedomain.ErrInvalidAccount
	}

	account, err := s.repo.FindByID(ctx, s.db, accountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.CreditsBalance, nil
}

// ApplyTransaction implements domain.Service.
func (s *Service) ApplyTransaction(ctx context.Context, req balancedomain.ApplyTransactionRequest) (*balancedomain.Transaction, error) {
	var txn *balancedomain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.ApplyTransactionTx(ctx, tx, req)
		if err != nil {
			return err
		}
		txn = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyTransactionTx implements domain.Service.
func (s *Service) ApplyTransactionTx(ctx context.Context, tx *gorm.DB, req balancedomain.ApplyTransactionRequest) (*balancedomain.Transaction, error) {
	if req.AccountID == 0 {
		return nil, balancedomain.ErrInvalidAccount
	}
	if !req.Type.IsValid() {
		return nil, balancedomain.ErrInvalidType
	}
	if req.Amount == 0 {
		return nil, balancedomain.ErrInvalidAmount
	}
	if req.Type.IsCredit() != (req.Amount > 0) {
		return nil, balancedomain.ErrInvalidAmount
	}

	account, err := s.repo.FindByIDForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, err
	}

	before := account.CreditsBalance
	after := before + req.Amount
	if after < 0 {
		return nil, balancedomain.ErrInsufficientBalance
	}

	if err := s.repo.UpdateBalance(ctx, tx, req.AccountID, after); err != nil {
		return nil, err
	}

	txn := &balancedomain.Transaction{
		ID:            s.genID.Generate(),
		AccountID:     req.AccountID,
		Type:          req.Type,
		Amount:        req.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   req.Description,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	s.log.Debug("balance mutated",
		zap.Int64("account_id", int64(req.AccountID)),
		zap.String("type", string(req.Type)),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance_after", after),
	)

	return txn, nil
}

// ListTransactions implements domain.Service.
func (s *Service) ListTransactions(ctx context.Context, req balancedomain.ListTransactionsRequest) (balancedomain.ListTransactionsResponse, error) {
	if req.AccountID == 0 {
		return balancedomain.ListTransactionsResponse{}, balancedomain.ErrInvalidAccount
	}

	filter := &balancedomain.Transaction{AccountID: req.AccountID}
	items, err := s.txnRepo.Find(ctx, filter,
		option.ApplyPagination(req.Pagination),
		option.WithSortDesc("created_at"),
	)
	if err != nil {
		return balancedomain.ListTransactionsResponse{}, err
	}

	size := req.Pagination.PageSize
	if size <= 0 {
		size = 20
	}
	pageInfo := pagination.BuildCursorPageInfo(items, size, func(t *balancedomain.Transaction) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        t.ID.String(),
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	result := make([]balancedomain.Transaction, 0, len(items))
	for i, item := range items {
		if i >= size {
			break
		}
		result = append(result, *item)
	}

	return balancedomain.ListTransactionsResponse{Items: result, PageInfo: pageInfo}, nil
}
