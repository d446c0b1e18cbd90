package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ApplyTransactionRequest struct {
	AccountID   snowflake.ID
	Type        TransactionType
	Amount      int64
	Description string
}

type ListTransactionsRequest struct {
	AccountID  snowflake.ID
	Pagination pagination.Pagination
}

type ListTransactionsResponse struct {
	Items    []Transaction        `json:"items"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// GetBalance returns the current balance, zero for unknown accounts.
	GetBalance(ctx context.Context, accountID snowflake.ID) (int64, error)
	// ApplyTransaction atomically mutates the balance and records the
	// transaction in the same unit of work. Debits that would drive the
	// balance negative fail with ErrInsufficientBalance.
	ApplyTransaction(ctx context.Context, req ApplyTransactionRequest) (*Transaction, error)
	// ApplyTransactionTx is ApplyTransaction running inside a caller-owned
	// transaction, used when a balance credit must commit together with
	// another state change (e.g. purchase completion).
	ApplyTransactionTx(ctx context.Context, tx *gorm.DB, req ApplyTransactionRequest) (*Transaction, error)
	ListTransactions(ctx context.Context, req ListTransactionsRequest) (ListTransactionsResponse, error)
}
