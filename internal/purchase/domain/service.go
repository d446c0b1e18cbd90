package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateRequest struct {
	AccountID     snowflake.ID  `json:"account_id"`
	CatalogID     snowflake.ID  `json:"catalog_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type CompleteRequest struct {
	ID                    snowflake.ID
	AdminID               snowflake.ID
	ProviderTransactionID string
	Notes                 string
}

type Service interface {
	// Create opens a pending ledger entry against an active catalog entry
	// and assigns it a unique payment reference.
	Create(ctx context.Context, req CreateRequest) (*Purchase, error)
	// CreateTx is Create running inside a caller-owned transaction, for
	// flows that must open the purchase atomically with other writes.
	CreateTx(ctx context.Context, tx *gorm.DB, req CreateRequest) (*Purchase, error)
	// AttachProof records the buyer's payment proof and moves the entry
	// to waiting_proof. Re-attaching replaces the proof.
	AttachProof(ctx context.Context, id snowflake.ID, proofURL string) (*Purchase, error)
	// Complete settles the purchase: exactly one side effect per ledger
	// entry (balance credit, pack grant or subscription activation),
	// committed atomically with the status change. Completing an already
	// completed purchase is a no-op returning the record as-is.
	Complete(ctx context.Context, req CompleteRequest) (*Purchase, error)
	// CompleteByReference is Complete keyed by payment reference, used by
	// payment reconciliation.
	CompleteByReference(ctx context.Context, reference string, providerTransactionID string) (*Purchase, error)
	// Cancel closes a non-terminal entry with a reason. No balance side
	// effect, ever.
	Cancel(ctx context.Context, id snowflake.ID, reason string) (*Purchase, error)
	// Reject refuses a pending entry, used for subscriptions requiring
	// validation.
	Reject(ctx context.Context, id snowflake.ID, reason string) (*Purchase, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Purchase, error)
	GetByReference(ctx context.Context, reference string) (*Purchase, error)
	ListByAccount(ctx context.Context, accountID snowflake.ID) ([]Purchase, error)
}
