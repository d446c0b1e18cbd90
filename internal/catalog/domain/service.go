package domain

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
)

type CreateEntryRequest struct {
	Kind         Kind            `json:"kind"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        int64           `json:"price"`
	Currency     string          `json:"currency"`
	DisplayOrder int             `json:"display_order"`
	Config       json.RawMessage `json:"config"`
}

type UpdateEntryRequest struct {
	ID           snowflake.ID
	Name         *string         `json:"name"`
	Description  *string         `json:"description"`
	Price        *int64          `json:"price"`
	DisplayOrder *int            `json:"display_order"`
	Config       json.RawMessage `json:"config"`
}

type ListEntriesRequest struct {
	Kind       Kind
	ActiveOnly bool
}

type Service interface {
	Create(ctx context.Context, req CreateEntryRequest) (*Entry, error)
	Update(ctx context.Context, req UpdateEntryRequest) (*Entry, error)
	// Deactivate soft-disables an entry so it stays resolvable from
	// existing purchases but can no longer be bought.
	Deactivate(ctx context.Context, id snowflake.ID) error
	GetByID(ctx context.Context, id snowflake.ID) (*Entry, error)
	// GetActiveByID resolves an entry and fails with ErrEntryInactive when
	// it is disabled; used on the checkout path.
	GetActiveByID(ctx context.Context, id snowflake.ID) (*Entry, error)
	List(ctx context.Context, req ListEntriesRequest) ([]Entry, error)
}
