package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
)

var (
	ErrNotFound         = errors.New("cart_item_not_found")
	ErrInvalidRecruiter = errors.New("invalid_cart_recruiter")
	ErrInvalidCandidate = errors.New("invalid_cart_candidate")
	ErrInvalidLevel     = errors.New("invalid_experience_level")
	ErrAlreadyInCart    = errors.New("candidate_already_in_cart")
	ErrEmptyCart        = errors.New("cart_empty")
	ErrItemClosed       = errors.New("cart_item_closed")
)

type AddRequest struct {
	RecruiterID      snowflake.ID    `json:"recruiter_id"`
	CandidateID      snowflake.ID    `json:"candidate_id"`
	PriceAtSelection int64           `json:"price_at_selection"`
	ExperienceLevel  ExperienceLevel `json:"experience_level"`
}

type ConvertRequest struct {
	RecruiterID   snowflake.ID                 `json:"recruiter_id"`
	CatalogID     snowflake.ID                 `json:"catalog_id"`
	PaymentMethod purchasedomain.PaymentMethod `json:"payment_method"`
}

type ListRequest struct {
	RecruiterID snowflake.ID
	LiveOnly    bool
}

type Service interface {
	// Add puts a candidate in the recruiter's cart. A candidate already
	// live in the cart is refused with ErrAlreadyInCart.
	Add(ctx context.Context, req AddRequest) (*Item, error)
	// Remove closes a live item; closed items are history and immutable.
	Remove(ctx context.Context, recruiterID, itemID snowflake.ID) (*Item, error)
	// ConvertToPurchase opens a pending purchase for the chosen catalog
	// entry and stamps every live item as converted.
	ConvertToPurchase(ctx context.Context, req ConvertRequest) (*purchasedomain.Purchase, error)
	List(ctx context.Context, req ListRequest) ([]Item, error)
}
