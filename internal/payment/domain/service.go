package domain

import (
	"context"
	"errors"
)

var (
	ErrUnknownProvider     = errors.New("unknown_payment_provider")
	ErrUnauthorizedWebhook = errors.New("unauthorized_webhook")
	ErrMalformedPayload    = errors.New("malformed_webhook_payload")
	ErrAmountMismatch      = errors.New("payment_amount_mismatch")
)

// Result reports what a webhook delivery did to the ledger.
type Result struct {
	// Replay is true when the provider event was seen before; the
	// delivery is absorbed without touching the ledger.
	Replay           bool   `json:"replay"`
	PaymentReference string `json:"payment_reference"`
	Completed        bool   `json:"completed"`
}

type Service interface {
	// ProcessWebhook authenticates the raw delivery against the
	// provider's shared secret, normalizes it, journals the event and —
	// for a first-seen successful confirmation — completes the matching
	// purchase. Unsigned or tampered deliveries fail with
	// ErrUnauthorizedWebhook and leave no trace on the ledger.
	ProcessWebhook(ctx context.Context, provider Provider, body []byte, signature string) (Result, error)
}

// Adapter normalizes one provider's payload format.
type Adapter interface {
	Provider() Provider
	Decode(body []byte) (Event, error)
}
