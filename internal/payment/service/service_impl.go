package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	pkgdb "github.com/emploihub/emploihub/pkg/db"
	"github.com/emploihub/emploihub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config

	Adapters []paymentdomain.Adapter `group:"payment.adapters"`
	Purchase purchasedomain.Service
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	conf  config.WebhookConfig

	events   repository.Repository[paymentdomain.EventRecord]
	adapters map[paymentdomain.Provider]paymentdomain.Adapter
	purchase purchasedomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	adapters := make(map[paymentdomain.Provider]paymentdomain.Adapter, len(p.Adapters))
	for _, a := range p.Adapters {
		adapters[a.Provider()] = a
	}
	return &Service{
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		clock: p.Clock,
		conf:  p.Config.Webhook,

		events:   repository.ProvideStore[paymentdomain.EventRecord](p.DB),
		adapters: adapters,
		purchase: p.Purchase,
	}
}

// ProcessWebhook implements domain.Service.
func (s *Service) ProcessWebhook(ctx context.Context, provider paymentdomain.Provider, body []byte, signature string) (paymentdomain.Result, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return paymentdomain.Result{}, paymentdomain.ErrUnknownProvider
	}

	secret := s.conf.Secret(string(provider))
	if secret == "" || !verifySignature(secret, body, signature) {
		s.log.Warn("webhook rejected",
			zap.String("provider", string(provider)),
			zap.Bool("signed", signature != ""),
		)
		return paymentdomain.Result{}, paymentdomain.ErrUnauthorizedWebhook
	}

	event, err := adapter.Decode(body)
	if err != nil {
		return paymentdomain.Result{}, err
	}

	prior, err := s.events.FindOne(ctx, &paymentdomain.EventRecord{
		Provider:              event.Provider,
		ProviderTransactionID: event.ProviderTransactionID,
	})
	if err != nil {
		return paymentdomain.Result{}, err
	}
	if prior != nil {
		// Replayed delivery, already reconciled. Success, not error,
		// so the provider stops retrying.
		return paymentdomain.Result{
			Replay:           true,
			PaymentReference: prior.PaymentReference,
			Completed:        prior.Status == paymentdomain.EventStatusSuccess,
		}, nil
	}

	result := paymentdomain.Result{PaymentReference: event.PaymentReference}
	if event.Status == paymentdomain.EventStatusSuccess {
		p, err := s.purchase.GetByReference(ctx, event.PaymentReference)
		if err != nil {
			return paymentdomain.Result{}, err
		}
		if event.Amount != p.Amount {
			s.log.Warn("webhook amount mismatch",
				zap.String("payment_reference", event.PaymentReference),
				zap.Int64("expected", p.Amount),
				zap.Int64("got", event.Amount),
			)
			return paymentdomain.Result{}, paymentdomain.ErrAmountMismatch
		}

		// Ledger completion is idempotent on the reference, so the
		// journal insert below can safely come after it.
		if _, err := s.purchase.CompleteByReference(ctx, event.PaymentReference, event.ProviderTransactionID); err != nil {
			return paymentdomain.Result{}, err
		}
		result.Completed = true
	}

	record := &paymentdomain.EventRecord{
		ID:                    s.genID.Generate(),
		Provider:              event.Provider,
		ProviderTransactionID: event.ProviderTransactionID,
		PaymentReference:      event.PaymentReference,
		Status:                event.Status,
		Payload:               datatypes.JSON(body),
		ReceivedAt:            s.clock.Now(),
	}
	if err := s.events.Create(ctx, record); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			result.Replay = true
			return result, nil
		}
		return paymentdomain.Result{}, err
	}

	s.log.Info("webhook reconciled",
		zap.String("provider", string(provider)),
		zap.String("payment_reference", event.PaymentReference),
		zap.Bool("completed", result.Completed),
	)
	return result, nil
}

func verifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
