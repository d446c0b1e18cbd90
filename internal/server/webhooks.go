package server

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const webhookSignatureHeader = "X-Webhook-Signature"

func (s *Server) handleWebhook(c *gin.Context) {
	provider := paymentdomain.Provider(c.Param("provider"))

	body, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	// Concurrent redeliveries of the same body serialize on a short
	// Redis lock when one is configured; the journal's unique index
	// stays the source of truth either way.
	if s.usageLimiter.Enabled() {
		digest := sha256.Sum256(body)
		key := hex.EncodeToString(digest[:])
		token, ok, lockErr := s.usageLimiter.TryLockDelivery(c.Request.Context(), string(provider), key)
		if lockErr != nil {
			s.log.Warn("webhook delivery lock unavailable", zap.Error(lockErr))
		} else if !ok {
			s.metrics.RecordWebhookEvent(string(provider), "locked")
			c.JSON(http.StatusAccepted, gin.H{"replay": true})
			return
		} else {
			defer func() {
				_ = s.usageLimiter.ReleaseDelivery(c.Request.Context(), string(provider), key, token)
			}()
		}
	}

	result, err := s.paymentSvc.ProcessWebhook(c.Request.Context(), provider, body, c.GetHeader(webhookSignatureHeader))
	if err != nil {
		s.metrics.RecordWebhookEvent(string(provider), "rejected")
		AbortWithError(c, err)
		return
	}

	switch {
	case result.Replay:
		s.metrics.RecordWebhookEvent(string(provider), "replay")
	case result.Completed:
		s.metrics.RecordWebhookEvent(string(provider), "completed")
		s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
			ActorType:  auditdomain.ActorWebhook,
			Action:     "purchase_completed",
			TargetType: "purchase",
			Detail:     datatypes.JSON([]byte(`{"payment_reference":"` + result.PaymentReference + `"}`)),
		})
	default:
		s.metrics.RecordWebhookEvent(string(provider), "journaled")
	}

	c.JSON(http.StatusOK, result)
}
