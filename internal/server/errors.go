package server

import (
	"errors"
	"net/http"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	quotadomain "github.com/emploihub/emploihub/internal/quota/domain"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError translates domain errors into the wire taxonomy. Every
// balance-affecting operation either succeeds or surfaces here with a
// specific kind.
func mapError(err error) (int, errorPayload) {
	switch {
	case isValidation(err):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}
	case isNotFound(err):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case errors.Is(err, balancedomain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, errorPayload{Type: "insufficient_balance", Message: err.Error()}
	case isConflict(err):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}
	case isUnauthorized(err):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		balancedomain.ErrInvalidAccount,
		balancedomain.ErrInvalidAmount,
		balancedomain.ErrInvalidType,
		catalogdomain.ErrInvalidKind,
		catalogdomain.ErrInvalidConfig,
		catalogdomain.ErrInvalidName,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidEntryID,
		purchasedomain.ErrInvalidAccount,
		purchasedomain.ErrInvalidMethod,
		purchasedomain.ErrProofRequired,
		purchasedomain.ErrReasonRequired,
		subscriptiondomain.ErrInvalidAccount,
		subscriptiondomain.ErrInvalidDuration,
		subscriptiondomain.ErrReasonRequired,
		quotadomain.ErrInvalidAccount,
		quotadomain.ErrInvalidFeature,
		quotadomain.ErrInvalidCount,
		usagedomain.ErrInvalidAccount,
		usagedomain.ErrInvalidFeature,
		usagedomain.ErrInvalidCount,
		cartdomain.ErrInvalidRecruiter,
		cartdomain.ErrInvalidCandidate,
		cartdomain.ErrInvalidLevel,
		cartdomain.ErrEmptyCart,
		auditdomain.ErrInvalidAction,
		paymentdomain.ErrMalformedPayload,
		paymentdomain.ErrUnknownProvider,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		catalogdomain.ErrNotFound,
		purchasedomain.ErrNotFound,
		subscriptiondomain.ErrNotFound,
		cartdomain.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, target := range []error{
		purchasedomain.ErrAlreadyTerminal,
		purchasedomain.ErrConflict,
		subscriptiondomain.ErrAlreadyTerminal,
		subscriptiondomain.ErrNotPending,
		catalogdomain.ErrEntryInactive,
		cartdomain.ErrAlreadyInCart,
		cartdomain.ErrItemClosed,
		paymentdomain.ErrAmountMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, paymentdomain.ErrUnauthorizedWebhook)
}
