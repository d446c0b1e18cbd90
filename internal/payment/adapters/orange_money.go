// Package adapters normalizes provider webhook payloads into payment
// events. Each provider has its own field names and status vocabulary.
package adapters

import (
	"encoding/json"
	"strconv"
	"strings"

	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
)

type orangeMoneyPayload struct {
	TxnID     string `json:"txnid"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

type OrangeMoney struct{}

func NewOrangeMoney() *OrangeMoney { return &OrangeMoney{} }

func (a *OrangeMoney) Provider() paymentdomain.Provider {
	return paymentdomain.ProviderOrangeMoney
}

func (a *OrangeMoney) Decode(body []byte) (paymentdomain.Event, error) {
	var p orangeMoneyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}
	if p.TxnID == "" || p.Reference == "" {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}

	amount, err := strconv.ParseInt(p.Amount, 10, 64)
	if err != nil {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}

	status := paymentdomain.EventStatusFailed
	if strings.EqualFold(p.Status, "SUCCESS") {
		status = paymentdomain.EventStatusSuccess
	}

	return paymentdomain.Event{
		Provider:              paymentdomain.ProviderOrangeMoney,
		ProviderTransactionID: p.TxnID,
		PaymentReference:      p.Reference,
		Amount:                amount,
		Currency:              p.Currency,
		Status:                status,
	}, nil
}
