package adapters

import (
	"encoding/json"
	"strconv"
	"strings"

	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
)

type mtnMoMoPayload struct {
	FinancialTransactionID string `json:"financialTransactionId"`
	ExternalID             string `json:"externalId"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"`
}

type MTNMoMo struct{}

func NewMTNMoMo() *MTNMoMo { return &MTNMoMo{} }

func (a *MTNMoMo) Provider() paymentdomain.Provider {
	return paymentdomain.ProviderMTNMoMo
}

func (a *MTNMoMo) Decode(body []byte) (paymentdomain.Event, error) {
	var p mtnMoMoPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}
	if p.FinancialTransactionID == "" || p.ExternalID == "" {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}

	amount, err := strconv.ParseInt(p.Amount, 10, 64)
	if err != nil {
		return paymentdomain.Event{}, paymentdomain.ErrMalformedPayload
	}

	status := paymentdomain.EventStatusFailed
	if strings.EqualFold(p.Status, "SUCCESSFUL") {
		status = paymentdomain.EventStatusSuccess
	}

	return paymentdomain.Event{
		Provider:              paymentdomain.ProviderMTNMoMo,
		ProviderTransactionID: p.FinancialTransactionID,
		PaymentReference:      p.ExternalID,
		Amount:                amount,
		Currency:              p.Currency,
		Status:                status,
	}, nil
}
