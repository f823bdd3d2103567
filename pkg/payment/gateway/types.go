package gateway

import (
	"github.com/shopspring/decimal"
)

// ReadyRequest represents the parameters of a payment session
type ReadyRequest struct {
	Authority   string
	Amount      decimal.Decimal
	Description string
	UserID      uint
}

// ReadyResponse is returned to the buyer so the frontend can redirect
type ReadyResponse struct {
	Authority  string `json:"authority"`
	PaymentURL string `json:"payment_url"`
	Merchant   string `json:"-"`
}
