package models

import "github.com/shopspring/decimal"

// ChargeSuccessEvent is the only gateway webhook event that moves money in.
const ChargeSuccessEvent = "charge.success"

// GatewayEvent is the webhook envelope sent by the payment gateway.
type GatewayEvent struct {
	Event string      `json:"event"`
	Data  GatewayData `json:"data"`
}

// GatewayData carries the charge fields; Amount is in minor units (kobo).
type GatewayData struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference" validate:"required"`
	Amount    int64           `json:"amount" validate:"gt=0"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel"`
	Status    string          `json:"status"`
	Customer  GatewayCustomer `json:"customer"`
}

// GatewayCustomer identifies the payer.
type GatewayCustomer struct {
	Email        string `json:"email" validate:"required,email"`
	CustomerCode string `json:"customer_code"`
}

// GatewayVerification is the authoritative state of a charge as reported by the gateway.
type GatewayVerification struct {
	Reference     string
	VendorStatus  string
	Status        Status
	AmountMinor   int64
	TransactionID int64
	Channel       string
}

// GatewayCheckout is returned when a card deposit is initialized.
type GatewayCheckout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// FromMinorUnits converts kobo to a two-decimal amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ToMinorUnits converts a two-decimal amount to kobo.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
