package model

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// StatusSettled is the status text iPaymu sends for a successful payment.
const StatusSettled = "berhasil"

// FlexCode is a gateway status code or id. iPaymu is inconsistent about
// types: the same field arrives as a JSON number on one endpoint and as a
// JSON string on another, so everything is normalized to its string form.
type FlexCode string

func (c *FlexCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = FlexCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = FlexCode(n.String())
	return nil
}

func (c FlexCode) String() string {
	return string(c)
}

func (c FlexCode) Int64() int64 {
	n, _ := strconv.ParseInt(string(c), 10, 64)
	return n
}

// IsPaidCode reports whether a status or status code means the payment has
// been collected: 1 is settled, 6 is paid but not yet settled to the
// merchant. Both count as paid for conversion purposes.
func IsPaidCode(c FlexCode) bool {
	return c == "1" || c == "6"
}

// TransactionStatus is one point-in-time read of gateway state for a
// transaction, as returned by the iPaymu transaction endpoint.
type TransactionStatus struct {
	TransactionID FlexCode        `json:"TransactionId"`
	SessionID     string          `json:"SessionId"`
	ReferenceID   string          `json:"ReferenceId"`
	Sender        string          `json:"Sender"`
	Receiver      string          `json:"Receiver"`
	Type          FlexCode        `json:"Type"`
	TypeDesc      string          `json:"TypeDesc"`
	Status        FlexCode        `json:"Status"`
	StatusCode    FlexCode        `json:"StatusCode"`
	StatusDesc    string          `json:"StatusDesc"`
	Subtotal      decimal.Decimal `json:"Subtotal"`
	Fee           decimal.Decimal `json:"Fee"`
	Total         decimal.Decimal `json:"Total"`
	Amount        decimal.Decimal `json:"Amount"`
	Notes         string          `json:"Notes"`
	CreatedDate   string          `json:"CreatedDate"`
	ExpiredDate   string          `json:"ExpiredDate"`
	SuccessDate   string          `json:"SuccessDate"`
}

// Paid reports whether either the status or the status code carries a paid
// code. The gateway populates them inconsistently across payment channels.
func (t *TransactionStatus) Paid() bool {
	return IsPaidCode(t.Status) || IsPaidCode(t.StatusCode)
}

// SettledAmount returns the gateway-reported gross amount, preferring Total
// over Amount, falling back to the configured nominal price when the
// gateway omits both.
func (t *TransactionStatus) SettledAmount(fallback float64) float64 {
	if t.Total.IsPositive() {
		return t.Total.InexactFloat64()
	}
	if t.Amount.IsPositive() {
		return t.Amount.InexactFloat64()
	}
	return fallback
}

// PaymentNotification is the payload iPaymu POSTs to the notifyUrl when a
// transaction changes state. Buyer fields appear in both snake_case and
// camelCase depending on the gateway version, so both are kept and
// coalesced through the accessor methods.
type PaymentNotification struct {
	TrxID       FlexCode        `json:"trx_id"`
	SessionID   string          `json:"sid"`
	ReferenceID string          `json:"reference_id"`
	Status      string          `json:"status"`
	StatusCode  FlexCode        `json:"status_code"`
	Total       decimal.Decimal `json:"total"`
	Amount      decimal.Decimal `json:"amount"`
	Via         string          `json:"via"`
	Channel     string          `json:"channel"`

	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	BuyerPhone string `json:"buyer_phone"`

	BuyerNameAlt  string `json:"buyerName"`
	BuyerEmailAlt string `json:"buyerEmail"`
	BuyerPhoneAlt string `json:"buyerPhone"`
}

// OrderID returns the order the notification refers to: the merchant
// reference id when present, otherwise the gateway transaction id.
func (n *PaymentNotification) OrderID() string {
	if n.ReferenceID != "" {
		return n.ReferenceID
	}
	return n.TrxID.String()
}

// Succeeded reports whether the notification describes a collected payment.
func (n *PaymentNotification) Succeeded() bool {
	return n.Status == StatusSettled || n.StatusCode == "1"
}

func (n *PaymentNotification) CustomerName() string {
	if n.BuyerName != "" {
		return n.BuyerName
	}
	return n.BuyerNameAlt
}

func (n *PaymentNotification) CustomerEmail() string {
	if n.BuyerEmail != "" {
		return n.BuyerEmail
	}
	return n.BuyerEmailAlt
}

func (n *PaymentNotification) CustomerPhone() string {
	if n.BuyerPhone != "" {
		return n.BuyerPhone
	}
	return n.BuyerPhoneAlt
}

// GrossAmount returns the notification's reported amount in currency units.
func (n *PaymentNotification) GrossAmount() float64 {
	if n.Total.IsPositive() {
		return n.Total.InexactFloat64()
	}
	return n.Amount.InexactFloat64()
}

// PaymentType returns the payment channel discriminator persisted with a
// purchase record.
func (n *PaymentNotification) PaymentType() string {
	if n.Via != "" {
		return n.Via
	}
	if n.Channel != "" {
		return n.Channel
	}
	return "ipaymu"
}
