package model

import (
	"time"

	"funnel-checkout/internal/capi"
)

// PurchaseRecord is one row of the purchases.json document shown in the
// admin dashboard. The JSON field names are the document's wire format and
// must stay compatible with existing files.
type PurchaseRecord struct {
	OrderID       string       `json:"orderId"`
	TransactionID string       `json:"transactionId"`
	SessionID     string       `json:"sessionId"`
	CustomerName  string       `json:"customerName"`
	CustomerEmail string       `json:"customerEmail"`
	CustomerPhone string       `json:"customerPhone"`
	Amount        float64      `json:"amount"`
	Status        string       `json:"status"`
	PaymentType   string       `json:"paymentType"`
	TrackedAt     time.Time    `json:"trackedAt"`
	CapiResponse  *capi.Result `json:"capiResponse"`
	Source        string       `json:"source"`
}
