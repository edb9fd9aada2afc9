package dto

import (
	"funnel-checkout/internal/ledger"
	"funnel-checkout/internal/model"
)

type CreateTransactionRequest struct {
	Amount         int64  `json:"amount"`
	Product        string `json:"product"`
	PaymentMethod  string `json:"paymentMethod"`
	PaymentChannel string `json:"paymentChannel"`
	CustomerEmail  string `json:"customerEmail"`
	CustomerName   string `json:"customerName"`
	CustomerPhone  string `json:"customerPhone"`
	FBC            string `json:"fbc"`
	FBP            string `json:"fbp"`
}

type CreateTransactionResponse struct {
	OrderID       string  `json:"order_id"`
	TransactionID int64   `json:"transaction_id"`
	PaymentNo     string  `json:"payment_no"`
	PaymentName   string  `json:"payment_name"`
	Expired       string  `json:"expired"`
	QrisURL       string  `json:"qris_url,omitempty"`
	QrString      string  `json:"qr_string,omitempty"`
	Total         float64 `json:"total"`
}

type CheckStatusRequest struct {
	TransactionID model.FlexCode `json:"transactionId"`
	OrderID       string         `json:"orderId"`
	CustomerEmail string         `json:"customerEmail"`
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	FBC           string         `json:"fbc"`
	FBP           string         `json:"fbp"`
}

type StatusDebug struct {
	Status     model.FlexCode `json:"status,omitempty"`
	StatusCode model.FlexCode `json:"statusCode,omitempty"`
	StatusDesc string         `json:"statusDesc,omitempty"`
}

type CheckStatusResponse struct {
	Paid   bool         `json:"paid"`
	Status string       `json:"status"`
	Debug  *StatusDebug `json:"debug,omitempty"`
}

type WebhookResponse struct {
	Status  string `json:"status"`
	Tracked bool   `json:"tracked"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type VerifyPurchaseRequest struct {
	OrderID       string         `json:"orderId"`
	TransactionID model.FlexCode `json:"transactionId"`
}

type VerifyPurchaseResponse struct {
	OrderID       string                   `json:"orderId"`
	TransactionID model.FlexCode           `json:"transactionId"`
	Verified      bool                     `json:"verified"`
	IpaymuData    *model.TransactionStatus `json:"ipaymuData"`
}

type TrackEventRequest struct {
	EventType string `json:"eventType"`
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   *ledger.Stats `json:"stats"`
}

type PurchasesResponse struct {
	Success   bool                    `json:"success"`
	Count     int                     `json:"count"`
	Purchases []*model.PurchaseRecord `json:"purchases"`
}
