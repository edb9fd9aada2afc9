package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"funnel-checkout/internal/config"
	"funnel-checkout/internal/metrics"
	"funnel-checkout/internal/model"
)

const (
	productionBaseURL = "https://my.ipaymu.com/api/v2"
	sandboxBaseURL    = "https://sandbox.ipaymu.com/api/v2"
)

type IpaymuClient interface {
	CreateDirectPayment(ctx context.Context, req *DirectPaymentRequest) (*DirectPaymentResult, error)
	CheckTransaction(ctx context.Context, transactionID int64) (*model.TransactionStatus, error)
}

// GatewayError is a non-success reply from iPaymu: either a non-200 HTTP
// status or a 200 carrying a non-200 envelope status. Detail holds the raw
// gateway body so handlers can attach it to their own error response.
type GatewayError struct {
	HTTPStatus int
	Detail     json.RawMessage
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ipaymu error %d: %s", e.HTTPStatus, string(e.Detail))
}

type DirectPaymentRequest struct {
	OrderID        string
	Amount         int64
	Product        string
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	PaymentMethod  string
	PaymentChannel string
}

type DirectPaymentResult struct {
	TransactionID int64
	PaymentNo     string
	PaymentName   string
	Expired       string
	QrisURL       string
	QrString      string
	Total         decimal.Decimal
}

type ipaymuClientImpl struct {
	httpClient *http.Client
	baseURL    string
	va         string
	apiKey     string
	notifyURL  string
	brand      string
	logger     *zap.Logger
}

func NewIpaymuClient(cfg *config.IPaymu, brand string, logger *zap.Logger) IpaymuClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Production {
			baseURL = productionBaseURL
		} else {
			baseURL = sandboxBaseURL
		}
	}

	return &ipaymuClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		va:        cfg.VA,
		apiKey:    cfg.APIKey,
		notifyURL: cfg.NotifyURL,
		brand:     brand,
		logger:    logger,
	}
}

type directPaymentBody struct {
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Amount         int64    `json:"amount"`
	Comments       string   `json:"comments"`
	Description    string   `json:"description"`
	ReferenceID    string   `json:"referenceId"`
	PaymentMethod  string   `json:"paymentMethod"`
	PaymentChannel string   `json:"paymentChannel"`
	NotifyURL      string   `json:"notifyUrl"`
	Product        []string `json:"product"`
	Qty            []int    `json:"qty"`
	Price          []int64  `json:"price"`
}

type directPaymentData struct {
	TransactionID int64           `json:"TransactionId"`
	PaymentNo     string          `json:"PaymentNo"`
	PaymentName   string          `json:"PaymentName"`
	Expired       string          `json:"Expired"`
	QrImage       string          `json:"QrImage"`
	QrTemplate    string          `json:"QrTemplate"`
	QrURL         string          `json:"QrUrl"`
	QrString      string          `json:"QrString"`
	Total         decimal.Decimal `json:"Total"`
}

type directPaymentEnvelope struct {
	Status  int                `json:"Status"`
	Message string             `json:"Message"`
	Data    *directPaymentData `json:"Data"`
}

func (c *ipaymuClientImpl) CreateDirectPayment(ctx context.Context, req *DirectPaymentRequest) (*DirectPaymentResult, error) {
	label := c.brand + " - " + req.Product

	name := req.CustomerName
	if name == "" {
		name = "Customer"
	}

	body := &directPaymentBody{
		Name:           name,
		Phone:          req.CustomerPhone,
		Email:          req.CustomerEmail,
		Amount:         req.Amount,
		Comments:       label,
		Description:    c.brand,
		ReferenceID:    req.OrderID,
		PaymentMethod:  req.PaymentMethod,
		PaymentChannel: req.PaymentChannel,
		NotifyURL:      c.notifyURL,
		Product:        []string{label},
		Qty:            []int{1},
		Price:          []int64{req.Amount},
	}

	var envelope directPaymentEnvelope
	raw, err := c.post(ctx, "/payment/direct", body, &envelope)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("create_payment", "error").Inc()
		return nil, err
	}

	if envelope.Status != 200 || envelope.Data == nil {
		metrics.GatewayRequests.WithLabelValues("create_payment", "rejected").Inc()
		c.logger.Warn("ipaymu rejected direct payment",
			zap.String("order_id", req.OrderID),
			zap.Int("gateway_status", envelope.Status),
			zap.String("message", envelope.Message),
		)
		return nil, &GatewayError{HTTPStatus: http.StatusBadRequest, Detail: raw}
	}

	metrics.GatewayRequests.WithLabelValues("create_payment", "ok").Inc()

	qris := envelope.Data.QrImage
	if qris == "" {
		qris = envelope.Data.QrTemplate
	}
	if qris == "" {
		qris = envelope.Data.QrURL
	}

	return &DirectPaymentResult{
		TransactionID: envelope.Data.TransactionID,
		PaymentNo:     envelope.Data.PaymentNo,
		PaymentName:   envelope.Data.PaymentName,
		Expired:       envelope.Data.Expired,
		QrisURL:       qris,
		QrString:      envelope.Data.QrString,
		Total:         envelope.Data.Total,
	}, nil
}

type transactionEnvelope struct {
	Status  int                      `json:"Status"`
	Message string                   `json:"Message"`
	Data    *model.TransactionStatus `json:"Data"`
}

func (c *ipaymuClientImpl) CheckTransaction(ctx context.Context, transactionID int64) (*model.TransactionStatus, error) {
	body := map[string]int64{"transactionId": transactionID}

	var envelope transactionEnvelope
	raw, err := c.post(ctx, "/transaction", body, &envelope)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("check_transaction", "error").Inc()
		return nil, err
	}

	if envelope.Status != 200 || envelope.Data == nil {
		metrics.GatewayRequests.WithLabelValues("check_transaction", "rejected").Inc()
		return nil, &GatewayError{HTTPStatus: http.StatusBadRequest, Detail: raw}
	}

	metrics.GatewayRequests.WithLabelValues("check_transaction", "ok").Inc()
	return envelope.Data, nil
}

// post signs and issues one gateway call, decoding the response envelope
// into out and returning the raw body for error detail.
func (c *ipaymuClientImpl) post(ctx context.Context, path string, body any, out any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	// The signature covers the exact bytes sent, so the body must not be
	// re-encoded after signing.
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("va", c.va)
	req.Header.Set("signature", Sign(http.MethodPost, c.va, payload, c.apiKey))
	req.Header.Set("timestamp", Timestamp(time.Now()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{HTTPStatus: resp.StatusCode, Detail: raw}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return raw, nil
}
