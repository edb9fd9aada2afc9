package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funnel-checkout/internal/capi"
	"funnel-checkout/internal/client"
	"funnel-checkout/internal/dto"
)

func TestCreateTransaction(t *testing.T) {
	gateway := &fakeGateway{createResult: &client.DirectPaymentResult{
		TransactionID: 118604,
		PaymentNo:     "8808001234567890",
		PaymentName:   "QRIS",
		Expired:       "2026-03-08 09:00:00",
		Total:         decimal.NewFromInt(96000),
	}}
	sender := &fakeSender{}
	svc := NewCheckoutService(testConfig(), gateway, sender, zap.NewNop())

	resp, err := svc.CreateTransaction(context.Background(), &dto.CreateTransactionRequest{
		Amount:         96000,
		Product:        "Batch 8",
		PaymentMethod:  "qris",
		PaymentChannel: "qris",
		CustomerEmail:  "user@example.com",
	}, &ClientInfo{IP: "203.0.113.9", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)

	assert.Regexp(t, `^AAB-\d+-[0-9a-z]{9}$`, resp.OrderID)
	assert.Equal(t, int64(118604), resp.TransactionID)
	assert.Equal(t, float64(96000), resp.Total)

	// InitiateCheckout is detached; wait for it to land.
	require.Eventually(t, func() bool {
		return len(sender.sent()) == 1
	}, time.Second, 10*time.Millisecond)

	event := sender.sent()[0]
	assert.Equal(t, capi.EventInitiateCheckout, event.Name)
	assert.Equal(t, CheckoutDedupKey(resp.OrderID), event.ID)
	assert.Equal(t, "IC_"+resp.OrderID, event.ID)
	assert.Equal(t, float64(96000), event.CustomData.Value)
	assert.Equal(t, "203.0.113.9", event.ClientIP)
}

func TestCreateTransactionMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.IPaymu.VA = ""

	gateway := &fakeGateway{}
	svc := NewCheckoutService(cfg, gateway, &fakeSender{}, zap.NewNop())

	_, err := svc.CreateTransaction(context.Background(), &dto.CreateTransactionRequest{
		Amount:         96000,
		Product:        "Batch 8",
		PaymentMethod:  "qris",
		PaymentChannel: "qris",
	}, &ClientInfo{})

	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, gateway.createCalls, "no gateway call without credentials")
}

func TestCreateTransactionGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{createErr: &client.GatewayError{HTTPStatus: 400}}
	sender := &fakeSender{}
	svc := NewCheckoutService(testConfig(), gateway, sender, zap.NewNop())

	_, err := svc.CreateTransaction(context.Background(), &dto.CreateTransactionRequest{
		Amount:         96000,
		Product:        "Batch 8",
		PaymentMethod:  "qris",
		PaymentChannel: "qris",
	}, &ClientInfo{})

	var gerr *client.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Empty(t, sender.sent(), "no checkout event when creation fails")
}
