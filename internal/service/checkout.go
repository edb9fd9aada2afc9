package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"funnel-checkout/internal/capi"
	"funnel-checkout/internal/client"
	"funnel-checkout/internal/config"
	"funnel-checkout/internal/dto"
	"funnel-checkout/internal/metrics"
)

// ErrMissingCredentials means the gateway VA or API key is absent from the
// process configuration. Operator intervention is required; there is no
// point retrying.
var ErrMissingCredentials = errors.New("missing ipaymu credentials")

// ClientInfo carries the end user's network identity for ad matching.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type CheckoutService interface {
	CreateTransaction(ctx context.Context, req *dto.CreateTransactionRequest, info *ClientInfo) (*dto.CreateTransactionResponse, error)
}

type checkoutServiceImpl struct {
	cfg     *config.Config
	gateway client.IpaymuClient
	sender  capi.Sender
	logger  *zap.Logger
}

func NewCheckoutService(cfg *config.Config, gateway client.IpaymuClient, sender capi.Sender, logger *zap.Logger) CheckoutService {
	return &checkoutServiceImpl{
		cfg:     cfg,
		gateway: gateway,
		sender:  sender,
		logger:  logger,
	}
}

func (s *checkoutServiceImpl) CreateTransaction(ctx context.Context, req *dto.CreateTransactionRequest, info *ClientInfo) (*dto.CreateTransactionResponse, error) {
	if s.cfg.IPaymu.VA == "" || s.cfg.IPaymu.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	orderID := NewOrderID()

	result, err := s.gateway.CreateDirectPayment(ctx, &client.DirectPaymentRequest{
		OrderID:        orderID,
		Amount:         req.Amount,
		Product:        req.Product,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		PaymentMethod:  req.PaymentMethod,
		PaymentChannel: req.PaymentChannel,
	})
	if err != nil {
		return nil, err
	}

	metrics.TransactionsCreated.Inc()
	s.logger.Info("direct payment created",
		zap.String("order_id", orderID),
		zap.Int64("transaction_id", result.TransactionID),
		zap.String("method", req.PaymentMethod),
		zap.String("channel", req.PaymentChannel),
	)

	// InitiateCheckout is fired server-side so it lands even when the
	// browser blocks the pixel. Detached on purpose: the checkout response
	// never waits on Meta, failures are logged and not joined.
	event := &capi.Event{
		Name:            capi.EventInitiateCheckout,
		ID:              CheckoutDedupKey(orderID),
		SourceURL:       s.cfg.Funnel.SourceURL,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		FBC:             req.FBC,
		FBP:             req.FBP,
		ClientIP:        info.IP,
		ClientUserAgent: info.UserAgent,
		CustomData: capi.CustomData{
			Currency:        s.cfg.Funnel.Currency,
			Value:           float64(req.Amount),
			ContentName:     s.cfg.Funnel.ContentName,
			ContentCategory: s.cfg.Funnel.ContentCategory,
		},
	}
	go func() {
		res := s.sender.Send(context.Background(), event)
		if !res.Delivered() {
			s.logger.Warn("initiate checkout event not delivered",
				zap.String("event_id", event.ID),
				zap.String("status", res.Status),
				zap.String("error", res.Error),
			)
		}
	}()

	return &dto.CreateTransactionResponse{
		OrderID:       orderID,
		TransactionID: result.TransactionID,
		PaymentNo:     result.PaymentNo,
		PaymentName:   result.PaymentName,
		Expired:       result.Expired,
		QrisURL:       result.QrisURL,
		QrString:      result.QrString,
		Total:         result.Total.InexactFloat64(),
	}, nil
}
