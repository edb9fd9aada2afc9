package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"funnel-checkout/internal/capi"
	"funnel-checkout/internal/client"
	"funnel-checkout/internal/config"
	"funnel-checkout/internal/dto"
	"funnel-checkout/internal/ledger"
	"funnel-checkout/internal/metrics"
	"funnel-checkout/internal/model"
)

// ErrNoOrderReference means a gateway notification carried neither a
// reference id nor a transaction id, so it cannot be tied to an order.
var ErrNoOrderReference = errors.New("notification has no order reference")

// Reconciler is the one place that turns a payment-status observation into
// a Purchase conversion event and, on the webhook path, a persisted
// purchase record. Both entry points derive the dedup key through
// PurchaseDedupKey, so a payment observed by polling and by the webhook is
// still counted once by Meta.
type Reconciler interface {
	ObserveStatus(ctx context.Context, req *dto.CheckStatusRequest, info *ClientInfo) *dto.CheckStatusResponse
	HandleNotification(ctx context.Context, n *model.PaymentNotification) (*dto.WebhookResponse, error)
	VerifyPurchase(ctx context.Context, req *dto.VerifyPurchaseRequest) *dto.VerifyPurchaseResponse
}

type reconcilerImpl struct {
	cfg       *config.Config
	gateway   client.IpaymuClient
	sender    capi.Sender
	purchases *ledger.PurchaseStore
	logger    *zap.Logger
}

func NewReconciler(cfg *config.Config, gateway client.IpaymuClient, sender capi.Sender, purchases *ledger.PurchaseStore, logger *zap.Logger) Reconciler {
	return &reconcilerImpl{
		cfg:       cfg,
		gateway:   gateway,
		sender:    sender,
		purchases: purchases,
		logger:    logger,
	}
}

// ObserveStatus is the poll path. Gateway failures are reported as "not
// yet paid" rather than errors: the client keeps polling and the webhook
// is an independent backstop.
func (r *reconcilerImpl) ObserveStatus(ctx context.Context, req *dto.CheckStatusRequest, info *ClientInfo) *dto.CheckStatusResponse {
	status, err := r.gateway.CheckTransaction(ctx, req.TransactionID.Int64())
	if err != nil {
		var gerr *client.GatewayError
		if errors.As(err, &gerr) {
			return &dto.CheckStatusResponse{Paid: false, Status: "pending"}
		}
		r.logger.Warn("status check failed",
			zap.String("transaction_id", req.TransactionID.String()),
			zap.Error(err),
		)
		return &dto.CheckStatusResponse{Paid: false, Status: "error"}
	}

	paid := status.Paid()

	if paid && req.OrderID != "" {
		result := r.sender.Send(ctx, &capi.Event{
			Name:            capi.EventPurchase,
			ID:              PurchaseDedupKey(req.OrderID),
			SourceURL:       r.cfg.Funnel.SourceURL,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			CustomerName:    req.CustomerName,
			FBC:             req.FBC,
			FBP:             req.FBP,
			ClientIP:        info.IP,
			ClientUserAgent: info.UserAgent,
			CustomData: capi.CustomData{
				Currency:        r.cfg.Funnel.Currency,
				Value:           status.SettledAmount(r.cfg.Funnel.NominalPrice),
				ContentName:     r.cfg.Funnel.ContentName,
				ContentCategory: r.cfg.Funnel.ContentCategory,
			},
		})
		r.logger.Info("purchase observed by polling",
			zap.String("order_id", req.OrderID),
			zap.String("capi_status", result.Status),
		)
	}

	statusText := status.StatusDesc
	if statusText == "" {
		if paid {
			statusText = model.StatusSettled
		} else {
			statusText = "pending"
		}
	}

	return &dto.CheckStatusResponse{
		Paid:   paid,
		Status: statusText,
		Debug: &dto.StatusDebug{
			Status:     status.Status,
			StatusCode: status.StatusCode,
			StatusDesc: status.StatusDesc,
		},
	}
}

// HandleNotification is the push path. On a settled payment it fires the
// backup Purchase event and appends the purchase record; the record is
// written even when the conversion send fails, because tracking and
// bookkeeping are independent concerns.
func (r *reconcilerImpl) HandleNotification(ctx context.Context, n *model.PaymentNotification) (*dto.WebhookResponse, error) {
	orderID := n.OrderID()
	if orderID == "" {
		metrics.WebhookNotifications.WithLabelValues("invalid").Inc()
		return nil, ErrNoOrderReference
	}

	if !n.Succeeded() {
		metrics.WebhookNotifications.WithLabelValues("ignored").Inc()
		r.logger.Info("notification not settled, ignoring",
			zap.String("order_id", orderID),
			zap.String("status", n.Status),
			zap.String("status_code", n.StatusCode.String()),
		)
		return &dto.WebhookResponse{Status: "ok", Tracked: false, Reason: "not_settled"}, nil
	}

	amount := n.GrossAmount()

	result := r.sender.Send(ctx, &capi.Event{
		Name:          capi.EventPurchase,
		ID:            PurchaseDedupKey(orderID),
		SourceURL:     r.cfg.Funnel.SourceURL,
		CustomerEmail: n.CustomerEmail(),
		CustomerPhone: n.CustomerPhone(),
		CustomerName:  n.CustomerName(),
		CustomData: capi.CustomData{
			Currency:        r.cfg.Funnel.Currency,
			Value:           amount,
			ContentName:     r.cfg.Funnel.ContentName,
			ContentCategory: r.cfg.Funnel.ContentCategory,
		},
	})

	customerName := n.CustomerName()
	if customerName == "" {
		customerName = "Unknown"
	}

	record := &model.PurchaseRecord{
		OrderID:       orderID,
		TransactionID: n.TrxID.String(),
		SessionID:     n.SessionID,
		CustomerName:  customerName,
		CustomerEmail: n.CustomerEmail(),
		CustomerPhone: n.CustomerPhone(),
		Amount:        amount,
		Status:        n.Status,
		PaymentType:   n.PaymentType(),
		TrackedAt:     time.Now().UTC(),
		CapiResponse:  result,
		Source:        "webhook",
	}

	if err := r.purchases.Append(record); err != nil {
		metrics.WebhookNotifications.WithLabelValues("persist_failed").Inc()
		return nil, fmt.Errorf("persist purchase %s: %w", orderID, err)
	}

	metrics.WebhookNotifications.WithLabelValues("tracked").Inc()
	r.logger.Info("purchase tracked via webhook",
		zap.String("order_id", orderID),
		zap.Float64("amount", amount),
		zap.String("capi_status", result.Status),
	)

	return &dto.WebhookResponse{Status: "ok", Tracked: true, Message: "Purchase tracked via webhook"}, nil
}

// VerifyPurchase is the admin re-verification tool. It never fails hard:
// gateway errors simply leave the purchase unverified.
func (r *reconcilerImpl) VerifyPurchase(ctx context.Context, req *dto.VerifyPurchaseRequest) *dto.VerifyPurchaseResponse {
	resp := &dto.VerifyPurchaseResponse{
		OrderID:       req.OrderID,
		TransactionID: req.TransactionID,
	}

	transactionID := req.TransactionID.Int64()
	if transactionID == 0 || r.cfg.IPaymu.VA == "" || r.cfg.IPaymu.APIKey == "" {
		return resp
	}

	status, err := r.gateway.CheckTransaction(ctx, transactionID)
	if err != nil {
		r.logger.Warn("verify purchase gateway call failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		return resp
	}

	resp.Verified = status.Paid()
	resp.IpaymuData = status
	return resp
}
