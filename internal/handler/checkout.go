package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"funnel-checkout/internal/client"
	"funnel-checkout/internal/dto"
	"funnel-checkout/internal/model"
	"funnel-checkout/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	reconciler      service.Reconciler
	logger          *zap.Logger
}

func NewCheckoutHandler(checkoutService service.CheckoutService, reconciler service.Reconciler, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		reconciler:      reconciler,
		logger:          logger,
	}
}

func clientInfo(c echo.Context) *service.ClientInfo {
	ip := c.Request().Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = c.Request().Header.Get("X-Real-Ip")
	}
	return &service.ClientInfo{
		IP:        ip,
		UserAgent: c.Request().UserAgent(),
	}
}

func (h *CheckoutHandler) CreateTransaction(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Amount <= 0 || req.Product == "" || req.PaymentMethod == "" || req.PaymentChannel == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Amount, product, paymentMethod, and paymentChannel are required",
		})
	}

	result, err := h.checkoutService.CreateTransaction(ctx, &req, clientInfo(c))
	if err != nil {
		if errors.Is(err, service.ErrMissingCredentials) {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Server configuration error: Missing iPaymu credentials",
			})
		}

		var gerr *client.GatewayError
		if errors.As(err, &gerr) {
			status := gerr.HTTPStatus
			if status == http.StatusOK {
				status = http.StatusBadRequest
			}
			return c.JSON(status, map[string]any{
				"error":   "Failed to create transaction",
				"details": gerr.Detail,
			})
		}

		h.logger.Error("create transaction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, result)
}

// CheckStatus is the poll path. It always answers 200 with paid=false on
// gateway trouble; polling clients retry on their own schedule.
func (h *CheckoutHandler) CheckStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.TransactionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "transactionId is required"})
	}

	return c.JSON(http.StatusOK, h.reconciler.ObserveStatus(ctx, &req, clientInfo(c)))
}

// Webhook receives iPaymu's payment notification callbacks.
func (h *CheckoutHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	var notification model.PaymentNotification
	if err := c.Bind(&notification); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid notification body"})
	}

	resp, err := h.reconciler.HandleNotification(ctx, &notification)
	if err != nil {
		if errors.Is(err, service.ErrNoOrderReference) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing reference_id"})
		}

		h.logger.Error("webhook processing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// VerifyPurchase is an admin/debug re-verification of one transaction
// against the gateway.
func (h *CheckoutHandler) VerifyPurchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.OrderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Order ID is required"})
	}

	return c.JSON(http.StatusOK, h.reconciler.VerifyPurchase(ctx, &req))
}
