package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"funnel-checkout/internal/config"
	"funnel-checkout/internal/dto"
	"funnel-checkout/internal/ledger"
	"funnel-checkout/internal/middleware"
)

type AdminHandler struct {
	admin     *config.Admin
	counters  *ledger.CounterStore
	purchases *ledger.PurchaseStore
	logger    *zap.Logger
}

func NewAdminHandler(admin *config.Admin, counters *ledger.CounterStore, purchases *ledger.PurchaseStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:     admin,
		counters:  counters,
		purchases: purchases,
		logger:    logger,
	}
}

func (h *AdminHandler) Auth(c echo.Context) error {
	var req dto.AuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Error: "invalid request body"})
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.admin.Email)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.admin.Password)) == 1
	if !emailOK || !passwordOK {
		return c.JSON(http.StatusUnauthorized, dto.AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	h.logger.Info("admin authenticated", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   middleware.AdminToken(req.Email, req.Password),
	})
}

// TrackEvent appends one counter marker for a funnel event fired by the
// landing page.
func (h *AdminHandler) TrackEvent(c echo.Context) error {
	var req dto.TrackEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	kind, ok := ledger.ParseEventKind(req.EventType)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event type"})
	}

	if err := h.counters.Append(kind); err != nil {
		h.logger.Error("append counter marker failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error"})
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.StatsResponse{
		Success: true,
		Stats:   h.counters.Stats(),
	})
}

func (h *AdminHandler) GetPurchases(c echo.Context) error {
	purchases := h.purchases.List()
	return c.JSON(http.StatusOK, dto.PurchasesResponse{
		Success:   true,
		Count:     len(purchases),
		Purchases: purchases,
	})
}
