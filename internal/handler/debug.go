package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"funnel-checkout/internal/config"
	"funnel-checkout/internal/model"
	"funnel-checkout/internal/service"
)

// DebugHandler exposes the webhook dry-run endpoint: it walks a
// notification payload through the same decisions the real webhook makes
// and reports each step, without sending events or writing records.
type DebugHandler struct {
	cfg *config.Config
}

func NewDebugHandler(cfg *config.Config) *DebugHandler {
	return &DebugHandler{cfg: cfg}
}

type debugStep struct {
	Step      string    `json:"step"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *DebugHandler) TestWebhook(c echo.Context) error {
	steps := []debugStep{}
	logStep := func(step string, data any) {
		steps = append(steps, debugStep{Step: step, Data: data, Timestamp: time.Now().UTC()})
	}

	logStep("START", "Webhook test started")

	var n model.PaymentNotification
	if err := c.Bind(&n); err != nil {
		logStep("PAYLOAD_ERROR", err.Error())
		return c.JSON(http.StatusOK, map[string]any{"error": "invalid notification body", "logs": steps})
	}

	logStep("PAYLOAD_RECEIVED", map[string]any{
		"trx_id":       n.TrxID,
		"reference_id": n.ReferenceID,
		"status":       n.Status,
		"status_code":  n.StatusCode,
		"total":        n.Total,
		"via":          n.Via,
	})

	logStep("ENV_CHECK", map[string]any{
		"hasVA":        h.cfg.IPaymu.VA != "",
		"hasApiKey":    h.cfg.IPaymu.APIKey != "",
		"hasPixelId":   h.cfg.Meta.PixelID != "",
		"hasCAPIToken": h.cfg.Meta.AccessToken != "",
		"isProduction": h.cfg.IPaymu.Production,
	})

	logStep("STATUS_CHECK", map[string]any{
		"status":      n.Status,
		"status_code": n.StatusCode,
		"is_success":  n.Succeeded(),
	})

	orderID := n.OrderID()
	logStep("DEDUP_KEY", map[string]any{
		"order_id":  orderID,
		"event_id":  service.PurchaseDedupKey(orderID),
		"has_order": orderID != "",
	})

	return c.JSON(http.StatusOK, map[string]any{
		"would_track": orderID != "" && n.Succeeded(),
		"logs":        steps,
	})
}
