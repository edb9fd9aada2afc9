// Package capi delivers server-side conversion events to the Meta
// Conversions API. Delivery is best effort: Send reports its outcome as a
// value and never returns an error, because conversion tracking must not
// block the purchase flow.
package capi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"funnel-checkout/internal/config"
	"funnel-checkout/internal/metrics"
)

const (
	EventInitiateCheckout = "InitiateCheckout"
	EventPurchase         = "Purchase"
)

const (
	StatusSent          = "sent"
	StatusMissingConfig = "missing_config"
	StatusFailed        = "failed"
)

type Sender interface {
	Send(ctx context.Context, event *Event) *Result
}

// Event is one conversion event. ID is the dedup key Meta uses to collapse
// the server-side event with the browser pixel event (and with a second
// server-side submission of the same purchase).
type Event struct {
	Name            string
	ID              string
	SourceURL       string
	CustomerEmail   string
	CustomerPhone   string
	CustomerName    string
	FBC             string
	FBP             string
	ClientIP        string
	ClientUserAgent string
	CustomData      CustomData
}

type CustomData struct {
	Currency        string  `json:"currency,omitempty"`
	Value           float64 `json:"value,omitempty"`
	ContentName     string  `json:"content_name,omitempty"`
	ContentCategory string  `json:"content_category,omitempty"`
}

// Result is the outcome of one delivery attempt.
type Result struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (r *Result) Delivered() bool {
	return r.Status == StatusSent
}

type userData struct {
	Em              []string `json:"em,omitempty"`
	Ph              []string `json:"ph,omitempty"`
	Fn              []string `json:"fn,omitempty"`
	FBC             string   `json:"fbc,omitempty"`
	FBP             string   `json:"fbp,omitempty"`
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
}

type eventRecord struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	EventSourceURL string     `json:"event_source_url"`
	ActionSource   string     `json:"action_source"`
	UserData       userData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

type eventPayload struct {
	Data        []eventRecord `json:"data"`
	AccessToken string        `json:"access_token"`
}

type senderImpl struct {
	httpClient  *http.Client
	graphURL    string
	pixelID     string
	accessToken string
	logger      *zap.Logger
}

func NewSender(cfg *config.Meta, logger *zap.Logger) Sender {
	return &senderImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		graphURL:    strings.TrimSuffix(cfg.GraphURL, "/"),
		pixelID:     cfg.PixelID,
		accessToken: cfg.AccessToken,
		logger:      logger,
	}
}

// hashField normalizes one PII match field the way Meta expects it:
// lowercased, trimmed, SHA-256 as lowercase hex.
func hashField(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:])
}

func (s *senderImpl) Send(ctx context.Context, event *Event) *Result {
	result := s.send(ctx, event)
	metrics.ConversionEvents.WithLabelValues(event.Name, result.Status).Inc()
	return result
}

func (s *senderImpl) send(ctx context.Context, event *Event) *Result {
	if s.pixelID == "" || s.accessToken == "" {
		s.logger.Warn("capi credentials missing, event not sent",
			zap.String("event", event.Name),
			zap.String("event_id", event.ID),
		)
		return &Result{Status: StatusMissingConfig, Error: "missing_credentials"}
	}

	// Absent identity fields are omitted entirely, never sent empty.
	user := userData{
		FBC:             event.FBC,
		FBP:             event.FBP,
		ClientIPAddress: event.ClientIP,
		ClientUserAgent: event.ClientUserAgent,
	}
	if event.CustomerEmail != "" {
		user.Em = []string{hashField(event.CustomerEmail)}
	}
	if event.CustomerPhone != "" {
		user.Ph = []string{hashField(event.CustomerPhone)}
	}
	if event.CustomerName != "" {
		user.Fn = []string{hashField(event.CustomerName)}
	}

	payload := eventPayload{
		Data: []eventRecord{{
			EventName:      event.Name,
			EventTime:      time.Now().Unix(),
			EventID:        event.ID,
			EventSourceURL: event.SourceURL,
			ActionSource:   "website",
			UserData:       user,
			CustomData:     event.CustomData,
		}},
		AccessToken: s.accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &Result{Status: StatusFailed, Error: err.Error()}
	}

	url := s.graphURL + "/" + s.pixelID + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Result{Status: StatusFailed, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("capi request failed",
			zap.String("event", event.Name),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return &Result{Status: StatusFailed, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Status: StatusFailed, Error: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("capi rejected event",
			zap.String("event", event.Name),
			zap.String("event_id", event.ID),
			zap.Int("status", resp.StatusCode),
		)
		result := &Result{Status: StatusFailed, Error: resp.Status}
		if json.Valid(raw) {
			result.Response = raw
		}
		return result
	}

	s.logger.Info("capi event sent",
		zap.String("event", event.Name),
		zap.String("event_id", event.ID),
	)
	result := &Result{Status: StatusSent}
	if json.Valid(raw) {
		result.Response = raw
	}
	return result
}
