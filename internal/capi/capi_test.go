package capi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funnel-checkout/internal/config"
)

func newTestSender(graphURL string) Sender {
	return NewSender(&config.Meta{
		PixelID:     "123456",
		AccessToken: "token",
		GraphURL:    graphURL,
	}, zap.NewNop())
}

func TestHashFieldNormalizes(t *testing.T) {
	assert.Equal(t, hashField("user@example.com"), hashField("  User@Example.COM "))
	assert.Len(t, hashField("user@example.com"), 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, hashField("user@example.com"))
}

func TestSendMissingConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no network call expected when credentials are missing")
	}))
	defer srv.Close()

	s := NewSender(&config.Meta{GraphURL: srv.URL}, zap.NewNop())
	result := s.Send(context.Background(), &Event{Name: EventPurchase, ID: "AAB-1"})

	assert.Equal(t, StatusMissingConfig, result.Status)
	assert.False(t, result.Delivered())
}

func TestSendBuildsPayload(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		fmt.Fprint(w, `{"events_received": 1}`)
	}))
	defer srv.Close()

	s := newTestSender(srv.URL)
	result := s.Send(context.Background(), &Event{
		Name:            EventPurchase,
		ID:              "AAB-1",
		SourceURL:       "https://example.com/checkout.html",
		CustomerEmail:   "User@Example.com ",
		FBP:             "fb.1.1700000000.123",
		ClientIP:        "203.0.113.9",
		ClientUserAgent: "Mozilla/5.0",
		CustomData: CustomData{
			Currency: "IDR",
			Value:    96000,
		},
	})

	require.True(t, result.Delivered())
	assert.JSONEq(t, `{"events_received": 1}`, string(result.Response))
	assert.Equal(t, "/123456/events", gotPath)
	assert.Equal(t, "token", gotPayload["access_token"])

	data := gotPayload["data"].([]any)
	require.Len(t, data, 1)
	record := data[0].(map[string]any)
	assert.Equal(t, "Purchase", record["event_name"])
	assert.Equal(t, "AAB-1", record["event_id"])
	assert.Equal(t, "website", record["action_source"])
	assert.NotZero(t, record["event_time"])

	user := record["user_data"].(map[string]any)
	assert.Equal(t, []any{hashField("User@Example.com ")}, user["em"], "email is normalized and hashed")
	assert.Equal(t, "fb.1.1700000000.123", user["fbp"], "cookies pass through unhashed")
	assert.Equal(t, "203.0.113.9", user["client_ip_address"])

	// Absent identity fields must be omitted, never sent empty.
	assert.NotContains(t, user, "ph")
	assert.NotContains(t, user, "fn")
	assert.NotContains(t, user, "fbc")
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Invalid parameter"}}`)
	}))
	defer srv.Close()

	s := newTestSender(srv.URL)
	result := s.Send(context.Background(), &Event{Name: EventPurchase, ID: "AAB-1"})

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, string(result.Response), "Invalid parameter")
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := newTestSender(srv.URL)
	result := s.Send(context.Background(), &Event{Name: EventInitiateCheckout, ID: "IC_AAB-1"})

	assert.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
}
