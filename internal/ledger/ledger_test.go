package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"funnel-checkout/internal/capi"
	"funnel-checkout/internal/model"
)

func TestParseEventKind(t *testing.T) {
	for _, valid := range []string{"visitor", "checkout", "purchase"} {
		_, ok := ParseEventKind(valid)
		assert.True(t, ok, valid)
	}

	_, ok := ParseEventKind("refund")
	assert.False(t, ok)
}

func TestCounterStorePrunesRetentionWindow(t *testing.T) {
	store := NewCounterStore(t.TempDir(), zap.NewNop())

	base := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	clock := base.Add(-30 * time.Hour)
	store.now = func() time.Time { return clock }

	// Spread markers across more than 24 hours.
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(EventVisitor))
		clock = clock.Add(3 * time.Hour)
	}

	clock = base
	require.NoError(t, store.Append(EventVisitor))

	stats := store.Stats()
	assert.Equal(t, stats.Last24Hours.Visitors, countMarkersOnDisk(t, store.path), "no marker on disk may be older than 24h")
}

func TestCounterStoreWindowsMonotonic(t *testing.T) {
	store := NewCounterStore(t.TempDir(), zap.NewNop())

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{10 * time.Minute, 2 * time.Hour, 12 * time.Hour} {
		clock := now.Add(-age)
		store.now = func() time.Time { return clock }
		require.NoError(t, store.Append(EventCheckout))
	}
	store.now = func() time.Time { return now }

	stats := store.Stats()
	assert.Equal(t, 1, stats.Realtime.Checkouts)
	assert.Equal(t, 2, stats.Last6Hours.Checkouts)
	assert.Equal(t, 3, stats.Last24Hours.Checkouts)

	assert.LessOrEqual(t, stats.Realtime.Checkouts, stats.Last6Hours.Checkouts)
	assert.LessOrEqual(t, stats.Last6Hours.Checkouts, stats.Last24Hours.Checkouts)
}

func TestCounterStoreFailOpenRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0o644))

	store := NewCounterStore(dir, zap.NewNop())
	stats := store.Stats()

	assert.Zero(t, stats.Last24Hours.Visitors)
}

func TestCounterStoreWireFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewCounterStore(dir, zap.NewNop())
	require.NoError(t, store.Append(EventPurchase))

	data, err := os.ReadFile(filepath.Join(dir, "events.json"))
	require.NoError(t, err)

	var doc map[string][]map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "visitors")
	require.Contains(t, doc, "checkouts")
	require.Len(t, doc["purchases"], 1)
	assert.Contains(t, doc["purchases"][0], "timestamp")
}

func TestPurchaseStoreAppendAndList(t *testing.T) {
	store := NewPurchaseStore(t.TempDir(), zap.NewNop())

	older := &model.PurchaseRecord{
		OrderID:      "AAB-1",
		Amount:       96000,
		TrackedAt:    time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
		CapiResponse: &capi.Result{Status: capi.StatusSent},
		Source:       "webhook",
	}
	newer := &model.PurchaseRecord{
		OrderID:   "AAB-2",
		Amount:    96000,
		TrackedAt: time.Date(2026, 3, 7, 11, 0, 0, 0, time.UTC),
		Source:    "webhook",
	}

	require.NoError(t, store.Append(older))
	require.NoError(t, store.Append(newer))

	records := store.List()
	require.Len(t, records, 2)
	assert.Equal(t, "AAB-2", records[0].OrderID, "newest first")
	assert.Equal(t, "AAB-1", records[1].OrderID)
	assert.Equal(t, capi.StatusSent, records[1].CapiResponse.Status)
}

func TestPurchaseStoreMissingFile(t *testing.T) {
	store := NewPurchaseStore(t.TempDir(), zap.NewNop())

	assert.Empty(t, store.List())
}

func TestPurchaseStoreWireFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewPurchaseStore(dir, zap.NewNop())

	require.NoError(t, store.Append(&model.PurchaseRecord{
		OrderID:       "AAB-1",
		TransactionID: "118604",
		CustomerName:  "Unknown",
		Amount:        96000,
		Status:        "berhasil",
		PaymentType:   "qris",
		TrackedAt:     time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
		Source:        "webhook",
	}))

	data, err := os.ReadFile(filepath.Join(dir, "purchases.json"))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "AAB-1", rows[0]["orderId"])
	assert.Equal(t, float64(96000), rows[0]["amount"])
	assert.Equal(t, "webhook", rows[0]["source"])
	assert.Contains(t, rows[0], "trackedAt")
}

func countMarkersOnDisk(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc counterDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return len(doc.Visitors)
}
