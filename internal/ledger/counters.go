package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// retention is how long counter markers are kept; every write prunes
// anything older.
const retention = 24 * time.Hour

type EventKind string

const (
	EventVisitor  EventKind = "visitor"
	EventCheckout EventKind = "checkout"
	EventPurchase EventKind = "purchase"
)

// ParseEventKind validates a client-supplied event type.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case EventVisitor, EventCheckout, EventPurchase:
		return EventKind(s), true
	}
	return "", false
}

// Marker is one timestamped occurrence of an event. The JSON shape is the
// events.json wire format.
type Marker struct {
	Timestamp time.Time `json:"timestamp"`
}

type counterDocument struct {
	Visitors  []Marker `json:"visitors"`
	Checkouts []Marker `json:"checkouts"`
	Purchases []Marker `json:"purchases"`
}

type WindowCounts struct {
	Visitors  int `json:"visitors"`
	Checkouts int `json:"checkouts"`
	Purchases int `json:"purchases"`
}

type Stats struct {
	Realtime    WindowCounts `json:"realtime"`
	Last6Hours  WindowCounts `json:"last6Hours"`
	Last24Hours WindowCounts `json:"last24Hours"`
}

// CounterStore is the events.json store. All writes go through one mutex;
// reads of a missing or corrupt file fail open to an empty document.
type CounterStore struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *zap.Logger
}

func NewCounterStore(dataDir string, logger *zap.Logger) *CounterStore {
	return &CounterStore{
		path:   filepath.Join(dataDir, "events.json"),
		now:    time.Now,
		logger: logger,
	}
}

// Append records one event marker, prunes all three sequences to the
// retention window and persists the result.
func (s *CounterStore) Append(kind EventKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	now := s.now()
	marker := Marker{Timestamp: now}

	switch kind {
	case EventVisitor:
		doc.Visitors = append(doc.Visitors, marker)
	case EventCheckout:
		doc.Checkouts = append(doc.Checkouts, marker)
	case EventPurchase:
		doc.Purchases = append(doc.Purchases, marker)
	}

	cutoff := now.Add(-retention)
	doc.Visitors = pruneBefore(doc.Visitors, cutoff)
	doc.Checkouts = pruneBefore(doc.Checkouts, cutoff)
	doc.Purchases = pruneBefore(doc.Purchases, cutoff)

	return writeJSONFile(s.path, doc)
}

// Stats returns counts for the 1h, 6h and 24h windows. Raw markers are
// never exposed.
func (s *CounterStore) Stats() *Stats {
	s.mu.Lock()
	doc := s.load()
	now := s.now()
	s.mu.Unlock()

	return &Stats{
		Realtime:    countSince(doc, now.Add(-time.Hour)),
		Last6Hours:  countSince(doc, now.Add(-6*time.Hour)),
		Last24Hours: countSince(doc, now.Add(-retention)),
	}
}

func (s *CounterStore) load() *counterDocument {
	doc := &counterDocument{
		Visitors:  []Marker{},
		Checkouts: []Marker{},
		Purchases: []Marker{},
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("events document unreadable, starting empty", zap.Error(err))
		return &counterDocument{
			Visitors:  []Marker{},
			Checkouts: []Marker{},
			Purchases: []Marker{},
		}
	}
	return doc
}

func pruneBefore(markers []Marker, cutoff time.Time) []Marker {
	kept := markers[:0]
	for _, m := range markers {
		if m.Timestamp.After(cutoff) {
			kept = append(kept, m)
		}
	}
	return kept
}

func countSince(doc *counterDocument, cutoff time.Time) WindowCounts {
	count := func(markers []Marker) int {
		n := 0
		for _, m := range markers {
			if m.Timestamp.After(cutoff) {
				n++
			}
		}
		return n
	}
	return WindowCounts{
		Visitors:  count(doc.Visitors),
		Checkouts: count(doc.Checkouts),
		Purchases: count(doc.Purchases),
	}
}
