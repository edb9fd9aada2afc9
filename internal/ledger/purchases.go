package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"funnel-checkout/internal/model"
)

// PurchaseStore is the purchases.json store: an append-only sequence of
// purchase records. Reads of a missing file fail open to an empty list;
// write failures are surfaced so a lost purchase record is visible to the
// caller instead of disappearing silently.
type PurchaseStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewPurchaseStore(dataDir string, logger *zap.Logger) *PurchaseStore {
	return &PurchaseStore{
		path:   filepath.Join(dataDir, "purchases.json"),
		logger: logger,
	}
}

func (s *PurchaseStore) Append(record *model.PurchaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	records = append(records, record)

	if err := writeJSONFile(s.path, records); err != nil {
		return fmt.Errorf("append purchase record: %w", err)
	}
	return nil
}

// List returns all purchase records, newest first.
func (s *PurchaseStore) List() []*model.PurchaseRecord {
	s.mu.Lock()
	records := s.load()
	s.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TrackedAt.After(records[j].TrackedAt)
	})
	return records
}

func (s *PurchaseStore) load() []*model.PurchaseRecord {
	records := []*model.PurchaseRecord{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("purchases document unreadable, starting empty", zap.Error(err))
		return []*model.PurchaseRecord{}
	}
	return records
}
