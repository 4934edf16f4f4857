package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/metrics"
	"github.com/NgigiN/fraudshield/internal/storage"
)

// DefaultKey is the key the history list lives under.
const DefaultKey = "history"

// Backend is a byte-level key-value store. Get returns storage.ErrNotFound
// when the key has no value.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store persists the raw, newest-first record list as one JSON array. It does
// not deduplicate; Ledger.Query does.
type Store struct {
	backend Backend
	key     string
}

func NewStore(backend Backend, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{backend: backend, key: key}
}

func (s *Store) Key() string { return s.key }

// Load returns the stored sequence. A missing value, or one that is not a
// JSON array, loads as empty without error. Array elements that cannot be
// decoded as a record are skipped.
func (s *Store) Load(ctx context.Context) ([]Record, error) {
	records, _, err := s.load(ctx)
	return records, err
}

// load also reports how many stored items could not be read. A value that is
// not a list counts as one.
func (s *Store) load(ctx context.Context) ([]Record, int, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", s.key, err)
	}
	records, dropped := decodeRecords(ctx, s.key, raw)
	return records, dropped, nil
}

func decodeRecords(ctx context.Context, key string, raw []byte) ([]Record, int) {
	logger := appcontext.Logger(ctx)

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		metrics.LedgerCorruptLoads.Inc()
		logger.WarnContext(ctx, "stored ledger is not a list, treating it as empty", "key", key, "error", err)
		return nil, 1
	}

	var dropped int
	records := make([]Record, 0, len(items))
	for i, item := range items {
		var r Record
		if err := json.Unmarshal(item, &r); err != nil {
			logger.WarnContext(ctx, "skipping unreadable ledger entry", "key", key, "index", i, "error", err)
			dropped++
			continue
		}
		records = append(records, r)
	}
	return records, dropped
}

// Save replaces the stored sequence in full.
func (s *Store) Save(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.backend.Put(ctx, s.key, b); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear %s: %w", s.key, err)
	}
	return nil
}
