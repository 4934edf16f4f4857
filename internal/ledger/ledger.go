package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/metrics"
)

// Ledger is the only read and write path to the history. Views never touch
// the Store directly.
//
// Load-modify-save runs under mu: bot handlers and the track ticker call in
// from different goroutines.
type Ledger struct {
	mu    sync.Mutex
	store *Store
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock sets the clock used to stamp records that arrive without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store *Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append prepends rec unless its txn_id is already stored anywhere in the raw
// sequence. added is false for that no-op. Invalid records are rejected with
// an error wrapping ErrInvalidRecord and nothing is written. Stored items that
// could not be read are not carried over by the save.
func (l *Ledger) Append(ctx context.Context, rec Record) (added bool, err error) {
	logger := appcontext.Logger(ctx)

	if err := rec.Validate(); err != nil {
		metrics.LedgerAppends.WithLabelValues("invalid").Inc()
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	raw, dropped, err := l.store.load(ctx)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("error").Inc()
		return false, err
	}
	for _, r := range raw {
		if r.TxnID == rec.TxnID {
			metrics.LedgerAppends.WithLabelValues("duplicate").Inc()
			logger.DebugContext(ctx, "txn already in ledger, append is a no-op", "txn_id", rec.TxnID)
			return false, nil
		}
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	next := make([]Record, 0, len(raw)+1)
	next = append(next, rec)
	next = append(next, raw...)

	if err := l.store.Save(ctx, next); err != nil {
		metrics.LedgerAppends.WithLabelValues("error").Inc()
		return false, err
	}
	if dropped > 0 {
		logger.WarnContext(ctx, "append overwrote unreadable ledger data", "key", l.store.Key(), "dropped", dropped)
	}
	metrics.LedgerAppends.WithLabelValues("added").Inc()
	logger.DebugContext(ctx, "appended txn", "txn_id", rec.TxnID, "size", len(next))
	return true, nil
}

// Query returns one record per txn_id, newest first.
func (l *Ledger) Query(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Dedupe(raw), nil
}

func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Clear(ctx); err != nil {
		return err
	}
	metrics.LedgerClears.Inc()
	appcontext.Logger(ctx).InfoContext(ctx, "ledger cleared", "key", l.store.Key())
	return nil
}
