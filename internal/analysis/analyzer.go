// Package analysis runs one submission through the scoring service and
// records the outcome in the ledger.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/metrics"
	"github.com/NgigiN/fraudshield/internal/mpesa"
	"github.com/NgigiN/fraudshield/internal/predict"
)

const (
	DefaultOrigin      = "USER"
	DefaultDestination = "MERCHANT"
)

var (
	// ErrAnalysisFailed is what the user sees when scoring did not complete.
	ErrAnalysisFailed = errors.New("Transaction analysis failed")
	// ErrInFlight rejects a submission while another one is being scored.
	ErrInFlight = errors.New("an analysis is already in progress")
	// ErrAlreadyRecorded means the ledger already holds this txn_id.
	ErrAlreadyRecorded = errors.New("transaction already analyzed")
)

// Predictor scores one transaction. *predict.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, in predict.Request) (*predict.Response, error)
}

// Recorder is the write side of the ledger.
type Recorder interface {
	Append(ctx context.Context, rec ledger.Record) (bool, error)
}

// Input is what the user fills in on the transfer form. TxnID is set only
// when the source already carries an id, such as an M-PESA confirmation.
type Input struct {
	TxnID          string
	Type           ledger.Type
	Amount         float64
	OldBalanceOrg  float64
	NewBalanceOrg  float64
	OldBalanceDest float64
	NewBalanceDest float64
}

func (in Input) Validate() error {
	if _, err := ledger.ParseType(string(in.Type)); err != nil {
		return err
	}
	for _, v := range []float64{in.Amount, in.OldBalanceOrg, in.NewBalanceOrg, in.OldBalanceDest, in.NewBalanceDest} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ledger.ErrInvalidAmount)
		}
	}
	if in.Amount < 0 {
		return fmt.Errorf("%w (got %v)", ledger.ErrInvalidAmount, in.Amount)
	}
	return nil
}

// FromConfirmation turns a parsed M-PESA message into an Input. The sender
// balance before the payment is reconstructed as balance + amount + cost;
// destination balances are unknown and left at zero. The M-PESA code becomes
// the txn_id, so pasting the same confirmation twice records it once.
func FromConfirmation(c *mpesa.Confirmation) Input {
	t := ledger.Transfer
	if c.Kind == mpesa.Paid {
		t = ledger.Payment
	}
	return Input{
		TxnID:         c.TransactionID,
		Type:          t,
		Amount:        c.Amount,
		OldBalanceOrg: c.Balance + c.Amount + c.Cost,
		NewBalanceOrg: c.Balance,
	}
}

// Analyzer allows one submission at a time per instance.
type Analyzer struct {
	predictor Predictor
	ledger    Recorder
	now       func() time.Time
	newID     func() string
	busy      atomic.Bool
}

type Option func(*Analyzer)

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithIDFunc replaces the txn_id generator.
func WithIDFunc(f func() string) Option {
	return func(a *Analyzer) { a.newID = f }
}

func New(p Predictor, l Recorder, opts ...Option) *Analyzer {
	a := &Analyzer{
		predictor: p,
		ledger:    l,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores in and appends the result to the ledger. The ledger is
// written exactly once per successful call and never on failure.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (ledger.Record, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return ledger.Record{}, ErrInFlight
	}
	defer a.busy.Store(false)

	logger := appcontext.Logger(ctx)

	if err := in.Validate(); err != nil {
		return ledger.Record{}, err
	}
	in.Type, _ = ledger.ParseType(string(in.Type))

	txnID := strings.TrimSpace(in.TxnID)
	if txnID == "" {
		txnID = a.newID()
	}
	req := predict.Request{
		TxnID:          txnID,
		Step:           a.now().Unix(),
		Type:           in.Type,
		Amount:         in.Amount,
		OldBalanceOrg:  in.OldBalanceOrg,
		NewBalanceOrg:  in.NewBalanceOrg,
		OldBalanceDest: in.OldBalanceDest,
		NewBalanceDest: in.NewBalanceDest,
		Origin:         DefaultOrigin,
		Destination:    DefaultDestination,
	}

	resp, err := a.predictor.Predict(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "prediction call failed", "txn_id", req.TxnID, "error", err)
		return ledger.Record{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	rec := ledger.Record{
		TxnID:            req.TxnID,
		Step:             req.Step,
		Type:             req.Type,
		Amount:           req.Amount,
		OldBalanceOrg:    req.OldBalanceOrg,
		NewBalanceOrg:    req.NewBalanceOrg,
		OldBalanceDest:   req.OldBalanceDest,
		NewBalanceDest:   req.NewBalanceDest,
		Origin:           req.Origin,
		Destination:      req.Destination,
		AnomalyScore:     resp.AnomalyScore,
		PredictedAnomaly: resp.PredictedAnomaly,
		ModelVersion:     resp.ModelVersion,
		Timestamp:        a.now().UTC(),
	}

	added, err := a.ledger.Append(ctx, rec)
	if err != nil {
		logger.ErrorContext(ctx, "failed to record analysis", "txn_id", rec.TxnID, "error", err)
		return rec, fmt.Errorf("record analysis: %w", err)
	}
	if !added {
		logger.InfoContext(ctx, "transaction already in ledger", "txn_id", rec.TxnID)
		return rec, fmt.Errorf("%w: %s", ErrAlreadyRecorded, rec.TxnID)
	}

	metrics.Analyses.WithLabelValues(string(rec.Type), rec.Verdict()).Inc()
	logger.InfoContext(ctx, "transaction analyzed",
		"txn_id", rec.TxnID,
		"type", rec.Type,
		"amount", rec.Amount,
		"score", rec.AnomalyScore,
		"verdict", rec.Verdict(),
	)
	return rec, nil
}
