// Package ledger is the client-side history of analyzed transactions: the
// record model, the store that persists it under one key, deduplication and
// the read-only views every surface renders from.
package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the transaction kind the scoring model was trained on.
type Type string

const (
	Transfer Type = "TRANSFER"
	Payment  Type = "PAYMENT"
	CashOut  Type = "CASH_OUT"
	CashIn   Type = "CASH_IN"
)

// KnownTypes is the fixed set of types the track view aggregates, in display order.
var KnownTypes = []Type{Transfer, Payment, CashOut, CashIn}

// ParseType accepts any casing and surrounding whitespace.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range KnownTypes {
		if t == k {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Flag is the collaborator's predicted_anomaly value. The scoring service
// sends 0/1; older stored records carry true/false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", "false":
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if v, err := strconv.ParseBool(s); err == nil {
			*f = Flag(v)
			return nil
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("predicted_anomaly: cannot decode %s", string(b))
	}
	*f = n != 0
	return nil
}

// Record is one analyzed transaction. JSON names match both the prediction
// request and the stored history.
type Record struct {
	TxnID            string    `json:"txn_id"`
	Step             int64     `json:"step,omitempty"`
	Type             Type      `json:"type"`
	Amount           float64   `json:"amount"`
	OldBalanceOrg    float64   `json:"oldbalanceOrg"`
	NewBalanceOrg    float64   `json:"newbalanceOrg"`
	OldBalanceDest   float64   `json:"oldbalanceDest"`
	NewBalanceDest   float64   `json:"newbalanceDest"`
	Origin           string    `json:"origin,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	AnomalyScore     float64   `json:"anomaly_score"`
	PredictedAnomaly Flag      `json:"predicted_anomaly"`
	ModelVersion     string    `json:"model_version,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Suspicious reports whether the score crossed zero. predicted_anomaly is
// not consulted.
func (r Record) Suspicious() bool {
	return r.AnomalyScore > 0
}

// Validate checks what Append needs: a key and a usable amount.
func (r Record) Validate() error {
	if strings.TrimSpace(r.TxnID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingID)
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount < 0 {
		return fmt.Errorf("%w: %w (got %v)", ErrInvalidRecord, ErrInvalidAmount, r.Amount)
	}
	return nil
}

// Verdict is the label shown next to a score.
func (r Record) Verdict() string {
	if r.Suspicious() {
		return "Suspicious"
	}
	return "Normal"
}
