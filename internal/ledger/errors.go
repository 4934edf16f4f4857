package ledger

import "errors"

var (
	// ErrInvalidRecord wraps every reason Append refuses a record.
	ErrInvalidRecord = errors.New("invalid record")

	ErrMissingID     = errors.New("txn_id is required")
	ErrInvalidAmount = errors.New("amount must be a finite number >= 0")
	ErrUnknownType   = errors.New("unknown transaction type")
)
