package ledger

import "strings"

// Dedupe collapses records to one per txn_id. Input is newest-first, so the
// first occurrence of an id is the latest and wins; the order of kept records
// is preserved. Records without an id are dropped.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.TxnID) == "" {
			continue
		}
		if _, ok := seen[r.TxnID]; ok {
			continue
		}
		seen[r.TxnID] = struct{}{}
		out = append(out, r)
	}
	return out
}
