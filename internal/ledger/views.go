package ledger

import "github.com/shopspring/decimal"

// TrackWindow is how many of the latest records the track view covers.
const TrackWindow = 20

// Recent returns the first n records of a newest-first sequence.
func Recent(records []Record, n int) []Record {
	if n <= 0 {
		return []Record{}
	}
	if n > len(records) {
		n = len(records)
	}
	return records[:n:n]
}

func Suspicious(records []Record) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Suspicious() {
			out = append(out, r)
		}
	}
	return out
}

// Counts is one bar pair of the track chart.
type Counts struct {
	Normal     int `json:"normal"`
	Suspicious int `json:"suspicious"`
}

// AggregateByType counts normal and suspicious records per known type. Every
// known type is present in the result; records of any other type are left out.
func AggregateByType(records []Record, known []Type) map[Type]Counts {
	agg := make(map[Type]Counts, len(known))
	for _, t := range known {
		agg[t] = Counts{}
	}
	for _, r := range records {
		c, ok := agg[r.Type]
		if !ok {
			continue
		}
		if r.Suspicious() {
			c.Suspicious++
		} else {
			c.Normal++
		}
		agg[r.Type] = c
	}
	return agg
}

// EstimatedAffectedAmount sums the amount of every suspicious record.
func EstimatedAffectedAmount(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Suspicious() {
			total = total.Add(decimal.NewFromFloat(r.Amount))
		}
	}
	return total
}

// Summary holds the home page figures.
type Summary struct {
	Total          int
	Suspicious     int
	AffectedAmount decimal.Decimal
}

func Summarize(records []Record) Summary {
	return Summary{
		Total:          len(records),
		Suspicious:     len(Suspicious(records)),
		AffectedAmount: EstimatedAffectedAmount(records),
	}
}
