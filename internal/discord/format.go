package discord

import (
	"fmt"
	"strings"

	"github.com/NgigiN/fraudshield/internal/ledger"
)

// historyLimit caps the rows shown by !history.
const historyLimit = 10

func formatResult(rec ledger.Record, ref string) string {
	var sb strings.Builder
	sb.WriteString("**Analysis Result**")
	if ref != "" {
		fmt.Fprintf(&sb, " for %s", ref)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Txn: `%s`\n", rec.TxnID)
	fmt.Fprintf(&sb, "Type: %s, Amount: %.2f\n", rec.Type, rec.Amount)
	fmt.Fprintf(&sb, "Anomaly score: %.4f\n", rec.AnomalyScore)
	fmt.Fprintf(&sb, "Verdict: **%s**", rec.Verdict())
	if rec.ModelVersion != "" {
		fmt.Fprintf(&sb, " (model %s)", rec.ModelVersion)
	}
	return sb.String()
}

func formatHistory(records []ledger.Record) string {
	if len(records) == 0 {
		return "No transactions found."
	}
	var sb strings.Builder
	sb.WriteString("**Transaction History**\n")
	for _, r := range ledger.Recent(records, historyLimit) {
		fmt.Fprintf(&sb, "• `%s` %s %.2f score %.3f **%s** %s\n",
			shortID(r.TxnID), r.Type, r.Amount, r.AnomalyScore, r.Verdict(),
			r.Timestamp.Local().Format("Jan 2, 2006 3:04 PM"))
	}
	if len(records) > historyLimit {
		fmt.Fprintf(&sb, "... and %d more transactions\n", len(records)-historyLimit)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTrack(records []ledger.Record) string {
	window := ledger.Recent(records, ledger.TrackWindow)
	agg := ledger.AggregateByType(window, ledger.KnownTypes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Live Tracking** (last %d of %d)\n", len(window), len(records))
	sb.WriteString("```\n")
	fmt.Fprintf(&sb, "%-9s %7s %11s\n", "TYPE", "NORMAL", "SUSPICIOUS")
	for _, t := range ledger.KnownTypes {
		c := agg[t]
		fmt.Fprintf(&sb, "%-9s %7d %11d\n", t, c.Normal, c.Suspicious)
	}
	sb.WriteString("```\n")
	fmt.Fprintf(&sb, "Suspicious in window: %d", len(ledger.Suspicious(window)))
	return sb.String()
}

func formatSummary(records []ledger.Record) string {
	s := ledger.Summarize(records)
	return fmt.Sprintf("**Summary**\nTransactions analyzed: %d\nSuspicious: %d\nEstimated affected amount: %s",
		s.Total, s.Suspicious, s.AffectedAmount.StringFixed(2))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
