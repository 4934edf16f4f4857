package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/NgigiN/fraudshield/internal/ledger"
)

func renderResult(w io.Writer, rec ledger.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Txn ID:\t%s\n", rec.TxnID)
	fmt.Fprintf(tw, "Type:\t%s\n", rec.Type)
	fmt.Fprintf(tw, "Amount:\t%.2f\n", rec.Amount)
	fmt.Fprintf(tw, "Anomaly score:\t%.4f\n", rec.AnomalyScore)
	fmt.Fprintf(tw, "Verdict:\t%s\n", rec.Verdict())
	if rec.ModelVersion != "" {
		fmt.Fprintf(tw, "Model:\t%s\n", rec.ModelVersion)
	}
	return tw.Flush()
}

func renderHistory(w io.Writer, records []ledger.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No transactions found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TXN ID\tTYPE\tAMOUNT\tSCORE\tSTATUS\tTIME")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.3f\t%s\t%s\n",
			r.TxnID, r.Type, r.Amount, r.AnomalyScore, r.Verdict(),
			r.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func renderTrack(w io.Writer, records []ledger.Record) error {
	window := ledger.Recent(records, ledger.TrackWindow)
	agg := ledger.AggregateByType(window, ledger.KnownTypes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNORMAL\tSUSPICIOUS")
	for _, t := range ledger.KnownTypes {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t, agg[t].Normal, agg[t].Suspicious)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Window: %d of %d, suspicious: %d\n",
		len(window), len(records), len(ledger.Suspicious(window)))
	return err
}

func renderSummary(w io.Writer, records []ledger.Record) error {
	s := ledger.Summarize(records)
	_, err := fmt.Fprintf(w, "Transactions analyzed: %d\nSuspicious: %d\nEstimated affected amount: %s\n",
		s.Total, s.Suspicious, s.AffectedAmount.StringFixed(2))
	return err
}

func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	line, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
