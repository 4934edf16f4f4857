package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NgigiN/fraudshield/internal/analysis"
	"github.com/NgigiN/fraudshield/internal/appcontext"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/mpesa"
	"github.com/NgigiN/fraudshield/internal/synthetic"
)

var generate = synthetic.Generate

const usage = "Usage:\n" +
	"`!analyze <TYPE> <amount> <oldOrg> <newOrg> <oldDest> <newDest>`\n" +
	"`!analyze synthetic [anomalous]`\n" +
	"`!history` `!track` `!summary` `!clear`\n" +
	"Or paste one or more M-PESA confirmations."

// respond computes the reply for one channel message. An empty reply means
// stay silent.
func (b *Bot) respond(ctx context.Context, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	fields := strings.Fields(content)
	switch strings.ToLower(fields[0]) {
	case "!analyze":
		return b.handleAnalyze(ctx, fields[1:])
	case "!history":
		return b.withRecords(ctx, formatHistory)
	case "!track":
		return b.withRecords(ctx, formatTrack)
	case "!summary":
		return b.withRecords(ctx, formatSummary)
	case "!clear":
		return b.handleClear(ctx, fields[1:])
	case "!help":
		return usage
	}

	if mpesa.IsBatch(content) {
		return b.handleBatch(ctx, mpesa.Split(content))
	}
	c, err := mpesa.ParseConfirmation(content)
	if err != nil {
		if strings.HasPrefix(content, "!") {
			return usage
		}
		return fmt.Sprintf("Invalid Mpesa Message: %v", err)
	}
	return b.analyze(ctx, analysis.FromConfirmation(c), c.TransactionID)
}

func (b *Bot) withRecords(ctx context.Context, render func([]ledger.Record) string) string {
	records, err := b.ledger.Query(ctx)
	if err != nil {
		appcontext.Logger(ctx).ErrorContext(ctx, "ledger query failed", "error", err)
		return fmt.Sprintf("Failed to read history: %v", err)
	}
	return render(records)
}

func (b *Bot) handleAnalyze(ctx context.Context, args []string) string {
	if len(args) >= 1 && strings.EqualFold(args[0], "synthetic") {
		anomalous := len(args) > 1 && strings.EqualFold(args[1], "anomalous")
		return b.analyze(ctx, b.synthetic(anomalous), "")
	}
	in, err := parseAnalyzeArgs(args)
	if err != nil {
		return fmt.Sprintf("%v\n%s", err, usage)
	}
	return b.analyze(ctx, in, "")
}

func parseAnalyzeArgs(args []string) (analysis.Input, error) {
	if len(args) != 6 {
		return analysis.Input{}, errors.New("expected a type and five numbers")
	}
	t, err := ledger.ParseType(args[0])
	if err != nil {
		return analysis.Input{}, err
	}
	nums := make([]float64, 5)
	for i, a := range args[1:] {
		v, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", ""), 64)
		if err != nil {
			return analysis.Input{}, fmt.Errorf("invalid number %q", a)
		}
		nums[i] = v
	}
	return analysis.Input{
		Type:           t,
		Amount:         nums[0],
		OldBalanceOrg:  nums[1],
		NewBalanceOrg:  nums[2],
		OldBalanceDest: nums[3],
		NewBalanceDest: nums[4],
	}, nil
}

// analyze runs one submission. ref names the source message, if any.
func (b *Bot) analyze(ctx context.Context, in analysis.Input, ref string) string {
	rec, err := b.analyzer.Analyze(ctx, in)
	switch {
	case errors.Is(err, analysis.ErrInFlight):
		return "Another analysis is still running, try again in a moment."
	case errors.Is(err, analysis.ErrAlreadyRecorded):
		return fmt.Sprintf("%s was already analyzed, see `!history`.", rec.TxnID)
	case errors.Is(err, analysis.ErrAnalysisFailed):
		return analysis.ErrAnalysisFailed.Error()
	case err != nil:
		return fmt.Sprintf("Could not analyze transaction: %v", err)
	}
	return formatResult(rec, ref)
}

func (b *Bot) handleBatch(ctx context.Context, messages []string) string {
	var ok, failed int
	var lines []string
	for i, msg := range messages {
		c, err := mpesa.ParseConfirmation(msg)
		if err != nil {
			failed++
			lines = append(lines, fmt.Sprintf("• Transaction %d: %v", i+1, err))
			continue
		}
		rec, err := b.analyzer.Analyze(ctx, analysis.FromConfirmation(c))
		if errors.Is(err, analysis.ErrAlreadyRecorded) {
			failed++
			lines = append(lines, fmt.Sprintf("• %s: already analyzed", c.TransactionID))
			continue
		}
		if err != nil {
			failed++
			lines = append(lines, fmt.Sprintf("• %s: %v", c.TransactionID, err))
			continue
		}
		ok++
		lines = append(lines, fmt.Sprintf("• %s: %s (score %.3f)", c.TransactionID, rec.Verdict(), rec.AnomalyScore))
	}

	var sb strings.Builder
	sb.WriteString("**Batch Analysis Complete**\n")
	fmt.Fprintf(&sb, "Analyzed: %d, Failed: %d\n", ok, failed)
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

// handleClear asks for confirmation before wiping the history.
func (b *Bot) handleClear(ctx context.Context, args []string) string {
	if len(args) == 0 || !strings.EqualFold(args[0], "confirm") {
		return "This deletes the whole transaction history. Send `!clear confirm` to proceed."
	}
	if err := b.ledger.Clear(ctx); err != nil {
		appcontext.Logger(ctx).ErrorContext(ctx, "ledger clear failed", "error", err)
		return fmt.Sprintf("Failed to clear history: %v", err)
	}
	return "History cleared."
}
