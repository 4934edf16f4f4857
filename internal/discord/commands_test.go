package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgigiN/fraudshield/internal/analysis"
	"github.com/NgigiN/fraudshield/internal/ledger"
	"github.com/NgigiN/fraudshield/internal/storage"
)

// fakeAnalyzer scores everything above 1000 as suspicious and records it.
type fakeAnalyzer struct {
	l     *ledger.Ledger
	err   error
	seen  []analysis.Input
	count int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, in analysis.Input) (ledger.Record, error) {
	f.seen = append(f.seen, in)
	if f.err != nil {
		return ledger.Record{}, f.err
	}
	f.count++
	id := in.TxnID
	if id == "" {
		id = fmt.Sprintf("txn-%d", f.count)
	}
	rec := ledger.Record{
		TxnID:  id,
		Type:   in.Type,
		Amount: in.Amount,
	}
	if in.Amount > 1000 {
		rec.AnomalyScore = 0.9
	}
	added, err := f.l.Append(ctx, rec)
	if err == nil && !added {
		err = analysis.ErrAlreadyRecorded
	}
	return rec, err
}

func newTestBot(t *testing.T) (*Bot, *fakeAnalyzer) {
	t.Helper()
	l := ledger.New(ledger.NewStore(storage.NewMemory(), ledger.DefaultKey))
	a := &fakeAnalyzer{l: l}
	return newBot("chan", l, a, nil, nil), a
}

const confirmation = `TIH6CSP6KA Confirmed. Ksh40.00 sent to Co-operative Bank on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.`

func TestAnalyzeCommand(t *testing.T) {
	ctx := context.Background()
	b, a := newTestBot(t)

	reply := b.respond(ctx, "!analyze transfer 5000 5000 0 0 0")
	assert.Contains(t, reply, "Suspicious")
	require.Len(t, a.seen, 1)
	assert.Equal(t, ledger.Transfer, a.seen[0].Type)
	assert.Equal(t, 5000.0, a.seen[0].OldBalanceOrg)

	reply = b.respond(ctx, "!analyze PAYMENT 1,000 x 0 0 0")
	assert.Contains(t, reply, `invalid number "x"`)

	reply = b.respond(ctx, "!analyze DEBIT 1 1 1 1 1")
	assert.Contains(t, reply, "unknown transaction type")
	assert.Len(t, a.seen, 1)
}

func TestAnalyzeSynthetic(t *testing.T) {
	b, a := newTestBot(t)
	reply := b.respond(context.Background(), "!analyze synthetic anomalous")
	assert.Contains(t, reply, "Analysis Result")
	require.Len(t, a.seen, 1)
	assert.Zero(t, a.seen[0].NewBalanceOrg)
}

func TestAnalyzeFailureMessage(t *testing.T) {
	b, a := newTestBot(t)
	a.err = fmt.Errorf("%w: %w", analysis.ErrAnalysisFailed, errors.New("status=500"))
	assert.Equal(t, "Transaction analysis failed", b.respond(context.Background(), "!analyze synthetic"))

	a.err = analysis.ErrInFlight
	assert.Contains(t, b.respond(context.Background(), "!analyze synthetic"), "still running")
}

func TestMpesaMessages(t *testing.T) {
	ctx := context.Background()
	b, a := newTestBot(t)

	reply := b.respond(ctx, confirmation)
	assert.Contains(t, reply, "TIH6CSP6KA")
	require.Len(t, a.seen, 1)
	assert.Equal(t, ledger.Transfer, a.seen[0].Type)
	assert.Equal(t, 40.0, a.seen[0].Amount)
	assert.Equal(t, "TIH6CSP6KA", a.seen[0].TxnID)

	batch := confirmation + "\n" + `TII5I5YNFP Confirmed. Ksh35.00 paid to FELIX KIKOLE. on 18/9/25 at 7:18 PM.New M-PESA balance is Ksh644.18. Transaction cost, Ksh0.00.`
	reply = b.respond(ctx, batch)
	assert.Contains(t, reply, "TIH6CSP6KA: already analyzed")
	assert.Contains(t, reply, "Analyzed: 1, Failed: 1")
	assert.Len(t, a.seen, 3)

	reply = b.respond(ctx, confirmation)
	assert.Contains(t, reply, "TIH6CSP6KA was already analyzed")

	history := b.respond(ctx, "!history")
	assert.Equal(t, 1, strings.Count(history, "TIH6CSP6"))

	reply = b.respond(ctx, "hello there")
	assert.True(t, strings.HasPrefix(reply, "Invalid Mpesa Message"))
}

func TestHistoryTrackSummaryAndClear(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBot(t)

	assert.Equal(t, "No transactions found.", b.respond(ctx, "!history"))

	b.respond(ctx, "!analyze TRANSFER 500 500 0 0 0")
	b.respond(ctx, "!analyze TRANSFER 2000 2000 0 0 0")
	b.respond(ctx, "!analyze CASH_IN 300 0 300 300 0")

	history := b.respond(ctx, "!history")
	assert.Contains(t, history, "txn-3")
	assert.Less(t, strings.Index(history, "txn-3"), strings.Index(history, "txn-1"), "newest first")

	track := b.respond(ctx, "!track")
	assert.Contains(t, track, "last 3 of 3")
	assert.Regexp(t, `TRANSFER\s+1\s+1`, track)
	assert.Regexp(t, `CASH_IN\s+1\s+0`, track)
	assert.Contains(t, track, "Suspicious in window: 1")

	summary := b.respond(ctx, "!summary")
	assert.Contains(t, summary, "Transactions analyzed: 3")
	assert.Contains(t, summary, "Estimated affected amount: 2000.00")

	assert.Contains(t, b.respond(ctx, "!clear"), "!clear confirm")
	assert.Contains(t, b.respond(ctx, "!history"), "txn-1", "clear without confirm keeps history")

	assert.Equal(t, "History cleared.", b.respond(ctx, "!clear confirm"))
	assert.Equal(t, "No transactions found.", b.respond(ctx, "!history"))
}

func TestHistoryShowsLatestTen(t *testing.T) {
	records := make([]ledger.Record, 12)
	for i := range records {
		records[i] = ledger.Record{TxnID: fmt.Sprintf("id-%02d", i), Type: ledger.Payment, Timestamp: time.Now()}
	}
	out := formatHistory(records)
	assert.Contains(t, out, "id-09")
	assert.NotContains(t, out, "id-10")
	assert.Contains(t, out, "... and 2 more transactions")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "••...", truncate("••••••", 5))
}
