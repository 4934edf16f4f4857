package mpesa

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutgoingVariants(t *testing.T) {
	cases := []struct {
		msg  string
		id   string
		kind Kind
	}{
		{`TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony Wambua Muinde2. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 498,760.00. Save frequent Tills for quick payment on M-PESA app https://bit.ly/mpesalnk`, "TIH5CRR635", Paid},
		{`TIH6CSP6KA Confirmed. Ksh40.00 sent to Co-operative Bank Money Transfer for account 1082111 on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.`, "TIH6CSP6KA", Sent},
		{`TII5I5YNFP Confirmed. Ksh35.00 paid to FELIX MWENDWA KIKOLE. on 18/9/25 at 7:18 PM.New M-PESA balance is Ksh644.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,965.00. Save frequent Tills for quick payment on M-PESA app https://bit.ly/mpesalnk`, "TII5I5YNFP", Paid},
		{`TII8I79A5O Confirmed. Ksh40.00 sent to Divinah  Nyabuto on 18/9/25 at 7:22 PM. New M-PESA balance is Ksh604.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,925.00. Sign up for Lipa Na M-PESA Till online https://m-pesaforbusiness.co.ke`, "TII8I79A5O", Sent},
		{`TIJ9N9U6HT Confirmed. Ksh25.00 sent to Caroline  Mwania on 19/9/25 at 7:05 PM. New M-PESA balance is Ksh579.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,975.00. Sign up for Lipa Na M-PESA Till online https://m-pesaforbusiness.co.ke`, "TIJ9N9U6HT", Sent},
	}

	for _, c := range cases {
		t.Run(c.id, func(t *testing.T) {
			p, err := ParseConfirmation(c.msg)
			require.NoError(t, err)
			assert.Equal(t, c.id, p.TransactionID)
			assert.Equal(t, c.kind, p.Kind)
			assert.Positive(t, p.Amount)
		})
	}
}

func TestParseConfirmationFields(t *testing.T) {
	msg := `TIJ9N9U6HT Confirmed. Ksh1,025.50 sent to Caroline  Mwania on 19/9/25 at 7:05PM. New M-PESA balance is Ksh12,579.18. Transaction cost, Ksh13.00.`

	p, err := ParseConfirmation(msg)
	require.NoError(t, err)
	assert.Equal(t, 1025.50, p.Amount)
	assert.Equal(t, "Caroline Mwania", p.Recipient)
	assert.Equal(t, 12579.18, p.Balance)
	assert.Equal(t, 13.0, p.Cost)
	assert.Equal(t, time.Date(2025, time.September, 19, 19, 5, 0, 0, time.Local), p.DateTime)
}

func TestParseRejectsIncoming(t *testing.T) {
	_, err := ParseConfirmation(`TIK1AB2CD3 Confirmed. You have received Ksh500.00 from JOHN DOE 0712345678 on 20/9/25 at 9:00 AM New M-PESA balance is Ksh1,079.18.`)
	assert.ErrorIs(t, err, ErrNotConfirmation)

	_, err = ParseConfirmation("hello")
	assert.ErrorIs(t, err, ErrNotConfirmation)
}

func TestSplitBatch(t *testing.T) {
	content := strings.Join([]string{
		`TIH6CSP6KA Confirmed. Ksh40.00 sent to Co-operative Bank on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.`,
		"",
		"some note about it",
		`TII5I5YNFP Confirmed. Ksh35.00 paid to FELIX KIKOLE. on 18/9/25 at 7:18 PM.New M-PESA balance is Ksh644.18. Transaction cost, Ksh0.00.`,
	}, "\n")

	parts := Split(content)
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[1], "TII5I5YNFP"))
	assert.True(t, IsBatch(content))
	assert.False(t, IsBatch(parts[0]))
}
