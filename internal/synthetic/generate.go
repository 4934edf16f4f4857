// Package synthetic builds random transfer-form submissions for demos and
// load checks.
package synthetic

import (
	"math"
	"math/rand"

	"github.com/NgigiN/fraudshield/internal/analysis"
	"github.com/NgigiN/fraudshield/internal/ledger"
)

// Generate returns a random submission. Normal ones keep both sides' balances
// consistent with the amount. Anomalous ones follow the account-drain pattern:
// the whole origin balance leaves through TRANSFER or CASH_OUT and the
// destination balance does not move.
func Generate(rng *rand.Rand, anomalous bool) analysis.Input {
	if anomalous {
		t := ledger.Transfer
		if rng.Intn(2) == 1 {
			t = ledger.CashOut
		}
		old := round2(1000 + rng.Float64()*199000)
		return analysis.Input{
			Type:          t,
			Amount:        old,
			OldBalanceOrg: old,
		}
	}

	t := ledger.KnownTypes[rng.Intn(len(ledger.KnownTypes))]
	oldOrg := round2(1000 + rng.Float64()*49000)
	amount := round2(10 + rng.Float64()*(oldOrg/2-10))
	oldDest := round2(rng.Float64() * 20000)

	in := analysis.Input{
		Type:           t,
		Amount:         amount,
		OldBalanceOrg:  oldOrg,
		NewBalanceOrg:  round2(oldOrg - amount),
		OldBalanceDest: oldDest,
		NewBalanceDest: round2(oldDest + amount),
	}
	if t == ledger.CashIn {
		// Cash handed to an agent: origin grows, agent float shrinks.
		in.NewBalanceOrg = round2(oldOrg + amount)
		in.OldBalanceDest = round2(oldDest + amount)
		in.NewBalanceDest = oldDest
	}
	return in
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
