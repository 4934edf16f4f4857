package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger
	LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudshield",
		Subsystem: "ledger",
		Name:      "appends_total",
		Help:      "Ledger append calls by outcome (added, duplicate, invalid, error)",
	}, []string{"outcome"})

	LedgerClears = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudshield",
		Subsystem: "ledger",
		Name:      "clears_total",
		Help:      "Total ledger clears",
	})

	LedgerCorruptLoads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudshield",
		Subsystem: "ledger",
		Name:      "corrupt_loads_total",
		Help:      "Loads whose stored value could not be parsed and was treated as empty",
	})

	// Prediction collaborator
	PredictRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudshield",
		Subsystem: "predict",
		Name:      "requests_total",
		Help:      "Prediction calls by result (ok, error)",
	}, []string{"result"})

	PredictLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudshield",
		Subsystem: "predict",
		Name:      "request_duration_seconds",
		Help:      "Prediction call duration",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Analyses by verdict, labelled with the transaction type.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudshield",
		Subsystem: "analysis",
		Name:      "verdicts_total",
		Help:      "Completed analyses by transaction type and verdict",
	}, []string{"type", "verdict"})
)
