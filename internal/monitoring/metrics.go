package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	BetsPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_bets_total",
			Help: "Total wagers placed, by game variant",
		},
		[]string{"game"},
	)

	RollsDerived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_rolls_total",
			Help: "Total provably-fair rolls derived",
		},
	)

	SeedRotations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_seed_rotations_total",
			Help: "Successful server seed rotations",
		},
	)

	SeedRotationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_seed_rotation_failures_total",
			Help: "Rotations aborted because the new epoch could not be persisted",
		},
	)

	LedgerReconciliations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_ledger_reconciliations_total",
			Help: "Credits that failed after a successful debit and were escalated",
		},
	)
)

func Init() {
	prometheus.MustRegister(BetsPlaced)
	prometheus.MustRegister(RollsDerived)
	prometheus.MustRegister(SeedRotations)
	prometheus.MustRegister(SeedRotationFailures)
	prometheus.MustRegister(LedgerReconciliations)
}
