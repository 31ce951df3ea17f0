package services

import "time"

const (
	KeyWallet             = "wallet:%d"
	KeyEpochCurrent       = "fair:epoch:current"
	KeyEpoch              = "fair:epoch:%s"
	KeyEpochIndex         = "fair:epochs"
	KeyEpochRolls         = "fair:rolls:%s"
	KeyGameSession        = "game:session:%s"
	KeyUserCompletedGames = "user:%d:completed_games"
	KeyTransaction        = "transaction:%s"
	KeyUserTransactions   = "user:%d:transactions"
	KeyRateLimit          = "ratelimit:%d:%s"
	KeyReconcileQueue     = "ledger:reconcile"

	TTLGameSession = 7 * 24 * time.Hour  // 7 days
	TTLTransaction = 30 * 24 * time.Hour // 30 days

	// Epoch records, the per-epoch roll history and the reconciliation queue
	// carry no TTL: they are the audit surface and are never expired or
	// trimmed.

	DefaultRateLimitBets = 30 // Max 30 bets per minute
)
