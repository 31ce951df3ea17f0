package models

// Wallet holds a player's token balance. Balance is an integer token count
// and is never allowed below zero; every mutation goes through the ledger's
// atomic debit/credit operations.
type Wallet struct {
	UserID       int64 `json:"user_id" redis:"user_id"`
	Balance      int64 `json:"balance" redis:"balance"`
	TotalWagered int64 `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64 `json:"total_won" redis:"total_won"`

	// ClientSeed is the player-owned half of the provably-fair inputs.
	ClientSeed string `json:"client_seed" redis:"client_seed"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

type BalanceResponse struct {
	Balance      int64  `json:"balance"`
	TotalWagered int64  `json:"total_wagered"`
	TotalWon     int64  `json:"total_won"`
	ClientSeed   string `json:"client_seed"`
}
