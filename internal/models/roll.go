package models

// RollBatch is the outcome of one atomic "read epoch + take nonces" request.
// Rolls and Nonces are parallel: Rolls[i] was derived with Nonces[i].
type RollBatch struct {
	EpochID        string    `json:"epoch_id"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	Rolls          []float64 `json:"rolls"`
	Nonces         []int64   `json:"nonces"`
}

// RollRecord is one line of the append-only roll history kept per epoch for
// public verification. Once written it is never mutated or trimmed.
type RollRecord struct {
	UserID         int64   `json:"user_id"`
	EpochID        string  `json:"epoch_id"`
	ServerSeedHash string  `json:"server_seed_hash"`
	ClientSeed     string  `json:"client_seed"`
	Nonce          int64   `json:"nonce"`
	Roll           float64 `json:"roll"`
	GameID         string  `json:"game_id,omitempty"`
	CreatedAt      int64   `json:"created_at"`
}

type VerifyRequest struct {
	ServerSeed     string `json:"server_seed" binding:"required"`
	ClientSeed     string `json:"client_seed" binding:"required"`
	Nonce          *int64 `json:"nonce" binding:"required"`
	ServerSeedHash string `json:"server_seed_hash"`
}
