package models

// Epoch is one commitment period: a server seed, its published SHA-256
// commitment and the nonce counter for rolls made against it. Exactly one
// epoch is current at a time; superseded epochs are archived read-only with
// the seed revealed so past rolls can be re-derived.
type Epoch struct {
	ID             string `json:"id" redis:"id"`
	ServerSeed     string `json:"server_seed" redis:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash" redis:"server_seed_hash"`
	Nonce          int64  `json:"nonce" redis:"nonce"`
	CreatedAt      int64  `json:"created_at" redis:"created_at"`
	RevealedAt     int64  `json:"revealed_at,omitempty" redis:"revealed_at"`
}

// Commitment is the public half of an epoch.
type Commitment struct {
	EpochID        string `json:"epoch_id"`
	ServerSeedHash string `json:"server_seed_hash"`
}
