package models

import "time"

type GameType string

const (
	GameTypeDice54      GameType = "54x2"
	GameTypeOverUnder   GameType = "ou"
	GameTypeHotCold     GameType = "hc"
	GameTypeFlowerPoker GameType = "fp"
	GameTypeDiceDuel    GameType = "dd"
	GameTypeBlackjack   GameType = "bj"
)

// GameSession binds the rolls, the debit and the credit of a single wager.
// One-shot games complete within a single request; blackjack stays active
// until the player stands, busts or idles out.
type GameSession struct {
	ID        string   `json:"id" redis:"id"`
	UserID    int64    `json:"user_id" redis:"user_id"`
	GameType  GameType `json:"game_type" redis:"game_type"`
	BetAmount int64    `json:"bet_amount" redis:"bet_amount"`
	Call      string   `json:"call,omitempty" redis:"call"`

	Rolls       []float64 `json:"rolls"`
	Nonces      []int64   `json:"nonces"`
	HouseRolls  []float64 `json:"house_rolls,omitempty"`
	HouseNonces []int64   `json:"house_nonces,omitempty"`
	Rounds      int       `json:"rounds,omitempty"`

	ClientSeed     string `json:"client_seed" redis:"client_seed"`
	ServerSeedHash string `json:"server_seed_hash" redis:"server_seed_hash"`
	EpochID        string `json:"epoch_id" redis:"epoch_id"`

	Status     string  `json:"status" redis:"status"` // active, won, lost, pushed
	Outcome    string  `json:"outcome,omitempty" redis:"outcome"`
	Multiplier float64 `json:"multiplier" redis:"multiplier"`
	Payout     int64   `json:"payout" redis:"payout"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
	EndedAt   time.Time `json:"ended_at,omitempty" redis:"ended_at"`
}

type PlayRequest struct {
	GameType GameType `json:"game_type" binding:"required"`
	Amount   int64    `json:"amount" binding:"required"`
	Call     string   `json:"call"`
}

// GameResult is the presentation-layer summary handed back after a wager
// resolves: the rolls with their nonces, the outcome and the new balance.
type GameResult struct {
	GameID         string    `json:"game_id"`
	GameType       GameType  `json:"game_type"`
	BetAmount      int64     `json:"bet_amount"`
	Call           string    `json:"call,omitempty"`
	Rolls          []float64 `json:"rolls"`
	Nonces         []int64   `json:"nonces"`
	HouseRolls     []float64 `json:"house_rolls,omitempty"`
	HouseNonces    []int64   `json:"house_nonces,omitempty"`
	Flowers        []string  `json:"flowers,omitempty"`
	HouseFlowers   []string  `json:"house_flowers,omitempty"`
	Outcome        string    `json:"outcome"`
	Win            bool      `json:"win"`
	Multiplier     float64   `json:"multiplier"`
	Payout         int64     `json:"payout"`
	NewBalance     int64     `json:"new_balance"`
	EpochID        string    `json:"epoch_id"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
}
