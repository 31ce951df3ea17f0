package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateGameID() string {
	return fmt.Sprintf("game_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// GenerateClientSeed creates the default player seed: 128 bits from
// crypto/rand, hex encoded. Players may replace it at any time.
func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Validate rejects a wager before any state mutation: non-positive or
// over-max amounts, unknown variants and calls the variant doesn't accept.
func (pr *PlayRequest) Validate(maxBet int64) error {
	if pr.Amount <= 0 {
		return ErrInvalidAmount
	}
	if maxBet > 0 && pr.Amount > maxBet {
		return fmt.Errorf("maximum bet is %d tokens", maxBet)
	}

	cfg, ok := Games[pr.GameType]
	if !ok {
		return ErrUnknownGame
	}

	pr.Call = strings.ToLower(strings.TrimSpace(pr.Call))
	if !cfg.AllowsCall(pr.Call) {
		return ErrInvalidCall
	}

	return nil
}
