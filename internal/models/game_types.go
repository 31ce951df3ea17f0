package models

// GameConfig is the static configuration of one game variant: which calls it
// accepts, how many rolls one turn consumes and what a win pays. The variant
// is picked once at session start; nothing downstream branches on raw command
// strings.
type GameConfig struct {
	Name         string
	Calls        []string
	RollsPerTurn int
	OutOfSix     bool
	// WinMultiplier is the gross payout multiple applied to the stake on a
	// standard win. CallMultipliers override it for long-shot calls.
	WinMultiplier   float64
	CallMultipliers map[string]float64
	// Versus games roll for both sides and replay ties.
	Versus bool
	// Interactive games suspend between turns waiting on player input.
	Interactive bool
}

var Games = map[GameType]GameConfig{
	GameTypeDice54: {
		Name:          "54x2",
		RollsPerTurn:  1,
		WinMultiplier: 2,
	},
	GameTypeOverUnder: {
		Name:          "Over/Under",
		Calls:         []string{"over", "under", "7"},
		RollsPerTurn:  2,
		OutOfSix:      true,
		WinMultiplier: 2,
		CallMultipliers: map[string]float64{
			"7": 5,
		},
	},
	GameTypeHotCold: {
		Name:          "Hot/Cold",
		Calls:         []string{"hot", "cold", "red", "yellow", "orange", "rainbow", "blue", "purple", "pastel"},
		RollsPerTurn:  1,
		WinMultiplier: 2,
		CallMultipliers: map[string]float64{
			"red":     5,
			"yellow":  5,
			"orange":  5,
			"rainbow": 5,
			"blue":    5,
			"purple":  5,
			"pastel":  5,
		},
	},
	GameTypeFlowerPoker: {
		Name:          "Flower Poker",
		RollsPerTurn:  5,
		WinMultiplier: 1.8,
		Versus:        true,
	},
	GameTypeDiceDuel: {
		Name:          "Dice Duels",
		RollsPerTurn:  2,
		OutOfSix:      true,
		WinMultiplier: 1.8,
		Versus:        true,
	},
	GameTypeBlackjack: {
		Name:          "Blackjack",
		RollsPerTurn:  1,
		WinMultiplier: 2,
		Interactive:   true,
	},
}

// Multiplier resolves the payout multiple for a given call.
func (c GameConfig) Multiplier(call string) float64 {
	if m, ok := c.CallMultipliers[call]; ok {
		return m
	}
	return c.WinMultiplier
}

// AllowsCall reports whether call is valid for this variant. Variants with no
// call set accept only an empty call.
func (c GameConfig) AllowsCall(call string) bool {
	if len(c.Calls) == 0 {
		return call == ""
	}
	for _, allowed := range c.Calls {
		if call == allowed {
			return true
		}
	}
	return false
}
