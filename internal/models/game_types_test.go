package models_test

import (
	"errors"
	"testing"

	"flower-casino-backend/internal/models"
)

func TestValidateNormalizesCall(t *testing.T) {
	req := &models.PlayRequest{
		GameType: models.GameTypeOverUnder,
		Amount:   100,
		Call:     "  OVER ",
	}
	if err := req.Validate(0); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if req.Call != "over" {
		t.Errorf("Call should be normalized to %q, got %q", "over", req.Call)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		req    models.PlayRequest
		maxBet int64
		want   error
	}{
		{"zero amount", models.PlayRequest{GameType: models.GameTypeDice54}, 0, models.ErrInvalidAmount},
		{"negative amount", models.PlayRequest{GameType: models.GameTypeDice54, Amount: -5}, 0, models.ErrInvalidAmount},
		{"unknown game", models.PlayRequest{GameType: "slots", Amount: 100}, 0, models.ErrUnknownGame},
		{"bad call", models.PlayRequest{GameType: models.GameTypeHotCold, Amount: 100, Call: "green"}, 0, models.ErrInvalidCall},
		{"call on callless game", models.PlayRequest{GameType: models.GameTypeFlowerPoker, Amount: 100, Call: "hot"}, 0, models.ErrInvalidCall},
	}

	for _, tc := range cases {
		err := tc.req.Validate(tc.maxBet)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	over := models.PlayRequest{GameType: models.GameTypeDice54, Amount: 5000}
	if err := over.Validate(1000); err == nil {
		t.Error("Amount above max bet should be rejected")
	}
}

func TestMultiplierOverrides(t *testing.T) {
	ou := models.Games[models.GameTypeOverUnder]
	if m := ou.Multiplier("over"); m != 2 {
		t.Errorf("over should pay 2x, got %.1f", m)
	}
	if m := ou.Multiplier("7"); m != 5 {
		t.Errorf("7 should pay 5x, got %.1f", m)
	}

	hc := models.Games[models.GameTypeHotCold]
	if m := hc.Multiplier("hot"); m != 2 {
		t.Errorf("hot should pay 2x, got %.1f", m)
	}
	if m := hc.Multiplier("rainbow"); m != 5 {
		t.Errorf("rainbow should pay 5x, got %.1f", m)
	}

	fp := models.Games[models.GameTypeFlowerPoker]
	if m := fp.Multiplier(""); m != 1.8 {
		t.Errorf("flower poker should pay 1.8x, got %.1f", m)
	}
}

func TestAllowsCall(t *testing.T) {
	ou := models.Games[models.GameTypeOverUnder]
	for _, call := range []string{"over", "under", "7"} {
		if !ou.AllowsCall(call) {
			t.Errorf("over/under should accept %q", call)
		}
	}
	if ou.AllowsCall("") {
		t.Error("over/under requires a call")
	}

	d54 := models.Games[models.GameTypeDice54]
	if !d54.AllowsCall("") {
		t.Error("54x2 should accept an empty call")
	}
	if d54.AllowsCall("over") {
		t.Error("54x2 should reject calls")
	}
}

func TestGenerateClientSeed(t *testing.T) {
	first, err := models.GenerateClientSeed()
	if err != nil {
		t.Fatalf("GenerateClientSeed failed: %v", err)
	}
	if len(first) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(first))
	}

	second, err := models.GenerateClientSeed()
	if err != nil {
		t.Fatalf("GenerateClientSeed failed: %v", err)
	}
	if first == second {
		t.Error("Client seeds should not repeat")
	}
}
