package services_test

import (
	"testing"

	"flower-casino-backend/internal/services"
)

const (
	testServerSeed = "8b54e55e8d4392761c2a0e1e8b66b74a1a6e07a16a0e4ebcd5ba7c3f2d1a9c44"
	testClientSeed = "d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6"
	testSeedHash   = "450477eab81f0304651164f6f0a36760616c40ac75c56bca13d00194b08c9955"
)

func TestRollKnownValues(t *testing.T) {
	// Derived independently with a reference HMAC-SHA512 implementation.
	// Nonce 1's digest starts with a window above the cutoff, so it also
	// covers the offset-advance path.
	expected := []float64{10.55, 22.78, 81.45, 5.52, 0.22, 47.85, 76.52, 66.08}

	for nonce, want := range expected {
		got := services.Roll(testServerSeed, testClientSeed, int64(nonce))
		if got != want {
			t.Errorf("Roll nonce %d: expected %.2f, got %.2f", nonce, want, got)
		}
	}
}

func TestRollSecondSeedPair(t *testing.T) {
	expected := []float64{63.85, 63.79, 86.47}

	for nonce, want := range expected {
		got := services.Roll("test-server-seed", "alpha", int64(nonce))
		if got != want {
			t.Errorf("Roll nonce %d: expected %.2f, got %.2f", nonce, want, got)
		}
	}
}

func TestRollDeterministic(t *testing.T) {
	for nonce := int64(0); nonce < 50; nonce++ {
		first := services.Roll(testServerSeed, testClientSeed, nonce)
		second := services.Roll(testServerSeed, testClientSeed, nonce)
		if first != second {
			t.Fatalf("Roll not deterministic at nonce %d: %.2f vs %.2f", nonce, first, second)
		}
		if first < 0.01 || first > 100.00 {
			t.Fatalf("Roll out of range at nonce %d: %.2f", nonce, first)
		}
	}
}

func TestRollSensitivity(t *testing.T) {
	base := services.Roll(testServerSeed, testClientSeed, 0)

	if services.Roll(testServerSeed, testClientSeed, 1) == base &&
		services.Roll(testServerSeed, testClientSeed, 2) == base {
		t.Error("Consecutive nonces should not repeat the same roll")
	}
	if services.Roll(testServerSeed, "other-client-seed", 0) == base {
		t.Error("Different client seed should change the roll")
	}
}

func TestHashServerSeed(t *testing.T) {
	if got := services.HashServerSeed(testServerSeed); got != testSeedHash {
		t.Errorf("Expected hash %s, got %s", testSeedHash, got)
	}
}

func TestVerifyCommitment(t *testing.T) {
	if !services.VerifyCommitment(testServerSeed, testSeedHash) {
		t.Error("Valid commitment should verify")
	}
	if !services.VerifyCommitment(testServerSeed, "450477EAB81F0304651164F6F0A36760616C40AC75C56BCA13D00194B08C9955") {
		t.Error("Commitment check should be case insensitive")
	}
	if services.VerifyCommitment("wrong-seed", testSeedHash) {
		t.Error("Wrong seed should not verify")
	}
}

func TestDieFace(t *testing.T) {
	cases := []struct {
		roll float64
		face int
	}{
		{0.01, 1},
		{16.66, 1},
		{16.67, 2},
		{33.34, 3},
		{50.00, 3},
		{50.01, 4},
		{66.66, 4},
		{66.67, 5},
		{83.34, 6},
		{100.00, 6},
	}

	for _, tc := range cases {
		if got := services.DieFace(tc.roll); got != tc.face {
			t.Errorf("DieFace(%.2f): expected %d, got %d", tc.roll, tc.face, got)
		}
	}
}

func TestClassifyFlowerBoundaries(t *testing.T) {
	cases := []struct {
		roll   float64
		flower services.Flower
	}{
		{0.01, services.FlowerRed},
		{14.28, services.FlowerRed},
		{14.29, services.FlowerYellow},
		{28.57, services.FlowerYellow},
		{28.58, services.FlowerOrange},
		{42.86, services.FlowerOrange},
		{42.87, services.FlowerRainbow},
		{57.15, services.FlowerRainbow},
		{57.16, services.FlowerBlue},
		{71.44, services.FlowerBlue},
		{71.45, services.FlowerPurple},
		{85.73, services.FlowerPurple},
		{85.74, services.FlowerPastel},
		{100.00, services.FlowerPastel},
	}

	for _, tc := range cases {
		if got := services.ClassifyFlower(tc.roll); got != tc.flower {
			t.Errorf("ClassifyFlower(%.2f): expected %s, got %s", tc.roll, tc.flower, got)
		}
	}
}

func TestFlowerTemperature(t *testing.T) {
	hot := []services.Flower{services.FlowerRed, services.FlowerYellow, services.FlowerOrange}
	cold := []services.Flower{services.FlowerBlue, services.FlowerPurple, services.FlowerPastel}

	for _, f := range hot {
		if f.Temperature() != "hot" {
			t.Errorf("%s should be hot", f)
		}
	}
	for _, f := range cold {
		if f.Temperature() != "cold" {
			t.Errorf("%s should be cold", f)
		}
	}
	if services.FlowerRainbow.Temperature() != "" {
		t.Error("rainbow should be neither hot nor cold")
	}
}

func TestRankFlowerHand(t *testing.T) {
	r, y, o, b, p := services.FlowerRed, services.FlowerYellow, services.FlowerOrange, services.FlowerBlue, services.FlowerPurple

	cases := []struct {
		name string
		hand []services.Flower
		rank services.HandRank
	}{
		{"bust", []services.Flower{r, y, o, b, p}, services.HandBust},
		{"one pair", []services.Flower{r, r, y, o, b}, services.HandOnePair},
		{"two pairs", []services.Flower{r, r, y, y, b}, services.HandTwoPair},
		{"three of a kind", []services.Flower{r, r, r, y, b}, services.HandThreeOfAKind},
		{"full house", []services.Flower{r, r, r, y, y}, services.HandFullHouse},
		{"four of a kind", []services.Flower{r, r, r, r, y}, services.HandFourOfAKind},
		{"five of a kind", []services.Flower{r, r, r, r, r}, services.HandFiveOfAKind},
	}

	for _, tc := range cases {
		if got := services.RankFlowerHand(tc.hand); got != tc.rank {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.rank, got)
		}
	}

	if services.HandFullHouse <= services.HandThreeOfAKind {
		t.Error("full house must outrank three of a kind")
	}
	if services.HandTwoPair <= services.HandOnePair {
		t.Error("two pairs must outrank one pair")
	}
}

func TestClassifyRolls(t *testing.T) {
	flowers := services.ClassifyRolls([]float64{0.01, 30.00, 60.00, 90.00, 50.00})

	want := []services.Flower{
		services.FlowerRed,
		services.FlowerOrange,
		services.FlowerBlue,
		services.FlowerPastel,
		services.FlowerRainbow,
	}
	for i, f := range want {
		if flowers[i] != f {
			t.Errorf("roll %d: expected %s, got %s", i, f, flowers[i])
		}
	}
}
