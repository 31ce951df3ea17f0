package services_test

import (
	"testing"

	"flower-casino-backend/internal/config"
	"flower-casino-backend/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := jwtService.GenerateToken(123456, "session-abc")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != 123456 {
		t.Errorf("Expected user ID 123456, got %d", claims.UserID)
	}
	if claims.SessionID != "session-abc" {
		t.Errorf("Expected session session-abc, got %s", claims.SessionID)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	signer := services.NewJWTService(&config.Config{JWTSecret: "secret-one"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "secret-two"})

	token, err := signer.GenerateToken(1, "s")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should not validate")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	if _, err := jwtService.ValidateToken("not-a-token"); err == nil {
		t.Error("Garbage token should not validate")
	}
}
