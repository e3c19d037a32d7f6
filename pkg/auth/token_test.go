package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vetlink/backend/pkg/config"
	"github.com/vetlink/backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "vetlink-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	accountID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AccountID: accountID,
		Subject:   "+2348012345678",
		Role:      enums.AccountRoleProfessional,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	principal, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if principal.AccountID != accountID {
		t.Fatalf("expected account id %s, got %s", accountID, principal.AccountID)
	}
	if principal.Role != enums.AccountRoleProfessional {
		t.Fatalf("unexpected role %s", principal.Role)
	}
	if principal.Subject != "+2348012345678" {
		t.Fatalf("unexpected subject %s", principal.Subject)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleConsumer,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		AccountID: uuid.New(),
		Role:      enums.AccountRoleConsumer,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestMintRequiresAccountID(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		Role: enums.AccountRoleConsumer,
	}); err == nil {
		t.Fatalf("expected missing account id to fail")
	}
}
