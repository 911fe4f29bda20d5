package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
)

func signChallenge(t *testing.T, sk ed25519.PrivateKey, challenge string) string {
	t.Helper()
	sig := ed25519.Sign(sk, []byte(challenge))
	return base64.StdEncoding.EncodeToString(sig)
}

func TestChallengeVerifyRoundTrip(t *testing.T) {
	acct := crypto.GenerateAccount()
	c := NewChallenger(NewMemoryNonceStore())

	challenge, err := c.Challenge(context.Background(), acct.Address.String())
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}

	sig := signChallenge(t, acct.PrivateKey, challenge)
	if err := c.Verify(context.Background(), acct.Address.String(), sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// The nonce is single-use.
	if err := c.Verify(context.Background(), acct.Address.String(), sig); err == nil {
		t.Error("second redemption of the same challenge must fail")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	acct := crypto.GenerateAccount()
	imposter := crypto.GenerateAccount()
	c := NewChallenger(NewMemoryNonceStore())

	challenge, err := c.Challenge(context.Background(), acct.Address.String())
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}

	sig := signChallenge(t, imposter.PrivateKey, challenge)
	if err := c.Verify(context.Background(), acct.Address.String(), sig); err == nil {
		t.Error("a signature from another key must not verify")
	}
}

func TestVerifyWithoutChallenge(t *testing.T) {
	acct := crypto.GenerateAccount()
	c := NewChallenger(NewMemoryNonceStore())

	if err := c.Verify(context.Background(), acct.Address.String(), "c2ln"); err == nil {
		t.Error("verification without a pending challenge must fail")
	}
}

func TestChallengeRejectsBadAddress(t *testing.T) {
	c := NewChallenger(NewMemoryNonceStore())
	if _, err := c.Challenge(context.Background(), "not-an-address"); err == nil {
		t.Error("expected error for malformed address")
	}
}

func TestMemoryNonceStoreExpiry(t *testing.T) {
	s := NewMemoryNonceStore()
	if err := s.Save(context.Background(), "addr", "n1", -time.Second); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Take(context.Background(), "addr"); err == nil {
		t.Error("expired nonce must not be redeemable")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	acct := crypto.GenerateAccount()
	token, err := GenerateJWT("secret", acct.Address.String(), time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Address != acct.Address.String() {
		t.Errorf("address = %s, want %s", claims.Address, acct.Address)
	}

	if _, err := ParseJWT("wrong", token); err == nil {
		t.Error("token must not parse with the wrong secret")
	}
}
