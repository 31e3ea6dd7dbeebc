package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"scriptorium/internal/domain"
	"scriptorium/internal/domain/models"
)

func newTestVerifier(t *testing.T) (*JWKSVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &JWKSVerifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims models.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestVerifyToken(t *testing.T) {
	verifier, key := newTestVerifier(t)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hmac: %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantSub string
	}{
		{
			name:    "valid",
			token:   sign(t, key, models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future}, Role: "authenticated"}),
			wantSub: "alice",
		},
		{name: "expired", token: sign(t, key, models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: past}})},
		{name: "no expiry", token: sign(t, key, models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}})},
		{name: "missing subject", token: sign(t, key, models.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})},
		{name: "anonymous", token: sign(t, key, models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "anon-1", ExpiresAt: future}, Role: "anon"})},
		{name: "hmac algorithm", token: hmacToken},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(tt.token)
			if tt.wantSub == "" {
				if !errors.Is(err, domain.ErrUnauthorized) {
					t.Errorf("VerifyToken() error = %v, want ErrUnauthorized", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyToken() error = %v", err)
			}
			if claims.GetUserID() != tt.wantSub {
				t.Errorf("subject = %q, want %q", claims.GetUserID(), tt.wantSub)
			}
		})
	}
}

func TestNewJWTVerifier_RequiresURL(t *testing.T) {
	if _, err := NewJWTVerifier("", slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("NewJWTVerifier(\"\") succeeded")
	}
}
