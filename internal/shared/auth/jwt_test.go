package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWT_GenerateAndValidate(t *testing.T) {
	j := NewJWT("my-secret-key-0123", time.Hour)

	token, exp, err := j.Generate("admin")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if token == "" {
		t.Fatal("Generate() returned empty token")
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expiry in %v, want about 1h", d)
	}

	claims, err := j.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if claims.Username() != "admin" {
		t.Errorf("Username() = %q, want admin", claims.Username())
	}
}

func TestJWT_Rejects(t *testing.T) {
	j := NewJWT("my-secret-key-0123", time.Hour)
	token, _, err := j.Generate("admin")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")

	other := NewJWT("another-secret-key", time.Hour)
	foreign, _, _ := other.Generate("admin")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("my-secret-key-0123"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: "admin",
	}).SignedString([]byte("my-secret-key-0123"))

	tests := []struct {
		name  string
		token string
	}{
		{"tampered signature", parts[0] + "." + parts[1] + ".invalid-signature"},
		{"invalid format", "invalid.token"},
		{"empty", ""},
		{"other secret", foreign},
		{"alg none", unsigned},
		{"wrong issuer", wrongIssuer},
		{"no expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := j.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := NewJWT("my-secret-key-0123", time.Hour)
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := j.Generate("admin")
	if err != nil {
		t.Fatal(err)
	}

	j.now = time.Now
	if _, err := j.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want %v", err, ErrExpiredToken)
	}
}
