package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://cognito-idp.ap-northeast-1.amazonaws.com/pool-1"
	testClientID = "client-1"
)

// newJWKSServer serves one RSA key under kid and counts fetches.
func newJWKSServer(t *testing.T, kid string) (*httptest.Server, *rsa.PrivateKey, *atomic.Int32) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	body, err := json.Marshal(map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(priv.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
			},
			{"kty": "EC", "kid": "ignored"},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal JWKS: %v", err)
	}

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, priv, &fetches
}

func idTokenClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":              sub,
		"iss":              testIssuer,
		"aud":              testClientID,
		"exp":              time.Now().Add(time.Hour).Unix(),
		"iat":              time.Now().Unix(),
		"token_use":        "id",
		"cognito:username": "user-name",
		"email":            "a@example.com",
		"picture":          "https://example.com/a.png",
	}
}

func signToken(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}
