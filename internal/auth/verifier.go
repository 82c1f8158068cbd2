package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// KeyProvider resolves a signing key by key ID.
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Identity is what the client learns about the user from a verified ID token.
type Identity struct {
	Subject  string
	Username string
	Email    string
	Picture  string
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Username string `json:"cognito:username"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

// Verifier checks RS256 ID tokens issued by a Cognito user pool.
type Verifier struct {
	keys     KeyProvider
	issuer   string
	audience string
	now      func() time.Time
}

func NewVerifier(keys KeyProvider, issuer, audience string) *Verifier {
	return &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.TokenUse != "id" {
		return Identity{}, fmt.Errorf("%w: token_use is %q", ErrInvalidToken, claims.TokenUse)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: sub claim not found", ErrInvalidToken)
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return Identity{
		Subject:  claims.Subject,
		Username: username,
		Email:    claims.Email,
		Picture:  claims.Picture,
	}, nil
}
