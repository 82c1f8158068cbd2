package cognito

import (
	"context"
	"fmt"
	"time"
)

// Provider is the subset of the Cognito user-pool API used by the client.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	PasswordAuth(ctx context.Context, email, password string) (Tokens, error)
	Refresh(ctx context.Context, username, refreshToken string) (Tokens, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	GlobalSignOut(ctx context.Context, accessToken string) error
}

type SignUpResult struct {
	UserSub   string
	Confirmed bool
	// Destination is where the confirmation code went, e.g. "EMAIL".
	Destination string
}

// Tokens is the token set issued by the user pool.
type Tokens struct {
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresWithin reports whether the access token expires before now+d.
func (t Tokens) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Add(d).Before(t.ExpiresAt)
}

// IssuerURL is the "iss" claim of tokens issued by the pool.
func IssuerURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// JWKSURL is where the pool publishes its signing keys.
func JWKSURL(region, userPoolID string) string {
	return IssuerURL(region, userPoolID) + "/.well-known/jwks.json"
}
