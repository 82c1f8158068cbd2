package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TokenSource supplies bearer tokens for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Authenticator decorates an outgoing request with the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// BearerAuth sets "Authorization: Bearer <token>" from a TokenSource.
type BearerAuth struct {
	Tokens TokenSource
}

func (a BearerAuth) Authenticate(ctx context.Context, req *http.Request) error {
	if a.Tokens == nil {
		return errors.New("no token source configured")
	}
	token, err := a.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// UserIDHeaderAuth sends the raw user ID in X-User-ID. Only accepted by backends in dev mode.
type UserIDHeaderAuth struct {
	UserID string
}

func (a UserIDHeaderAuth) Authenticate(_ context.Context, req *http.Request) error {
	req.Header.Set("X-User-ID", a.UserID)
	return nil
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
