package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/auth"
	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/cognito"
	"github.com/jaekwang-park/listo/internal/model"
)

// ErrLoginUnavailable is returned by credential flows when no identity provider is configured.
var ErrLoginUnavailable = errors.New("login is not available in dev auth mode")

// SessionManager is the part of auth.Manager the service needs.
type SessionManager interface {
	Start(ctx context.Context, tokens cognito.Tokens) (auth.Session, error)
	Current() (auth.Session, error)
	AccessToken() (string, error)
	Logout(ctx context.Context) error
	SavePendingShareCode(code string) error
	TakePendingShareCode() (string, error)
}

// AuthService runs the sign-up, login and password flows.
type AuthService struct {
	provider cognito.Provider
	sessions SessionManager
	users    api.UserAPI
	lists    *ChecklistService
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewAuthService wires the flows. provider and sessions may be nil in dev auth mode.
func NewAuthService(provider cognito.Provider, sessions SessionManager, users api.UserAPI, lists *ChecklistService, c *cache.Cache, logger *slog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		sessions: sessions,
		users:    users,
		lists:    lists,
		cache:    c,
		logger:   logger,
	}
}

type SignUpOutput struct {
	UserSub     string `json:"user_sub"`
	Confirmed   bool   `json:"confirmed"`
	Destination string `json:"code_delivery"`
}

type LoginOutput struct {
	User model.User `json:"user"`
	// JoinedShareCode is the pending share code redeemed during login, if any.
	JoinedShareCode string `json:"joined_share_code,omitempty"`
}

func (s *AuthService) ready() error {
	if s.provider == nil || s.sessions == nil {
		return ErrLoginUnavailable
	}
	return nil
}

func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f[0])
		}
	}
	return nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (SignUpOutput, error) {
	if err := required([2]string{"email", email}, [2]string{"password", password}); err != nil {
		return SignUpOutput{}, err
	}
	if err := s.ready(); err != nil {
		return SignUpOutput{}, err
	}
	out, err := s.provider.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return SignUpOutput{}, err
	}
	return SignUpOutput{
		UserSub:     out.UserSub,
		Confirmed:   out.Confirmed,
		Destination: out.Destination,
	}, nil
}

func (s *AuthService) ConfirmSignUp(ctx context.Context, email, code string) error {
	if err := required([2]string{"email", email}, [2]string{"code", code}); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.provider.ConfirmSignUp(ctx, strings.TrimSpace(email), strings.TrimSpace(code))
}

func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	if err := required([2]string{"email", email}); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.provider.ResendCode(ctx, strings.TrimSpace(email))
}

// Login authenticates with the identity provider, starts a session, registers the user with
// the backend and redeems a share code saved before logging in.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginOutput, error) {
	if err := required([2]string{"email", email}, [2]string{"password", password}); err != nil {
		return LoginOutput{}, err
	}
	if err := s.ready(); err != nil {
		return LoginOutput{}, err
	}

	tokens, err := s.provider.PasswordAuth(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return LoginOutput{}, err
	}
	sess, err := s.sessions.Start(ctx, tokens)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("failed to start session: %w", err)
	}
	s.cache.Clear()

	user, err := s.users.CreateUser(ctx)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("failed to register user: %w", mapError(err))
	}
	s.logger.InfoContext(ctx, "logged in", "user_id", sess.UserID)

	out := LoginOutput{User: user}
	code, err := s.sessions.TakePendingShareCode()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read pending share code", "error", err)
		return out, nil
	}
	if code != "" {
		if _, err := s.lists.Join(ctx, code); err != nil {
			// The login itself succeeded; the share link can be opened again.
			s.logger.WarnContext(ctx, "failed to join pending shared checklist", "code", code, "error", err)
		} else {
			out.JoinedShareCode = code
		}
	}
	return out, nil
}

// RememberShareCode keeps a share code or link opened while logged out, to be joined on the
// next login.
func (s *AuthService) RememberShareCode(codeOrLink string) (string, error) {
	code, err := ParseShareCode(codeOrLink)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	if err := s.sessions.SavePendingShareCode(code); err != nil {
		return "", err
	}
	return code, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := required([2]string{"email", email}); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.provider.ForgotPassword(ctx, strings.TrimSpace(email))
}

func (s *AuthService) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	if err := required([2]string{"email", email}, [2]string{"code", code}, [2]string{"new_password", newPassword}); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	return s.provider.ConfirmForgotPassword(ctx, strings.TrimSpace(email), strings.TrimSpace(code), newPassword)
}

func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := required([2]string{"previous_password", oldPassword}, [2]string{"new_password", newPassword}); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	token, err := s.sessions.AccessToken()
	if err != nil {
		return mapError(err)
	}
	return s.provider.ChangePassword(ctx, token, oldPassword, newPassword)
}

// Logout ends the session and forgets everything cached for it.
func (s *AuthService) Logout(ctx context.Context) error {
	s.cache.Clear()
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Logout(ctx)
}

// Whoami returns the backend's record of the current user.
func (s *AuthService) Whoami(ctx context.Context) (model.User, error) {
	user, err := s.users.GetUser(ctx)
	if err != nil {
		return model.User{}, mapError(err)
	}
	return user, nil
}
