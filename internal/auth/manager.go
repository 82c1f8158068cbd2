package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jaekwang-park/listo/internal/cognito"
)

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// refreshLeeway is how close to expiry an access token is refreshed.
const refreshLeeway = time.Minute

// IDTokenVerifier verifies an ID token and extracts the caller's identity.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// Manager owns the current session and hands out fresh access tokens.
type Manager struct {
	provider cognito.Provider
	verifier IDTokenVerifier
	store    *FileStore
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	session *Session
}

func NewManager(provider cognito.Provider, verifier IDTokenVerifier, store *FileStore, logger *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		verifier: verifier,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Start verifies freshly issued tokens and persists them as the current session.
func (m *Manager) Start(ctx context.Context, tokens cognito.Tokens) (Session, error) {
	id, err := m.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		UserID:   id.Subject,
		Username: id.Username,
		Email:    id.Email,
		Picture:  id.Picture,
		Tokens:   tokens,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(sess); err != nil {
		return Session{}, err
	}
	m.session = &sess
	m.logger.InfoContext(ctx, "session started", "user_id", sess.UserID)
	return sess, nil
}

// Current returns the active session, loading it from disk on first use.
func (m *Manager) Current() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

func (m *Manager) currentLocked() (Session, error) {
	if m.session != nil {
		return *m.session, nil
	}
	sess, err := m.store.Load()
	if err != nil {
		return Session{}, err
	}
	m.session = &sess
	return sess, nil
}

// Token returns a valid access token, refreshing it when it is about to expire.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.currentLocked()
	if err != nil {
		return "", err
	}
	if !sess.Tokens.ExpiresWithin(m.now(), refreshLeeway) {
		return sess.Tokens.AccessToken, nil
	}

	refreshed, err := m.provider.Refresh(ctx, sess.Username, sess.Tokens.RefreshToken)
	if err != nil {
		if errors.Is(err, cognito.ErrNotAuthorized) {
			// Refresh token revoked or expired.
			m.session = nil
			_ = m.store.Delete()
			return "", fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		return "", fmt.Errorf("failed to refresh tokens: %w", err)
	}
	if refreshed.IDToken == "" {
		refreshed.IDToken = sess.Tokens.IDToken
	}
	sess.Tokens = refreshed
	if err := m.store.Save(sess); err != nil {
		return "", err
	}
	m.session = &sess
	m.logger.DebugContext(ctx, "access token refreshed", "expires_at", refreshed.ExpiresAt)
	return sess.Tokens.AccessToken, nil
}

// AccessToken returns the stored access token without refreshing it.
func (m *Manager) AccessToken() (string, error) {
	sess, err := m.Current()
	if err != nil {
		return "", err
	}
	return sess.Tokens.AccessToken, nil
}

// Logout signs out everywhere (best effort) and removes the session from disk.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.currentLocked()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err == nil && m.provider != nil {
		if err := m.provider.GlobalSignOut(ctx, sess.Tokens.AccessToken); err != nil {
			m.logger.WarnContext(ctx, "global sign-out failed", "error", err)
		}
	}
	m.session = nil
	return m.store.Delete()
}

func (m *Manager) SavePendingShareCode(code string) error {
	return m.store.SavePendingShareCode(code)
}

func (m *Manager) TakePendingShareCode() (string, error) {
	return m.store.TakePendingShareCode()
}
