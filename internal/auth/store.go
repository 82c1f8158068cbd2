package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaekwang-park/listo/internal/cognito"
)

// Session is the persisted login state.
type Session struct {
	UserID   string         `json:"user_id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Picture  string         `json:"picture,omitempty"`
	Tokens   cognito.Tokens `json:"tokens"`
}

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the stored session, or ErrNoSession when none exists.
func (s *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to decode session %s: %w", s.path, err)
	}
	return sess, nil
}

func (s *FileStore) Save(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return writePrivate(s.path, data)
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *FileStore) pendingPath() string {
	return filepath.Join(filepath.Dir(s.path), "pending_share_code")
}

// SavePendingShareCode remembers a share code opened before logging in.
func (s *FileStore) SavePendingShareCode(code string) error {
	return writePrivate(s.pendingPath(), []byte(code))
}

// TakePendingShareCode returns and forgets the remembered share code. It returns "" when none
// is stored.
func (s *FileStore) TakePendingShareCode() (string, error) {
	data, err := os.ReadFile(s.pendingPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read pending share code: %w", err)
	}
	if err := os.Remove(s.pendingPath()); err != nil {
		return "", fmt.Errorf("failed to clear pending share code: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writePrivate(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
