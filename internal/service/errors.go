package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/auth"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrLocked           = errors.New("checklist is locked")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrDragInProgress   = errors.New("drag in progress")
	ErrSaving           = errors.New("changes are still being saved")
)

// mapError tags backend and session failures with the matching sentinel while keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, auth.ErrNoSession) {
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	status, ok := api.StatusCode(err)
	if !ok {
		return err
	}
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
