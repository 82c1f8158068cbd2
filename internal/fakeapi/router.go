package fakeapi

import (
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/listo/internal/middleware"
)

// NewRouter returns the full API handler: recovery, logging and caller identification around
// the checklist routes.
func NewRouter(store Backend, logger *slog.Logger) http.Handler {
	h := NewHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/user", h.user)
	mux.HandleFunc("/checklists", h.checklists)
	mux.HandleFunc("/checklists/", h.checklists)
	mux.HandleFunc("/checklist", h.checklist)
	mux.HandleFunc("/checklist/", h.checklist)

	return middleware.Recovery(logger)(middleware.Logging(logger)(middleware.Identify(mux)))
}
