package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a panic in a handler into a 500 JSON error, unless the response has already
// started.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newRecorder(w)

			defer func() {
				v := recover()
				switch v {
				case nil:
					return
				case http.ErrAbortHandler:
					panic(v)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", UserID(r),
					"stack", string(debug.Stack()),
				)
				if rec.wroteHeader {
					return
				}
				writeError(rec, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
