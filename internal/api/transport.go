package api

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingTransport logs every round trip at debug level.
type LoggingTransport struct {
	Next   http.RoundTripper
	Logger *slog.Logger
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	if err != nil {
		logger.DebugContext(req.Context(), "api request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.DebugContext(req.Context(), "api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
