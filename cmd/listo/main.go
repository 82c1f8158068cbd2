package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jaekwang-park/listo/internal/app"
	"github.com/jaekwang-park/listo/internal/cli"
	"github.com/jaekwang-park/listo/internal/config"
)

func main() {
	// Initial logger at warn level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		// cobra has already printed the error.
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, build, os.Args[1:])
}

// build loads the configuration and wires the application. The TUI owns the terminal, so
// interactive sessions log to a file instead of stderr.
func build(ctx context.Context, interactive bool) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeLog := func() {}
	if interactive {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeLog = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Debug("config loaded",
		"env", cfg.AppEnv,
		"api_url", cfg.APIBaseURL,
		"auth_mode", cfg.AuthMode,
		"log_level", cfg.LogLevel,
	)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
