package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	AuthModeBearer = "bearer"
	AuthModeDev    = "dev"
)

type Config struct {
	AppEnv   string `toml:"app_env"`
	LogLevel string `toml:"log_level"`

	APIBaseURL   string `toml:"api_url"`
	ShareBaseURL string `toml:"share_url"`

	AuthMode  string `toml:"auth_mode"`
	DevUserID string `toml:"dev_user_id"`

	RequestTimeout     Duration `toml:"request_timeout"`
	TitleDebounce      Duration `toml:"title_debounce"`
	ContentDebounce    Duration `toml:"content_debounce"`
	ChecklistStaleTime Duration `toml:"checklist_stale_time"`

	SessionFile string `toml:"session_file"`
	LogFile     string `toml:"log_file"`

	Cognito CognitoConfig `toml:"cognito"`
}

type CognitoConfig struct {
	Region          string `toml:"region"`
	UserPoolID      string `toml:"user_pool_id"`
	AppClientID     string `toml:"app_client_id"`
	AppClientSecret string `toml:"app_client_secret"`
}

// Duration wraps time.Duration so it can be written as "500ms" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid LISTO_API_URL %q: must be an absolute URL", c.APIBaseURL)
	}
	switch c.AuthMode {
	case AuthModeBearer:
		if c.Cognito.UserPoolID == "" {
			return errors.New("COGNITO_USER_POOL_ID is required when LISTO_AUTH_MODE is bearer")
		}
		if c.Cognito.AppClientID == "" {
			return errors.New("COGNITO_APP_CLIENT_ID is required when LISTO_AUTH_MODE is bearer")
		}
	case AuthModeDev:
		if c.AppEnv != "local" {
			return fmt.Errorf("LISTO_AUTH_MODE=dev must not be enabled in %s environment", c.AppEnv)
		}
		if c.DevUserID == "" {
			return errors.New("LISTO_DEV_USER_ID is required when LISTO_AUTH_MODE is dev")
		}
	default:
		return fmt.Errorf("invalid LISTO_AUTH_MODE %q: must be bearer or dev", c.AuthMode)
	}
	for name, d := range map[string]time.Duration{
		"LISTO_REQUEST_TIMEOUT":      c.RequestTimeout.Duration,
		"LISTO_TITLE_DEBOUNCE":       c.TitleDebounce.Duration,
		"LISTO_CONTENT_DEBOUNCE":     c.ContentDebounce.Duration,
		"LISTO_CHECKLIST_STALE_TIME": c.ChecklistStaleTime.Duration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		AppEnv:             "local",
		LogLevel:           "info",
		APIBaseURL:         "http://localhost:8080",
		ShareBaseURL:       "http://localhost:3000",
		AuthMode:           AuthModeBearer,
		RequestTimeout:     Duration{10 * time.Second},
		TitleDebounce:      Duration{500 * time.Millisecond},
		ContentDebounce:    Duration{500 * time.Millisecond},
		ChecklistStaleTime: Duration{5 * time.Minute},
		SessionFile:        filepath.Join(configDir(), "session.json"),
		LogFile:            filepath.Join(stateDir(), "listo.log"),
		Cognito: CognitoConfig{
			Region: "ap-northeast-1",
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file, a .env file in the
// working directory, and finally environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	path := envOrDefault("LISTO_CONFIG", filepath.Join(configDir(), "config.toml"))
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.APIBaseURL = strings.TrimRight(envOrDefault("LISTO_API_URL", cfg.APIBaseURL), "/")
	cfg.ShareBaseURL = strings.TrimRight(envOrDefault("LISTO_SHARE_URL", cfg.ShareBaseURL), "/")
	cfg.AuthMode = strings.ToLower(envOrDefault("LISTO_AUTH_MODE", cfg.AuthMode))
	cfg.DevUserID = envOrDefault("LISTO_DEV_USER_ID", cfg.DevUserID)
	cfg.SessionFile = envOrDefault("LISTO_SESSION_FILE", cfg.SessionFile)
	cfg.LogFile = envOrDefault("LISTO_LOG_FILE", cfg.LogFile)

	cfg.Cognito.Region = envOrDefault("COGNITO_REGION", cfg.Cognito.Region)
	cfg.Cognito.UserPoolID = envOrDefault("COGNITO_USER_POOL_ID", cfg.Cognito.UserPoolID)
	cfg.Cognito.AppClientID = envOrDefault("COGNITO_APP_CLIENT_ID", cfg.Cognito.AppClientID)
	cfg.Cognito.AppClientSecret = envOrDefault("COGNITO_APP_CLIENT_SECRET", cfg.Cognito.AppClientSecret)

	for key, dst := range map[string]*Duration{
		"LISTO_REQUEST_TIMEOUT":      &cfg.RequestTimeout,
		"LISTO_TITLE_DEBOUNCE":       &cfg.TitleDebounce,
		"LISTO_CONTENT_DEBOUNCE":     &cfg.ContentDebounce,
		"LISTO_CHECKLIST_STALE_TIME": &cfg.ChecklistStaleTime,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
	}
	return nil
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "listo")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "listo")
	}
	return ".listo"
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "listo")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "listo")
	}
	return ".listo"
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
