package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/listo/internal/api"
	"github.com/jaekwang-park/listo/internal/auth"
	"github.com/jaekwang-park/listo/internal/cache"
	"github.com/jaekwang-park/listo/internal/cognito"
	"github.com/jaekwang-park/listo/internal/config"
	"github.com/jaekwang-park/listo/internal/service"
)

var _ service.SessionManager = (*auth.Manager)(nil)

// App holds everything a view or command needs. It is built once per process and passed down.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Cache      *cache.Cache
	API        *api.Client
	Sessions   *auth.Manager
	Checklists *service.ChecklistService
	Auth       *service.AuthService
}

// New wires the API client, session manager and services from cfg. In dev auth mode requests
// carry X-User-ID and the login flows report service.ErrLoginUnavailable.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	return build(ctx, cfg, logger, nil)
}

// NewWithProvider is New with an explicit identity provider instead of the AWS one.
func NewWithProvider(ctx context.Context, cfg config.Config, logger *slog.Logger, provider cognito.Provider) (*App, error) {
	return build(ctx, cfg, logger, provider)
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger, provider cognito.Provider) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout.Duration,
		Transport: &api.LoggingTransport{Logger: logger},
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Cache:  cache.New(),
	}

	var authenticator api.Authenticator
	switch cfg.AuthMode {
	case config.AuthModeDev:
		authenticator = api.UserIDHeaderAuth{UserID: cfg.DevUserID}
		logger.Warn("dev auth mode: requests are sent as X-User-ID", "user_id", cfg.DevUserID)
	default:
		if provider == nil {
			p, err := cognito.NewAWSProvider(ctx, cfg.Cognito.Region, cfg.Cognito.AppClientID, cfg.Cognito.AppClientSecret)
			if err != nil {
				return nil, fmt.Errorf("failed to create cognito provider: %w", err)
			}
			provider = p
		}
		keys := auth.NewKeySet(cognito.JWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID), &http.Client{
			Timeout: cfg.RequestTimeout.Duration,
		})
		verifier := auth.NewVerifier(keys, cognito.IssuerURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID), cfg.Cognito.AppClientID)
		a.Sessions = auth.NewManager(provider, verifier, auth.NewFileStore(cfg.SessionFile), logger)
		authenticator = api.BearerAuth{Tokens: a.Sessions}
	}

	client, err := api.NewClient(cfg.APIBaseURL,
		api.WithHTTPClient(httpClient),
		api.WithAuthenticator(authenticator),
	)
	if err != nil {
		return nil, err
	}
	a.API = client

	a.Checklists = service.NewChecklistService(client, a.Cache, cfg.ShareBaseURL, cfg.ChecklistStaleTime.Duration, logger)
	var sessions service.SessionManager
	if a.Sessions != nil {
		sessions = a.Sessions
	}
	a.Auth = service.NewAuthService(provider, sessions, client, a.Checklists, a.Cache, logger)

	logger.Debug("app initialized",
		"env", cfg.AppEnv,
		"api_url", cfg.APIBaseURL,
		"auth_mode", cfg.AuthMode,
	)
	return a, nil
}

// DevMode reports whether requests authenticate with X-User-ID instead of a session.
func (a *App) DevMode() bool {
	return a.Sessions == nil
}

// LoggedIn reports whether a session is stored, or always true in dev mode.
func (a *App) LoggedIn() bool {
	if a.Sessions == nil {
		return true
	}
	_, err := a.Sessions.Current()
	return err == nil
}

// NewEditor opens an editor on one checklist with the configured debounce windows.
func (a *App) NewEditor(checklistID string, shared bool, onChange func(), onError func(error)) *service.Editor {
	return service.NewEditor(a.API, a.Cache, checklistID, shared, service.EditorOptions{
		TitleDebounce:   a.Config.TitleDebounce.Duration,
		ContentDebounce: a.Config.ContentDebounce.Duration,
		StaleTime:       a.Config.ChecklistStaleTime.Duration,
		OnChange:        onChange,
		OnError:         onError,
		Logger:          a.Logger,
	})
}

// Logout ends the session and drops all cached data.
func (a *App) Logout(ctx context.Context) error {
	return a.Auth.Logout(ctx)
}

// Close drops cached data. Editors are closed by their owners.
func (a *App) Close() {
	a.Cache.Clear()
}
