package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/jthawme/spotify-ambient-display/internal/config"
	"github.com/jthawme/spotify-ambient-display/internal/domain"
	apperrors "github.com/jthawme/spotify-ambient-display/internal/errors"
	"github.com/jthawme/spotify-ambient-display/internal/hub"
	"github.com/jthawme/spotify-ambient-display/internal/spotify"
)

const sessionName = "ambient_session"

// AppService is the application layer as the HTTP handlers see it.
type AppService interface {
	CurrentState(ctx context.Context) (*domain.Snapshot, error)
	Search(ctx context.Context, query string) (*domain.SearchResults, error)
	Devices(ctx context.Context) ([]domain.Device, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Skip(ctx context.Context) error
	Queue(ctx context.Context, uri string) (*domain.Track, error)
	Authenticated(session *spotify.Session)
}

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	app           AppService
	hub           *hub.Hub
	sessions      *spotify.Holder
	authenticator *spotifyauth.Authenticator
	sessionStore  *sessions.CookieStore
	globalLimiter *GlobalConnectionLimiter
	ipLimiter     *IPRateLimiter
}

func NewServer(cfg *config.Config, app AppService, h *hub.Hub, holder *spotify.Holder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	authenticator := spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyClientID),
		spotifyauth.WithClientSecret(cfg.SpotifyClientSecret),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)

	srv := &Server{
		echo:          e,
		config:        cfg,
		app:           app,
		hub:           h,
		sessions:      holder,
		authenticator: authenticator,
		sessionStore:  sessionStore,
		globalLimiter: NewGlobalConnectionLimiter(int64(cfg.MaxClients)),
		ipLimiter:     NewIPRateLimiter(cfg.MaxClientsPerIP),
	}

	e.HTTPErrorHandler = srv.handleError
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError maps structured errors to JSON responses.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		_ = c.JSON(echoErr.Code, map[string]any{"error": echoErr.Message})
		return
	}

	structured := apperrors.AsStructuredError(err)
	if structured.Type == apperrors.TypeInternal || structured.Type == apperrors.TypeUpstream {
		slog.Error("Request failed", "type", structured.Type, "error", err)
	}
	_ = c.JSON(structured.HTTPStatus(), structured.ToResponse())
}
