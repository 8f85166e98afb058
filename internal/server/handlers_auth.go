package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	spotifyapi "github.com/zmb3/spotify/v2"

	apperrors "github.com/jthawme/spotify-ambient-display/internal/errors"
	"github.com/jthawme/spotify-ambient-display/internal/spotify"
)

func (s *Server) handleLogin(c echo.Context) error {
	state, err := randomState()
	if err != nil {
		return apperrors.InternalError("failed to generate auth state", err)
	}

	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	session.Values["oauth_state"] = state
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	return c.Redirect(302, s.authenticator.AuthURL(state))
}

func (s *Server) handleCallback(c echo.Context) error {
	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	state, ok := session.Values["oauth_state"].(string)
	if !ok || state == "" {
		return apperrors.ValidationError("missing auth state; start at /auth/login")
	}
	delete(session.Values, "oauth_state")
	_ = session.Save(c.Request(), c.Response())

	ctx := c.Request().Context()
	token, err := s.authenticator.Token(ctx, state, c.Request())
	if err != nil {
		return apperrors.UnauthorizedError("provider token exchange failed").WithField("cause", err.Error())
	}

	client := spotifyapi.New(s.authenticator.Client(ctx, token))
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return apperrors.UpstreamError("failed to load provider profile", err)
	}

	s.app.Authenticated(&spotify.Session{Client: client, UserName: user.DisplayName, Token: token})
	slog.Info("Provider session established", "user", user.DisplayName, "token_expiry", token.Expiry)

	return c.Redirect(302, "/")
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
