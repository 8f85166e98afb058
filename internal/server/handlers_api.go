package server

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/jthawme/spotify-ambient-display/internal/domain"
	apperrors "github.com/jthawme/spotify-ambient-display/internal/errors"
)

// providerError maps adapter failures onto the structured error taxonomy.
func providerError(err error, message string) *apperrors.Error {
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return apperrors.UnauthorizedError("no provider session; authenticate first")
	case errors.Is(err, domain.ErrTrackNotFound):
		return apperrors.NotFoundError("track not found")
	default:
		return apperrors.UpstreamError(message, err)
	}
}

func (s *Server) handleState(c echo.Context) error {
	snapshot, err := s.app.CurrentState(c.Request().Context())
	if err != nil {
		return providerError(err, "playback state fetch failed")
	}

	if err := c.JSON(200, snapshot); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return apperrors.ValidationError("query parameter q is required")
	}

	results, err := s.app.Search(c.Request().Context(), query)
	if err != nil {
		return providerError(err, "search failed").WithField("query", query)
	}

	if err := c.JSON(200, results); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDevices(c echo.Context) error {
	devices, err := s.app.Devices(c.Request().Context())
	if err != nil {
		return providerError(err, "device list fetch failed")
	}

	if err := c.JSON(200, devices); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handlePlay(c echo.Context) error {
	if err := s.app.Play(c.Request().Context()); err != nil {
		return providerError(err, "play command failed")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handlePause(c echo.Context) error {
	if err := s.app.Pause(c.Request().Context()); err != nil {
		return providerError(err, "pause command failed")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleSkip(c echo.Context) error {
	if err := s.app.Skip(c.Request().Context()); err != nil {
		return providerError(err, "skip command failed")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleQueue(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ValidationError("track id is required")
	}

	track, err := s.app.Queue(c.Request().Context(), id)
	if err != nil {
		return providerError(err, "queue command failed")
	}

	if err := c.JSON(200, map[string]any{"status": "ok", "track": track}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
