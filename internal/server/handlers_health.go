package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status":             "ok",
		"sessionEstablished": s.sessions.Established(),
		"connectedClients":   s.hub.ClientCount(),
	})
}
