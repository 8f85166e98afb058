package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers embed the display from arbitrary origins
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()
	if !s.ipLimiter.Allow(ip) {
		return c.String(http.StatusTooManyRequests, "Too many connection attempts")
	}

	if !s.globalLimiter.Acquire() {
		slog.Warn("Rejecting viewer: server at capacity", "max", s.globalLimiter.Max())
		return c.String(http.StatusServiceUnavailable, "Server at capacity")
	}
	defer s.globalLimiter.Release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register viewer", "error", err)
		return nil
	}

	// Read pump — blocks until the connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)

	return nil //nolint:nilerr // ReadMessage err is block-scoped; outer err is nil
}
