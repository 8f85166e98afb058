package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Provider auth hand-off
	s.echo.GET("/auth/login", s.handleLogin)
	s.echo.GET("/auth/callback", s.handleCallback)

	// Read paths (cache-backed)
	s.echo.GET("/api/state", s.handleState)
	s.echo.GET("/api/search", s.handleSearch)
	s.echo.GET("/api/devices", s.handleDevices)

	// Command paths (straight to the provider)
	s.echo.POST("/api/play", s.handlePlay)
	s.echo.POST("/api/pause", s.handlePause)
	s.echo.POST("/api/skip", s.handleSkip)
	s.echo.POST("/api/queue/:id", s.handleQueue)

	// Viewer real-time stream
	s.echo.GET("/ws", s.handleWebSocket)
}
