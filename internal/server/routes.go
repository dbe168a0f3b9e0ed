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

	// Auth
	s.echo.POST("/auth/register", s.handleRegister)
	s.echo.POST("/auth/login", s.handleLogin)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth)

	// Assistant settings
	s.echo.GET("/api/settings", s.handleGetSettings, s.requireAuth)
	s.echo.PUT("/api/settings", s.handleUpdateSettings, s.requireAuth)

	// Live session control
	s.echo.POST("/live/start", s.handleStartLive, s.requireAuth)
	s.echo.GET("/live/stop", s.handleStopLive, s.requireAuth)
	s.echo.PUT("/live/interval", s.handleUpdateInterval, s.requireAuth)
	s.echo.POST("/live/analyze", s.handleAnalyze, s.requireAuth)
	s.echo.GET("/live/history", s.handleHistory, s.requireAuth)

	// Realtime channel. Auth happens inside the handler so an
	// unauthenticated client still gets a system_message before close.
	s.echo.GET("/ws/live/:channel", s.handleWebSocket)

	// Admin
	s.echo.GET("/admin/users", s.handleListUsers, s.requireAuth, s.requireAdmin)
	s.echo.GET("/admin/keys", s.handleListKeys, s.requireAuth, s.requireAdmin)
	s.echo.POST("/admin/keys", s.handleCreateKeys, s.requireAuth, s.requireAdmin)
}
