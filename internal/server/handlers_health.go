package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 5 * time.Second

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", s.checkPostgres},
		{"redis", s.checkRedis},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) checkPostgres(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

func (s *Server) checkRedis(ctx context.Context) error {
	if s.redisClient == nil {
		return fmt.Errorf("redis client not configured")
	}
	return s.redisClient.Ping(ctx).Err()
}
