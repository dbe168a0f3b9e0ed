package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Session keys
const (
	sessionName      = "assistant_session"
	sessionKeyUserID = "user_id"
)

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// sessionUserID extracts the authenticated user from the cookie session.
func (s *Server) sessionUserID(c echo.Context) (uuid.UUID, bool) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil, false
	}

	raw, ok := session.Values[sessionKeyUserID]
	if !ok {
		return uuid.Nil, false
	}
	idStr, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := s.sessionUserID(c)
		if !ok {
			return errorJSON(c, http.StatusUnauthorized, "请先登录")
		}
		c.Set("userID", userID)
		return next(c)
	}
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Get("userID").(uuid.UUID)

		user, err := s.users.GetByID(c.Request().Context(), userID)
		if err != nil {
			slog.Error("failed to load user for admin check", "error", err, "user_id", userID)
			return errorJSON(c, http.StatusInternalServerError, "内部错误")
		}
		if !user.IsAdmin {
			return errorJSON(c, http.StatusForbidden, "需要管理员权限")
		}
		return next(c)
	}
}

func (s *Server) saveSession(c echo.Context, userID uuid.UUID) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			return err
		}
	}
	session.Values[sessionKeyUserID] = userID.String()
	return session.Save(c.Request(), c.Response().Writer)
}
