package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	InviteKey string `json:"invite_key"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func validateCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 50 {
		return errors.New("用户名长度需在3到50个字符之间")
	}
	if len(password) < 6 {
		return errors.New("密码长度至少6个字符")
	}
	return nil
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := validateCredentials(req.Username, req.Password); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.InviteKey) == "" {
		return errorJSON(c, http.StatusBadRequest, "请填写卡密")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "注册失败")
	}

	user, err := s.registrar.Register(c.Request().Context(), req.Username, string(hash), strings.TrimSpace(req.InviteKey))
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		return errorJSON(c, http.StatusConflict, "用户名已被占用")
	case errors.Is(err, domain.ErrInviteKeyInvalid):
		return errorJSON(c, http.StatusBadRequest, "卡密无效或已被使用")
	case err != nil:
		slog.Error("registration failed", "error", err, "username", req.Username)
		return errorJSON(c, http.StatusInternalServerError, "注册失败")
	}

	if err := s.saveSession(c, user.ID); err != nil {
		slog.Error("failed to save session after registration", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "注册失败")
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return c.JSON(http.StatusCreated, map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}

	user, err := s.users.GetByUsername(c.Request().Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return errorJSON(c, http.StatusUnauthorized, "用户名或密码错误")
	}
	if err != nil {
		slog.Error("failed to load user for login", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "登录失败")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, "用户名或密码错误")
	}

	if err := s.saveSession(c, user.ID); err != nil {
		slog.Error("failed to save login session", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "登录失败")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"is_admin": user.IsAdmin,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			slog.Error("failed to create session during logout", "error", err)
			return errorJSON(c, http.StatusInternalServerError, "退出登录失败")
		}
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("failed to clear logout session", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "退出登录失败")
	}

	return c.NoContent(http.StatusNoContent)
}
