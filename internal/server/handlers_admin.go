package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxKeysPerBatch = 100

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "加载用户列表失败")
	}

	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]any{
			"id":         u.ID.String(),
			"username":   u.Username,
			"is_admin":   u.IsAdmin,
			"created_at": u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleListKeys(c echo.Context) error {
	keys, err := s.inviteKeys.List(c.Request().Context())
	if err != nil {
		slog.Error("failed to list invite keys", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "加载卡密列表失败")
	}

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		entry := map[string]any{
			"key":        k.Key,
			"is_used":    k.IsUsed,
			"created_at": k.CreatedAt,
		}
		if k.UserID != nil {
			entry["user_id"] = k.UserID.String()
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, map[string]any{"keys": out})
}

type createKeysRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleCreateKeys(c echo.Context) error {
	var req createKeysRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}
	if req.Count < 1 || req.Count > maxKeysPerBatch {
		return errorJSON(c, http.StatusBadRequest, "数量需在1到100之间")
	}

	keys, err := s.inviteKeys.CreateBatch(c.Request().Context(), req.Count)
	if err != nil {
		slog.Error("failed to create invite keys", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "生成卡密失败")
	}

	slog.Info("invite keys created", "count", len(keys))
	return c.JSON(http.StatusCreated, map[string]any{"keys": keys})
}
