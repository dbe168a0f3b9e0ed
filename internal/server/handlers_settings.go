package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

type settingsPayload struct {
	Prompt              string `json:"prompt"`
	Mode                string `json:"mode"`
	VoiceStyle          string `json:"voice_style"`
	SpeechSpeed         int    `json:"speech_speed"`
	Volume              int    `json:"volume"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

func settingsResponse(s domain.Settings) map[string]any {
	return map[string]any{
		"prompt":                s.Prompt,
		"mode":                  string(s.Mode),
		"voice_style":           s.VoiceStyle,
		"speech_speed":          s.SpeechSpeed,
		"volume":                s.Volume,
		"poll_interval_seconds": s.PollIntervalSeconds,
		"updated_at":            s.UpdatedAt,
	}
}

func (s *Server) handleGetSettings(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	settings, err := s.settingsRepo.Get(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		return errorJSON(c, http.StatusNotFound, "尚未配置助手设置")
	}
	if err != nil {
		slog.Error("failed to load settings", "error", err, "user_id", userID)
		return errorJSON(c, http.StatusInternalServerError, "加载设置失败")
	}

	return c.JSON(http.StatusOK, settingsResponse(settings))
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	var req settingsPayload
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}

	settings := domain.Settings{
		UserID:              userID,
		Prompt:              req.Prompt,
		Mode:                domain.AIMode(req.Mode),
		VoiceStyle:          req.VoiceStyle,
		SpeechSpeed:         req.SpeechSpeed,
		Volume:              req.Volume,
		PollIntervalSeconds: req.PollIntervalSeconds,
	}
	if err := settings.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			return errorJSON(c, http.StatusNotFound, "尚未配置助手设置")
		}
		slog.Error("failed to update settings", "error", err, "user_id", userID)
		return errorJSON(c, http.StatusInternalServerError, "保存设置失败")
	}

	// Drop the cached copy so in-flight analyze jobs pick up the new prompt,
	// and move a running poller to the new cadence without a restart.
	s.settings.Invalidate(userID)
	s.registry.UpdateInterval(userID, time.Duration(settings.PollIntervalSeconds)*time.Second)

	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
