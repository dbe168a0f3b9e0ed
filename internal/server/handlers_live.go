package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
)

const maxCommentLength = 500

func (s *Server) handleStartLive(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	// A session cannot start without assistant settings; other read failures
	// fall back to the server default so a cache hiccup does not block starts.
	interval := s.config.CommentInterval
	settings, err := s.settings.Get(c.Request().Context(), userID)
	switch {
	case err == nil:
		interval = time.Duration(settings.PollIntervalSeconds) * time.Second
	case errors.Is(err, domain.ErrSettingsNotFound):
		return errorJSON(c, http.StatusNotFound, "尚未配置助手设置，无法开播")
	default:
		slog.Warn("settings unavailable, using default poll interval", "error", err, "user_id", userID)
	}

	channelID := s.registry.Start(userID, interval)
	slog.Info("live session started", "user_id", userID, "channel_id", channelID)

	return c.JSON(http.StatusOK, map[string]string{
		"status":     "success",
		"channel_id": channelID.String(),
	})
}

func (s *Server) handleStopLive(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	s.registry.Stop(userID)
	slog.Info("live session stopped", "user_id", userID)

	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

type intervalRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

func (s *Server) handleUpdateInterval(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	var req intervalRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}
	if req.IntervalSeconds < 1 {
		return errorJSON(c, http.StatusBadRequest, "间隔不能小于1秒")
	}

	s.registry.UpdateInterval(userID, time.Duration(req.IntervalSeconds)*time.Second)
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

type analyzeRequest struct {
	Comment string `json:"comment"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的请求")
	}

	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return errorJSON(c, http.StatusBadRequest, "评论内容不能为空")
	}
	if len([]rune(comment)) > maxCommentLength {
		return errorJSON(c, http.StatusBadRequest, "评论内容过长")
	}

	if !s.analyzeLimit.Allow(userID) {
		return errorJSON(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
	}

	if err := s.pipeline.Analyze(userID, comment); err != nil {
		if errors.Is(err, domain.ErrPipelineBusy) {
			return errorJSON(c, http.StatusTooManyRequests, "分析队列已满，请稍后再试")
		}
		slog.Error("analyze dispatch failed", "error", err, "user_id", userID)
		return errorJSON(c, http.StatusInternalServerError, "分析失败")
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHistory(c echo.Context) error {
	userID := c.Get("userID").(uuid.UUID)
	channelID := live.DeriveChannelID(userID)

	events, err := s.history.Recent(c.Request().Context(), channelID)
	if err != nil {
		slog.Error("failed to load channel history", "error", err, "channel_id", channelID)
		return errorJSON(c, http.StatusInternalServerError, "加载历史记录失败")
	}
	if events == nil {
		events = []domain.Event{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"channel_id": channelID.String(),
		"events":     events,
	})
}
