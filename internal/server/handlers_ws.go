package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard may be served from a different origin
	},
}

const wsHandshakeWriteTimeout = 5 * time.Second

// sendAndClose delivers a single system_message to a connection that will not
// be admitted, then closes it.
func (s *Server) sendAndClose(conn *websocket.Conn, message string) {
	event := domain.SystemEvent(message, s.clock.Now())
	_ = conn.SetWriteDeadline(s.clock.Now().Add(wsHandshakeWriteTimeout))
	_ = conn.WriteJSON(event)
	_ = conn.Close()
}

func (s *Server) handleWebSocket(c echo.Context) error {
	channelID, err := uuid.Parse(c.Param("channel"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "无效的频道")
	}

	ip := c.RealIP()
	allowed, reason := s.connLimits.Acquire(ip)
	if !allowed {
		metrics.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("websocket connection rejected", "reason", reason, "ip", ip)
		return errorJSON(c, http.StatusTooManyRequests, "连接数已达上限，请稍后再试")
	}
	defer s.connLimits.Release(ip)

	userID, authenticated := s.sessionUserID(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade failure already wrote an HTTP error response.
		return nil
	}

	// Unauthenticated and cross-channel joins get a system_message so the
	// client can show a reason, then the connection closes without joining.
	if !authenticated {
		metrics.ConnectionsRejected.WithLabelValues("unauthenticated").Inc()
		s.sendAndClose(conn, "未登录，无法加入频道")
		return nil
	}
	if live.DeriveChannelID(userID) != channelID {
		metrics.ConnectionsRejected.WithLabelValues("wrong_channel").Inc()
		s.sendAndClose(conn, "无权加入该频道")
		return nil
	}

	// Welcome goes out before the hub's writer takes over the connection.
	welcome := domain.SystemEvent("已连接到直播间", s.clock.Now())
	_ = conn.SetWriteDeadline(s.clock.Now().Add(wsHandshakeWriteTimeout))
	if err := conn.WriteJSON(welcome); err != nil {
		_ = conn.Close()
		return nil
	}
	_ = conn.SetWriteDeadline(time.Time{})

	if err := s.hub.Join(channelID, conn); err != nil {
		metrics.ConnectionsRejected.WithLabelValues("channel_full").Inc()
		slog.Warn("channel at capacity", "channel_id", channelID)
		s.sendAndClose(conn, "直播间人数已满")
		return nil
	}

	// Read pump. The hub owns writes; we only watch for disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Leave(channelID, conn)
	return nil
}
