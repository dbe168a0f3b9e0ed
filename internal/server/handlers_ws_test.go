package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
)

func dialWS(t *testing.T, ts *httptest.Server, channelID uuid.UUID, cookie *http.Cookie) (*gorilla.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live/" + channelID.String()
	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.String())
	}
	return gorilla.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *gorilla.Conn) domain.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestWebSocket_UnauthenticatedGetsSystemMessage(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.echo)
	defer ts.Close()

	conn, _, err := dialWS(t, ts, uuid.New(), nil)
	require.NoError(t, err)
	defer conn.Close()

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventSystemMessage, event.Kind)
	assert.Contains(t, event.Content, "未登录")

	// The connection is not admitted: the server closes it right after.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocket_WrongChannelRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.add("streamer1", "secret123", false)
	cookie := authCookie(t, env.server, user.ID)

	ts := httptest.NewServer(env.server.echo)
	defer ts.Close()

	conn, _, err := dialWS(t, ts, uuid.New(), cookie)
	require.NoError(t, err)
	defer conn.Close()

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventSystemMessage, event.Kind)
	assert.Contains(t, event.Content, "无权")
}

func TestWebSocket_JoinAndReceive(t *testing.T) {
	env := newTestEnv(t)
	user := env.users.add("streamer1", "secret123", false)
	cookie := authCookie(t, env.server, user.ID)
	channelID := live.DeriveChannelID(user.ID)

	ts := httptest.NewServer(env.server.echo)
	defer ts.Close()

	conn, _, err := dialWS(t, ts, channelID, cookie)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readEvent(t, conn)
	assert.Equal(t, domain.EventSystemMessage, welcome.Kind)
	assert.Contains(t, welcome.Content, "已连接")

	// The welcome is written before the hub join completes; wait for it.
	require.Eventually(t, func() bool {
		return env.hub.ClientCount(channelID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	published := domain.CommentEvent(domain.Comment{
		Author:    "观众001",
		Text:      "主播好",
		Timestamp: time.Now(),
	})
	require.NoError(t, env.hub.Publish(context.Background(), channelID, published))

	got := readEvent(t, conn)
	assert.Equal(t, domain.EventNewComment, got.Kind)
	assert.Equal(t, "主播好", got.Content)
}

func TestWebSocket_InvalidChannelID(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.echo)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live/not-a-uuid"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
