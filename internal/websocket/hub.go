// Package websocket implements the realtime channel fabric: an actor-style
// hub that multiplexes events to every browser connection joined to a user's
// channel. A single goroutine owns the connection map; joins, leaves and
// publishes are serialized through its command channel, so no lock is needed.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/metrics"
)

const maxClientsPerChannel = 50

type channelClients map[*websocket.Conn]*clientWriter

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinCmd struct {
	baseHubCmd
	channelID    uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type leaveCmd struct {
	baseHubCmd
	channelID  uuid.UUID
	connection *websocket.Conn
}

type publishCmd struct {
	baseHubCmd
	channelID uuid.UUID
	data      []byte
	kind      domain.EventKind
}

type clientCountCmd struct {
	baseHubCmd
	channelID    uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub fans events out per channel. Delivery is best-effort, at-most-once per
// currently-joined connection: no queuing for late joiners, no guarantee for
// clients that disconnect mid-send.
type Hub struct {
	cmdCh   chan hubCmd
	clock   clockwork.Clock
	clients map[uuid.UUID]channelClients
}

func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		clients: make(map[uuid.UUID]channelClients),
	}
	go h.run()
	return h
}

// Join registers a connection on a channel. The caller must have
// authenticated the connection before calling; the hub only enforces the
// per-channel capacity.
func (h *Hub) Join(channelID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- joinCmd{channelID: channelID, connection: conn, errorChannel: errCh}
	return <-errCh
}

// Leave deregisters a connection; invoked on disconnect. Safe to call for
// connections the hub no longer tracks.
func (h *Hub) Leave(channelID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- leaveCmd{channelID: channelID, connection: conn}
}

// Publish fans an event out to every connection currently joined to the
// channel. Implements domain.Publisher; always returns nil - per-client
// delivery failures just drop that client.
func (h *Hub) Publish(_ context.Context, channelID uuid.UUID, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal channel event: %w", err)
	}
	h.cmdCh <- publishCmd{channelID: channelID, data: data, kind: event.Kind}
	return nil
}

// ClientCount returns how many connections are joined to the channel.
func (h *Hub) ClientCount(channelID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{channelID: channelID, replyChannel: replyCh}
	return <-replyCh
}

// Stop closes every tracked connection and terminates the hub goroutine.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case joinCmd:
			h.handleJoin(c)
		case leaveCmd:
			h.handleLeave(c.channelID, c.connection)
		case publishCmd:
			h.handlePublish(c)
		case clientCountCmd:
			c.replyChannel <- len(h.clients[c.channelID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Error("hub received unknown command", "type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleJoin(c joinCmd) {
	clients, exists := h.clients[c.channelID]
	if !exists {
		clients = make(channelClients)
		h.clients[c.channelID] = clients
	}

	if len(clients) >= maxClientsPerChannel {
		slog.Warn("rejecting client, channel at capacity", "channel_id", c.channelID, "max", maxClientsPerChannel)
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per channel (%d) reached", maxClientsPerChannel)
		return
	}

	clients[c.connection] = newClientWriter(c.connection, h.clock)
	metrics.ConnectedClients.Inc()
	slog.Debug("client joined channel", "channel_id", c.channelID, "total", len(clients))
	c.errorChannel <- nil
}

func (h *Hub) handleLeave(channelID uuid.UUID, conn *websocket.Conn) {
	clients, exists := h.clients[channelID]
	if !exists {
		return
	}
	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.ConnectedClients.Dec()

	if len(clients) == 0 {
		delete(h.clients, channelID)
		slog.Debug("last client left channel", "channel_id", channelID)
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	metrics.EventsPublished.WithLabelValues(string(c.kind)).Inc()

	clients, exists := h.clients[c.channelID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendChannel <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		metrics.SlowClientDisconnects.Inc()
		slog.Warn("disconnecting slow client", "channel_id", c.channelID)
		h.handleLeave(c.channelID, conn)
	}
}

func (h *Hub) handleStop() {
	for channelID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
		}
		metrics.ConnectedClients.Sub(float64(len(clients)))
		delete(h.clients, channelID)
	}
}
