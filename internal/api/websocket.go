package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/xgparam-core/internal/fanout"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/config"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/logging"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeState       = "state"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// WSAllCategories subscribes a client to every category.
	WSAllCategories = "*"

	wsSendBufferSize = 256
)

// WSMessage is a message sent to or from a WebSocket client.
//
//	→ {"type":"subscribe","id":"1","categories":["reverb"]}
//	← {"type":"response","id":"1","payload":{"subscribed":["reverb"]}}
//	← {"type":"state","id":"1","categories":["reverb"],"timestamp":"...","payload":{"parameters":[...]}}
//	← {"type":"event","timestamp":"...","payload":{"kind":"update","address":"02/01/0C",...}}
//
// The state message holds the current parameters of the newly subscribed
// categories. Its timestamp is taken under the registry lock, so events
// with an earlier or equal time are already reflected in it.
type WSMessage struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
	Payload    any      `json:"payload,omitempty"`
}

// Hub tracks WebSocket clients and broadcasts parameter events to those
// subscribed to the event's category. It implements fanout.Sink.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *logging.Logger
	registry *xgparam.Registry // optional; enables state on subscribe

	mu      sync.RWMutex
	clients map[*WSClient]struct{}

	dropped atomic.Uint64
}

// WSClient is one connected WebSocket client.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]struct{}
	closed        bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origins are checked by the CORS middleware.
		return true
	},
}

// NewHub creates a hub. With a registry, a subscribe is answered with the
// current state of the subscribed categories.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, reg *xgparam.Registry) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		clients:  make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Name implements fanout.Sink.
func (h *Hub) Name() string { return "websocket" }

// Deliver implements fanout.Sink. A client whose buffer is full misses
// the event and the drop is counted.
func (h *Hub) Deliver(_ context.Context, ev fanout.Event) error {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
		Payload:   ev,
	})
	if err != nil {
		return fmt.Errorf("encoding websocket event: %w", err)
	}
	h.Broadcast(ev.Category, data)
	return nil
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "client_id", c.id, "clients", n)
}

// Unregister removes a client and closes its send channel. It is safe to
// call more than once.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Debug("websocket client disconnected", "client_id", c.id, "clients", n)
	}
}

// Broadcast sends data to every client subscribed to category.
func (h *Hub) Broadcast(category string, data []byte) {
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.isSubscribed(category) && !c.trySend(data) {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages slow clients have missed.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
		if c.conn != nil {
			c.conn.Close() //nolint:errcheck // shutting down
		}
	}
}

// categoryMatcher reports whether a category is covered by the validated
// subscription names.
func categoryMatcher(names []string) func(xgparam.Category) bool {
	want := make(map[xgparam.Category]bool, len(names))
	for _, name := range names {
		if name == WSAllCategories {
			return func(xgparam.Category) bool { return true }
		}
		if c, err := xgparam.ParseCategory(name); err == nil {
			want[c] = true
		}
	}
	return func(c xgparam.Category) bool { return want[c] }
}

// handleWebSocket upgrades the connection. A new client receives nothing
// until it subscribes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &WSClient{
		id:            uuid.NewString(),
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(c)

	go c.writePump()
	go c.readPump()
}

func (c *WSClient) timeouts() (ping, pong time.Duration) {
	ping = time.Duration(c.hub.cfg.PingInterval) * time.Second
	pong = time.Duration(c.hub.cfg.PongTimeout) * time.Second
	if ping <= 0 {
		ping = 30 * time.Second
	}
	if pong <= 0 {
		pong = 10 * time.Second
	}
	return ping, pong
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck // connection is done
	}()

	ping, pong := c.timeouts()
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	_ = extend() //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		_ = extend() //nolint:errcheck // as above
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump() {
	ping, pong := c.timeouts()
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // connection is done
	}()

	write := func(kind int, data []byte) error {
		if err := c.conn.SetWriteDeadline(time.Now().Add(pong)); err != nil {
			return err
		}
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, nil) //nolint:errcheck // best effort
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg, true)
	case WSTypeUnsubscribe:
		c.handleSubscribe(msg, false)
	case WSTypePing:
		c.sendMessage(WSMessage{Type: WSTypePong, ID: msg.ID})
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// handleSubscribe validates every category before changing anything.
func (c *WSClient) handleSubscribe(msg WSMessage, subscribe bool) {
	if len(msg.Categories) == 0 {
		c.sendError(msg.ID, "categories are required")
		return
	}
	names := make([]string, 0, len(msg.Categories))
	for _, name := range msg.Categories {
		if name == WSAllCategories {
			names = append(names, name)
			continue
		}
		cat, err := xgparam.ParseCategory(name)
		if err != nil {
			c.sendError(msg.ID, err.Error())
			return
		}
		names = append(names, cat.String())
	}

	if !subscribe {
		c.setSubscribed(names, false)
		c.sendMessage(WSMessage{Type: WSTypeResponse, ID: msg.ID, Payload: map[string]any{"unsubscribed": names}})
		return
	}

	c.hub.logger.Debug("websocket client subscribed", "client_id", c.id, "categories", names)
	reply := WSMessage{Type: WSTypeResponse, ID: msg.ID, Payload: map[string]any{"subscribed": names}}
	if c.hub.registry == nil {
		c.setSubscribed(names, true)
		c.sendMessage(reply)
		return
	}

	// Subscribing and queueing the state under the registry lock means
	// every event queued before the state is older than it.
	_ = c.hub.registry.Do(func() error { //nolint:errcheck // closure never fails
		c.setSubscribed(names, true)
		c.sendMessage(reply)
		c.sendMessage(WSMessage{
			Type:       WSTypeState,
			ID:         msg.ID,
			Categories: names,
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			Payload:    map[string]any{"parameters": currentViews(c.hub.registry, categoryMatcher(names))},
		})
		return nil
	})
}

func (c *WSClient) setSubscribed(names []string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if on {
			c.subscriptions[name] = struct{}{}
		} else {
			delete(c.subscriptions, name)
		}
	}
}

// trySend queues data without blocking. It reports false when the client
// is gone or its buffer is full.
func (c *WSClient) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) isSubscribed(category string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.subscriptions[WSAllCategories]; ok {
		return true
	}
	_, ok := c.subscriptions[category]
	return ok
}

func (c *WSClient) sendMessage(msg WSMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("encoding websocket message", "type", msg.Type, "error", err)
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendMessage(WSMessage{Type: WSTypeError, ID: id, Payload: map[string]string{"message": message}})
}
