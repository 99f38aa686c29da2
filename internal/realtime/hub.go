package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 16
)

// Envelope is the frame exchanged with displays over the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub is a Channel for displays connected directly to this service over a
// WebSocket. It counts as connected while Run is active.
type Hub struct {
	upgrader websocket.Upgrader
	reg      *registry
	running  atomic.Bool

	mu      sync.RWMutex
	clients map[*socketClient]struct{}
}

var _ ack.Channel = (*Hub)(nil)

type socketClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *socketClient) close() {
	c.once.Do(func() { close(c.send) })
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reg:     newRegistry(),
		clients: map[*socketClient]struct{}{},
	}
}

// Run marks the hub live until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) error {
	h.running.Store(true)
	log.Info().Msg("display hub running")
	<-ctx.Done()
	h.running.Store(false)

	h.mu.Lock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	log.Info().Msg("display hub stopped")
	return nil
}

func (h *Hub) Connected() bool { return h.running.Load() }

// Emit queues event for every connected display. A display whose buffer is
// full is skipped for this event.
func (h *Hub) Emit(event string, payload []byte) error {
	if !h.Connected() {
		return ack.ErrNotConnected
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			log.Warn().Str("client", c.id).Str("event", event).Msg("display send buffer full, dropping event")
		}
	}
	return nil
}

func (h *Hub) On(event string, fn func([]byte)) func() {
	id, _ := h.reg.add(event, fn)
	var once sync.Once
	return func() {
		once.Do(func() { h.reg.remove(event, id) })
	}
}

// Clients lists the ids of connected displays.
func (h *Hub) Clients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c.id)
	}
	sort.Strings(out)
	return out
}

// ServeHTTP upgrades a display connection. The display may identify itself
// with ?device_id=.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Connected() {
		http.Error(w, "display hub not running", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := r.URL.Query().Get("device_id")
	if id == "" {
		id = uuid.NewString()
	}
	c := &socketClient{id: id, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info().Str("client", id).Msg("display connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) unregister(c *socketClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	log.Info().Str("client", c.id).Msg("display disconnected")
}

func (h *Hub) readPump(c *socketClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("display read failed")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Event == "" {
			log.Debug().Str("client", c.id).Msg("ignoring malformed display frame")
			continue
		}
		h.reg.dispatch(env.Event, env.Data)
	}
}

func (h *Hub) writePump(c *socketClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("client", c.id).Msg("display write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
