// Package ws pushes ingestion run summaries to dashboards over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

// Slate identifies a season/week a client watches.
type Slate struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

// Config describes the process in the hello frame sent on connect.
type Config struct {
	Mode      string
	Season    int
	Week      int
	StartedAt time.Time
	// AllowedOrigins restricts browser upgrades. Empty allows any origin.
	AllowedOrigins []string
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type helloPayload struct {
	Mode          string  `json:"mode"`
	Season        int     `json:"season"`
	Week          int     `json:"week"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Watching      []Slate `json:"watching"`
}

// watchMsg is sent by clients to change the slates they follow, e.g.
// {"watch":[{"season":2025,"week":12}]}. Watching nothing means every slate.
type watchMsg struct {
	Watch   []Slate `json:"watch"`
	Unwatch []Slate `json:"unwatch"`
	Reset   bool    `json:"reset"`
}

// Hub relays run summaries from the signal bus to connected clients,
// filtered by the slates each client watches.
type Hub struct {
	bus      domain.SignalBus
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	done    bool
}

// NewHub creates a Hub reading run summaries from bus.
func NewHub(bus domain.SignalBus, logger *slog.Logger, cfg Config) *Hub {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = "unknown"
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now().UTC()
	}
	return &Hub{
		bus: bus,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Run relays run summaries until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) error {
	events, err := h.bus.Subscribe(ctx, pipeline.ChannelIngest)
	if err != nil {
		return err
	}
	h.logger.Info("ws: relaying run summaries", slog.String("channel", pipeline.ChannelIngest))

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case data, ok := <-events:
			if !ok {
				h.shutdown()
				return nil
			}
			h.relay(data)
		}
	}
}

// relay forwards one published run summary. Clients that cannot keep up
// are disconnected rather than silently missing runs.
func (h *Hub) relay(data []byte) {
	var evt pipeline.RunEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("ws: undecodable run summary", slog.String("error", err.Error()))
		return
	}
	frame, err := json.Marshal(envelope{Type: "run", Payload: json.RawMessage(data)})
	if err != nil {
		return
	}
	slate := Slate{Season: evt.Season, Week: evt.Week}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.watches(slate) {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("ws: disconnecting slow client", slog.String("remote", c.remote))
			h.dropLocked(c)
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("ws: client connected",
		slog.String("remote", c.remote),
		slog.Int("clients", len(h.clients)),
	)
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.dropLocked(c)
		h.logger.Info("ws: client disconnected",
			slog.String("remote", c.remote),
			slog.Int("clients", len(h.clients)),
		)
	}
}

func (h *Hub) dropLocked(c *client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// HandleWS upgrades the request. The optional season and week query
// parameters set the initial watch.
// GET /ws?season=2025&week=12
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		remote: r.RemoteAddr,
		slates: make(map[Slate]struct{}),
	}
	if s, ok := slateFromQuery(r); ok {
		c.slates[s] = struct{}{}
	}
	if !h.add(c) {
		conn.Close()
		return
	}
	c.enqueue(envelope{Type: "hello", Payload: helloPayload{
		Mode:          h.cfg.Mode,
		Season:        h.cfg.Season,
		Week:          h.cfg.Week,
		UptimeSeconds: max(0, int64(time.Since(h.cfg.StartedAt).Seconds())),
		Watching:      c.watching(),
	}})

	go c.writePump()
	go c.readPump()
}

func slateFromQuery(r *http.Request) (Slate, bool) {
	season, err1 := strconv.Atoi(r.URL.Query().Get("season"))
	week, err2 := strconv.Atoi(r.URL.Query().Get("week"))
	if err1 != nil || err2 != nil {
		return Slate{}, false
	}
	return Slate{Season: season, Week: week}, true
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	mu     sync.RWMutex
	slates map[Slate]struct{}
}

func (c *client) watches(s Slate) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.slates) == 0 {
		return true
	}
	_, ok := c.slates[s]
	return ok
}

func (c *client) watching() []Slate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Slate, 0, len(c.slates))
	for s := range c.slates {
		out = append(out, s)
	}
	return out
}

func (c *client) apply(msg watchMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Reset {
		clear(c.slates)
	}
	for _, s := range msg.Watch {
		c.slates[s] = struct{}{}
	}
	for _, s := range msg.Unwatch {
		delete(c.slates, s)
	}
}

// enqueue queues a frame under the hub lock so it never races a close of
// the send channel.
func (c *client) enqueue(e envelope) {
	frame, err := json.Marshal(e)
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		var msg watchMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(envelope{Type: "error", Payload: "expected {\"watch\":[...]} or {\"unwatch\":[...]}"})
			continue
		}
		c.apply(msg)
		c.enqueue(envelope{Type: "watching", Payload: c.watching()})
	}
}

func (c *client) writePump() {
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
