// Package websocket pushes per-user live updates (view invalidations, job
// progress, review digests) from Redis pub/sub to open browser sockets.
package websocket

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/views"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

type tokenVerifier interface {
	ParseUserID(token string) (uuid.UUID, error)
}

// UpdateSource yields raw messages published on a channel until ctx ends.
type UpdateSource interface {
	Updates(ctx context.Context, channel string) <-chan []byte
}

// RedisSource adapts a Redis client's pub/sub to UpdateSource.
type RedisSource struct {
	Client *redis.Client
}

func (s RedisSource) Updates(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte, sendBuffer)
	pubsub := s.Client.Subscribe(ctx, channel)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]map[*client]struct{}
	cancelFuncs map[uuid.UUID]context.CancelFunc
	source      UpdateSource
	auth        tokenVerifier
	upgrader    websocket.Upgrader
}

// NewHub accepts sockets from allowedOrigins (comma separated, "*" for any).
func NewHub(source UpdateSource, auth tokenVerifier, allowedOrigins string) *Hub {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = true
		}
	}

	h := &Hub{
		clients:     make(map[uuid.UUID]map[*client]struct{}),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		source:      source,
		auth:        auth,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origins["*"] {
				return true
			}
			if origins[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
	return h
}

// HandleWebSocket authenticates via the token query param, since browsers
// cannot set headers on the handshake.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.auth.ParseUserID(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(userID, c)

	go h.writePump(c)
	go h.readPump(userID, c)
}

func (h *Hub) register(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}

	// one subscription per user, shared by all of their sockets
	if len(set) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.forward(ctx, userID)
	}

	log.Printf("WebSocket connected: user %s (total: %d)", userID, len(set))
}

func (h *Hub) unregister(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)

	if len(set) == 0 {
		delete(h.clients, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	log.Printf("WebSocket disconnected: user %s", userID)
}

func (h *Hub) forward(ctx context.Context, userID uuid.UUID) {
	for data := range h.source.Updates(ctx, views.Channel(userID)) {
		h.broadcast(userID, data)
	}
}

func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			// slow reader: drop the message, the next invalidation refetches anyway
			log.Printf("WebSocket send buffer full for user %s", userID)
		}
	}
}

func (h *Hub) readPump(userID uuid.UUID, c *client) {
	defer func() {
		h.unregister(userID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close drops every socket and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
		}
	}
	h.clients = make(map[uuid.UUID]map[*client]struct{})
	h.cancelFuncs = make(map[uuid.UUID]context.CancelFunc)
}
