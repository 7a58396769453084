// Package ws is the connection gateway. It authenticates the bearer token,
// upgrades to a websocket, registers the connection as its user's event
// sink and translates socket frames into service calls.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatwire/auth"
	"chatwire/contract"
	"chatwire/errors"
	"chatwire/observability"
	"chatwire/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Gateway struct {
	log      *slog.Logger
	registry contract.IRegistry
	presence services.IPresenceService
	messages services.IMessageService
	receipts services.IReceiptService
	pins     services.IPinService
	typing   services.ITypingService
	chats    services.IChatService
	metrics  *observability.Metrics

	sendBuffer int

	mu      sync.Mutex
	clients map[contract.ConnID]*Client
}

func NewGateway(
	log *slog.Logger,
	registry contract.IRegistry,
	presence services.IPresenceService,
	messages services.IMessageService,
	receipts services.IReceiptService,
	pins services.IPinService,
	typing services.ITypingService,
	chats services.IChatService,
	metrics *observability.Metrics,
	sendBuffer int,
) *Gateway {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Gateway{
		log:        log,
		registry:   registry,
		presence:   presence,
		messages:   messages,
		receipts:   receipts,
		pins:       pins,
		typing:     typing,
		chats:      chats,
		metrics:    metrics,
		sendBuffer: sendBuffer,
		clients:    make(map[contract.ConnID]*Client),
	}
}

// ServeWS is the websocket entrypoint. Authentication happens before the
// upgrade so a bad token costs one HTTP round trip, not a socket.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, errors.ErrMissingIdentity.Error(), http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		gateway:  g,
		conn:     conn,
		log:      g.log,
		connID:   contract.ConnID(uuid.NewString()),
		userID:   claims.UserID,
		username: claims.Username,
		send:     make(chan []byte, g.sendBuffer),
		done:     make(chan struct{}),
	}

	g.register(r.Context(), client)
	go client.serve(context.WithoutCancel(r.Context()))
}

func (g *Gateway) register(ctx context.Context, c *Client) {
	replaced, cameOnline := g.registry.Connect(c.connID, c.userID, c)

	g.mu.Lock()
	old := g.clients[replaced]
	delete(g.clients, replaced)
	g.clients[c.connID] = c
	g.mu.Unlock()

	// A newer connection for the same user supersedes the older one.
	if old != nil {
		old.Close()
	}

	g.metrics.ConnectionsActive.Inc()
	g.log.Info("client connected", "user", c.userID, "conn", string(c.connID), "replaced", replaced != "")

	if cameOnline {
		if err := g.presence.Connected(ctx, c.userID, c.username); err != nil {
			g.log.Error("presence update failed", "user", c.userID, "error", err)
		}
	}
}

func (g *Gateway) unregister(ctx context.Context, c *Client) {
	g.mu.Lock()
	if g.clients[c.connID] == c {
		delete(g.clients, c.connID)
	}
	g.mu.Unlock()

	userID, current := g.registry.Disconnect(c.connID)
	g.metrics.ConnectionsActive.Dec()
	g.log.Info("client disconnected", "user", c.userID, "conn", string(c.connID))

	// A stale connection replaced by a newer one must not flip presence.
	if userID != "" && current {
		if err := g.presence.Disconnected(ctx, userID); err != nil {
			g.log.Error("presence update failed", "user", userID, "error", err)
		}
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	// Browser websocket clients cannot set headers on the handshake.
	return r.URL.Query().Get("token")
}
