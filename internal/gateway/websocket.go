// ABOUTME: Websocket gateway: one connection per sender, JSON-framed messages
// ABOUTME: Each inbound message is handled on its own goroutine
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebsocketGateway accepts chat connections and bridges them to the
// message handler. The connecting client identifies itself with a
// `sender` query parameter; later outbound sends are routed back over
// that connection.
type WebsocketGateway struct {
	handler  Handler
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*client
}

// client pairs a connection with its write lock. gorilla/websocket
// allows at most one concurrent writer per connection, and the router,
// reminder poller and training sweeper may all send to the same
// recipient at once.
type client struct {
	conn *websocket.Conn

	wmu sync.Mutex
}

// NewWebsocketGateway creates a gateway dispatching to handler.
func NewWebsocketGateway(handler Handler, log zerolog.Logger) *WebsocketGateway {
	return &WebsocketGateway{
		handler:  handler,
		upgrader: websocket.Upgrader{ReadBufferSize: 1 << 16, WriteBufferSize: 1 << 16},
		log:      log,
		conns:    make(map[string]*client),
	}
}

// ServeHTTP upgrades the connection and pumps inbound messages.
func (g *WebsocketGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	senderID := r.URL.Query().Get("sender")
	if senderID == "" {
		http.Error(w, "missing sender parameter", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	g.register(senderID, conn)
	defer g.unregister(senderID, conn)

	g.log.Info().Str("sender", senderID).Msg("client connected")

	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn().Err(err).Str("sender", senderID).Msg("read failed")
			}
			return
		}
		msg.SenderID = senderID

		// One worker per inbound message; per-user ordering is the
		// router's responsibility.
		go g.handler.HandleMessage(r.Context(), msg)
	}
}

// Send delivers an outbound message over the recipient's connection.
func (g *WebsocketGateway) Send(ctx context.Context, msg Outbound) error {
	g.mu.RLock()
	c, ok := g.conns[msg.RecipientID]
	g.mu.RUnlock()

	if !ok {
		return fmt.Errorf("recipient %s is not connected", msg.RecipientID)
	}

	c.wmu.Lock()
	err := c.conn.WriteJSON(msg)
	c.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", msg.RecipientID, err)
	}
	return nil
}

func (g *WebsocketGateway) register(senderID string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.conns[senderID]; ok {
		_ = old.conn.Close()
	}
	g.conns[senderID] = &client{conn: conn}
}

func (g *WebsocketGateway) unregister(senderID string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.conns[senderID]; ok && c.conn == conn {
		delete(g.conns, senderID)
	}
	_ = conn.Close()
}
