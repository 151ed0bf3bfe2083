package websocket

import (
	"sync"

	"chitchat/internal/live"
	"chitchat/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub tracks connected clients and owns the dependencies they share.
type Hub struct {
	bus        live.Subscriber
	authorizer *ChannelAuthorizer
	log        *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(bus live.Subscriber, authorizer *ChannelAuthorizer, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		bus:        bus,
		authorizer: authorizer,
		log:        logger.With(zap.String("component", "websocket")),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	metrics.LiveConnections.Inc()
	client.log.Info("client connected")
}

// Unregister drops the client and closes its streams.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	delete(h.clients, client.ID)
	h.mu.Unlock()

	client.close()
	if ok {
		metrics.LiveConnections.Dec()
		client.log.Info("client disconnected")
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientsForUser returns the connections currently open for userID.
func (h *Hub) ClientsForUser(userID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, c := range h.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}
