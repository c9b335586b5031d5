// internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xin-kz910/SE-project/pkg/logger"
)

type Client struct {
	ID     string
	UserID uint
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// RegisterClient and UnregisterClient return immediately once Run has stopped.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser marshals data and queues it for every connection of userID.
func (h *Hub) SendToUser(userID uint, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error().Err(err).Msg("marshal hub message")
		return
	}
	h.SendRaw(userID, payload)
}

// SendRaw queues an already encoded message. Full buffers are skipped, a slow
// browser never blocks a transition.
func (h *Hub) SendRaw(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

// Connected reports how many connections userID has open.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			logger.Debug().Str("client", client.ID).Uint("user_id", client.UserID).Msg("ws client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				logger.Debug().Str("client", client.ID).Msg("ws client unregistered")
			}
			h.mu.Unlock()
		}
	}
}
