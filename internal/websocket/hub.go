package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/events"

	"github.com/google/uuid"
)

const hubModule = "ProgressHub"

// Hub keeps the open progress connections of this instance, keyed by user.
// A user may be connected from several devices.
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger logger.ILogger
}

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		logger:     log,
	}
}

// Run serializes registration until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info(hubModule, "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Connected reports how many connections userID has on this instance.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver forwards event to the connections of the user named in its
// user_id field. Events without an owner are dropped.
func (h *Hub) Deliver(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	raw, ok := payload["user_id"]
	if !ok {
		return nil
	}
	userID, err := uuid.Parse(fmt.Sprint(raw))
	if err != nil {
		return nil
	}

	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       payload,
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}

	// Send channels are only closed under the write lock.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(hubModule, "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
	return nil
}
