// Package ws fans session lifecycle events out to websocket subscribers.
// Subscribers are read-only observers; all game mutations go through the REST
// surface.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
	"github.com/MarcMahler/gamehub-backend/internal/logger"
)

// Hub tracks which client watches which session. The empty session key
// subscribes to every event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[c.SessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subscribers[c.SessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subscribers[c.SessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subscribers, c.SessionID)
		}
	}
}

// Publish enqueues the event for every subscriber of the session plus the
// firehose watchers. Slow clients are skipped, never waited on.
func (h *Hub) Publish(evt domain.SessionEvent) {
	msg, err := json.Marshal(evt)
	if err != nil {
		logger.Error("failed to encode session event", "type", evt.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	h.send(h.subscribers[evt.Session.ID.String()], msg)
	h.send(h.subscribers[""], msg)
}

func (h *Hub) send(set map[*Client]struct{}, msg []byte) {
	for c := range set {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("dropping event for slow websocket client", "session", c.SessionID)
		}
	}
}
