package notifications

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/thedividend/dividend/pkg/logger"
)

const NotificationMessageType = "NOTIFICATION"

// WSMessage is the frame pushed to websocket clients.
type WSMessage struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks open connections per user and fans out new notifications.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan *Notification
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *Notification, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and publications until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for uid, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, uid)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]bool)
			}
			h.clients[c.userID][c] = true
			h.mu.Unlock()
			logger.Debugf("notifications: client registered user=%s", c.userID)

		case c := <-h.unregister:
			h.remove(c)

		case n := <-h.publish:
			payload, err := json.Marshal(n)
			if err != nil {
				logger.Errorf("notifications: marshal %s: %v", n.ID, err)
				continue
			}
			frame, _ := json.Marshal(WSMessage{Type: NotificationMessageType, UserID: n.UserID, Payload: payload})

			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients[n.UserID]))
			for c := range h.clients[n.UserID] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- frame:
				default:
					logger.Warnf("notifications: send buffer full for user=%s, dropping client", c.userID)
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Publish queues n for delivery. It never blocks; when the queue is full the
// notification is still persisted but not pushed live.
func (h *Hub) Publish(n *Notification) {
	select {
	case h.publish <- n:
	default:
		logger.Warnf("notifications: publish queue full, %s not pushed", n.ID)
	}
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
