package notify

import "sync"

// Hub fans appended notifications out to live subscribers, one channel set
// per user. Delivery is best-effort: a slow subscriber drops events rather
// than blocking the writer.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan *Notification
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan *Notification)}
}

// Subscribe creates a buffered channel receiving the user's notifications.
func (h *Hub) Subscribe(userID string) chan *Notification {
	ch := make(chan *Notification, 16)
	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel previously returned by Subscribe.
func (h *Hub) Unsubscribe(userID string, ch chan *Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	chans := h.subs[userID]
	for i, c := range chans {
		if c == ch {
			h.subs[userID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// Publish sends a notification to all of the user's subscribers without
// blocking.
func (h *Hub) Publish(n *Notification) {
	h.mu.RLock()
	chans := h.subs[n.UserID]
	h.mu.RUnlock()

	for _, ch := range chans {
		select {
		case ch <- n:
		default:
		}
	}
}
