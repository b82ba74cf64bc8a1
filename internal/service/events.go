package service

import (
	"encoding/json"
	"sync"
	"time"
)

// MessageType is the type of a realtime message
type MessageType string

const (
	MessageNotification MessageType = "notification"
	MessageConnected    MessageType = "connected"
	MessageHeartbeat    MessageType = "heartbeat"
)

// Message is pushed to connected clients as {type, data}
type Message struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// Encode returns the JSON frame for the message
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Subscriber is one connected client of a user
type Subscriber struct {
	ID       string
	UserID   string
	Messages chan *Message
	Done     chan struct{}
}

// NotificationHub fans messages out to every connection a user has open
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewNotificationHub creates a hub that sends a heartbeat to every client at the given interval
func NewNotificationHub(heartbeat time.Duration) *NotificationHub {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	hub := &NotificationHub{
		subscribers: make(map[string]map[string]*Subscriber),
		heartbeat:   time.NewTicker(heartbeat),
		done:        make(chan struct{}),
	}
	go hub.sendHeartbeats()
	return hub
}

// Subscribe registers a new connection for a user
func (h *NotificationHub) Subscribe(userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:       subscriberID,
		UserID:   userID,
		Messages: make(chan *Message, 100), // Buffer to prevent blocking
		Done:     make(chan struct{}),
	}
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[string]*Subscriber)
	}
	h.subscribers[userID][subscriberID] = sub
	return sub
}

// Unsubscribe removes a connection
func (h *NotificationHub) Unsubscribe(userID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		return
	}
	if sub, ok := userSubs[subscriberID]; ok {
		close(sub.Done)
		close(sub.Messages)
		delete(userSubs, subscriberID)
	}
	if len(userSubs) == 0 {
		delete(h.subscribers, userID)
	}
}

// SendToUser delivers a message to every connection of the user.
// Slow clients whose buffer is full miss the message.
func (h *NotificationHub) SendToUser(userID string, msg *Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subscribers[userID] {
		select {
		case sub.Messages <- msg:
			delivered++
		default:
			// Buffer full, skip this subscriber
		}
	}
	return delivered
}

// ConnectionCount returns the number of open connections of a user
func (h *NotificationHub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

func (h *NotificationHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			msg := &Message{
				Type: MessageHeartbeat,
				Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
			}
			h.mu.RLock()
			for _, userSubs := range h.subscribers {
				for _, sub := range userSubs {
					select {
					case sub.Messages <- msg:
					default:
					}
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the heartbeat and disconnects every client
func (h *NotificationHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()
		for userID, userSubs := range h.subscribers {
			for _, sub := range userSubs {
				close(sub.Done)
				close(sub.Messages)
			}
			delete(h.subscribers, userID)
		}
	})
}
