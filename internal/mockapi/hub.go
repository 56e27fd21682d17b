package mockapi

import (
	"encoding/json"
	"sync"

	"taskclient/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// envelope mirrors the frame format the client channel expects.
type envelope struct {
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

type subscribeFrame struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

type subscriber struct {
	conn     *websocket.Conn
	username string

	mu     sync.Mutex
	topics map[string]bool
}

func (s *subscriber) subscribe(topic string) {
	s.mu.Lock()
	s.topics[topic] = true
	s.mu.Unlock()
}

func (s *subscriber) wants(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics[topic]
}

// send serializes writes per connection; gorilla permits one writer at a time.
func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans push messages out to subscribed connections by topic.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	logger.Debug("mockapi: push client connected", zap.String("username", sub.username))
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	logger.Debug("mockapi: push client disconnected", zap.String("username", sub.username))
}

// Publish delivers body to every connection subscribed to topic.
func (h *Hub) Publish(topic string, body any) {
	h.publish(topic, "", body)
}

// PublishToUser delivers body on a per-user queue topic to that user's
// connections only.
func (h *Hub) PublishToUser(username, topic string, body any) {
	h.publish(topic, username, body)
}

func (h *Hub) publish(topic, username string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	frame, err := json.Marshal(envelope{Topic: topic, Body: raw})
	if err != nil {
		return
	}

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		if username != "" && sub.username != username {
			continue
		}
		if sub.wants(topic) {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if err := sub.send(frame); err != nil {
			h.unregister(sub)
			sub.conn.Close()
		}
	}
}
