package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/localbase/localbase-backend/pkg/logger"
	"golang.org/x/time/rate"
)

// maxTopicsPerClient caps subscriptions held by one connection.
const maxTopicsPerClient = 32

// Event is the envelope pushed to subscribers.
type Event struct {
	Type      string      `json:"type"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is a control frame sent by the browser.
type ClientMessage struct {
	Type   string   `json:"type"` // subscribe, unsubscribe
	Topics []string `json:"topics"`
}

// Client is one websocket connection. Its topic set is owned by the hub
// goroutine.
type Client struct {
	Hub     *Hub
	Conn    *Conn
	Address string // wallet address when the connection is signed in
	Send    chan []byte

	// Allow filters topics the client may subscribe to. nil allows all.
	Allow func(topic string) bool

	topics  map[string]bool
	initial []string
	frames  *rate.Limiter
}

// NewClient builds a client that subscribes to topics once registered.
func NewClient(hub *Hub, conn *Conn, address string, topics []string, buffer int) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Address: address,
		Send:    make(chan []byte, buffer),
		topics:  make(map[string]bool),
		initial: topics,
		frames:  rate.NewLimiter(framesPerSecond, frameBurst),
	}
}

// BroadcastMessage is an encoded event bound for one topic.
type BroadcastMessage struct {
	Topic   string
	Message []byte
}

type subscription struct {
	client *Client
	topics []string
	add    bool
}

// Hub routes published events to the clients subscribed to their topic.
type Hub struct {
	clients map[*Client]bool
	topics  map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	connected  atomic.Int64
	dropped    atomic.Int64
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		subscribe:  make(chan subscription, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run owns the client and topic tables until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connected.Add(1)
			h.addTopics(client, client.initial)
			logger.Info("WebSocket client registered", map[string]interface{}{
				"address": client.Address,
				"topics":  len(client.topics),
				"clients": len(h.clients),
			})

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				logger.Info("WebSocket client unregistered", map[string]interface{}{
					"address": client.Address,
					"clients": len(h.clients),
				})
			}

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			if sub.add {
				h.addTopics(sub.client, sub.topics)
			} else {
				h.removeTopics(sub.client, sub.topics)
			}

		case message := <-h.broadcast:
			for client := range h.topics[message.Topic] {
				select {
				case client.Send <- message.Message:
				default:
					h.remove(client)
					h.dropped.Add(1)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"address": client.Address,
						"topic":   message.Topic,
					})
				}
			}
		}
	}
}

func (h *Hub) addTopics(client *Client, topics []string) {
	for _, topic := range topics {
		if topic == "" || client.topics[topic] {
			continue
		}
		if len(client.topics) >= maxTopicsPerClient {
			logger.Warn("Topic limit reached", map[string]interface{}{
				"address": client.Address,
				"topic":   topic,
			})
			return
		}
		if client.Allow != nil && !client.Allow(topic) {
			continue
		}
		client.topics[topic] = true
		if _, ok := h.topics[topic]; !ok {
			h.topics[topic] = make(map[*Client]bool)
		}
		h.topics[topic][client] = true
	}
}

func (h *Hub) removeTopics(client *Client, topics []string) {
	for _, topic := range topics {
		delete(client.topics, topic)
		if subs, ok := h.topics[topic]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	topics := make([]string, 0, len(client.topics))
	for topic := range client.topics {
		topics = append(topics, topic)
	}
	h.removeTopics(client, topics)
	delete(h.clients, client)
	h.connected.Add(-1)
	close(client.Send)
}

// Publish queues an event for a topic. Events are dropped rather than
// blocking the caller when the hub is saturated.
func (h *Hub) Publish(topic, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"type":  eventType,
			"topic": topic,
		})
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Topic: topic, Message: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":  eventType,
			"topic": topic,
		})
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe adds topics to a registered client.
func (h *Hub) Subscribe(client *Client, topics ...string) {
	select {
	case h.subscribe <- subscription{client: client, topics: topics, add: true}:
	case <-h.done:
	}
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics ...string) {
	select {
	case h.subscribe <- subscription{client: client, topics: topics}:
	case <-h.done:
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// DroppedCount reports how many slow clients were disconnected.
func (h *Hub) DroppedCount() int64 {
	return h.dropped.Load()
}

// HandleClientMessage applies subscribe and unsubscribe frames.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if !client.frames.Allow() {
		logger.Warn("Client frame rate exceeded", map[string]interface{}{
			"address": client.Address,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"address": client.Address,
			"error":   err.Error(),
		})
		return
	}

	switch msg.Type {
	case "subscribe":
		h.Subscribe(client, msg.Topics...)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics...)
	default:
		logger.Debug("Ignoring client message", map[string]interface{}{
			"address": client.Address,
			"type":    msg.Type,
		})
	}
}
