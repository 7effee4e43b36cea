package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gamestracker/internal/domain"
)

// Message types
const (
	MessageTypeFeedUpdate   = "feed_update"
	MessageTypeSubscribe    = "subscribe"
	MessageTypeUnsubscribe  = "unsubscribe"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
)

// knownFeeds lists the feeds clients may subscribe to
var knownFeeds = map[string]bool{
	domain.FeedReviewedThisWeek: true,
	domain.FeedRecentlyReleased: true,
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Feed      string      `json:"feed,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// FeedUpdate carries a refreshed feed to subscribers
type FeedUpdate struct {
	Feed      string      `json:"feed"`
	Items     interface{} `json:"items"`
	FetchedAt time.Time   `json:"fetched_at"`
	Stale     bool        `json:"stale"`
}

// Hub tracks connected clients and fans feed updates out to subscribers
type Hub struct {
	// Subscribed clients by feed name
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest

	mu     sync.RWMutex
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	feed   string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger.With("component", "websocket_hub"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.removeClient(client)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.feed]; !ok {
				h.clients[req.feed] = make(map[*Client]bool)
			}
			h.clients[req.feed][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "feed", req.feed)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.feed]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.feed)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "feed", req.feed)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)
	for feed, clients := range h.clients {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, feed)
		}
	}
	close(client.send)
	h.logger.Debug("client unregistered", "client_id", client.id)
}

// broadcastMessage sends a message to the subscribers of its feed, or to every
// client when the message names no feed
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	targets := h.allClients
	if message.Feed != "" {
		targets = h.clients[message.Feed]
	}
	for client := range targets {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastFeedUpdate sends a refreshed feed to its subscribers
func (h *Hub) BroadcastFeedUpdate(feed string, items interface{}, fetchedAt time.Time, stale bool) {
	message := &Message{
		Type: MessageTypeFeedUpdate,
		Feed: feed,
		Data: FeedUpdate{
			Feed:      feed,
			Items:     items,
			FetchedAt: fetchedAt,
			Stale:     stale,
		},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "feed", feed)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub. It returns immediately once the hub is stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Subscribe adds a client to a feed subscription
func (h *Hub) Subscribe(client *Client, feed string) {
	select {
	case h.subscribe <- &subscriptionRequest{client: client, feed: feed}:
	case <-h.ctx.Done():
	}
}

// Unsubscribe removes a client from a feed subscription
func (h *Hub) Unsubscribe(client *Client, feed string) {
	select {
	case h.unsubscribe <- &subscriptionRequest{client: client, feed: feed}:
	case <-h.ctx.Done():
	}
}

// GetSubscriberCount returns the number of subscribers of a feed
func (h *Hub) GetSubscriberCount(feed string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[feed])
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}

// Stats returns connection counts overall and per feed
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	feeds := make(map[string]int, len(knownFeeds))
	for feed := range knownFeeds {
		feeds[feed] = len(h.clients[feed])
	}
	return map[string]interface{}{
		"total_connections": len(h.allClients),
		"subscribers":       feeds,
	}
}
