package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans accepted location fixes out to websocket watchers of a bus.
// With redis configured, fixes are also published so other backend
// instances can serve the same watchers.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	BusID string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(busID string) *Client {
	client := &Client{
		BusID: busID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[busID] == nil {
		h.clients[busID] = map[*Client]struct{}{}
	}
	h.clients[busID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if busClients, ok := h.clients[client.BusID]; ok {
		delete(busClients, client)
		if len(busClients) == 0 {
			delete(h.clients, client.BusID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(busID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[busID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(busID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "bus:*:location")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		busID := busIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[busID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(busID string) string {
	return "bus:" + busID + ":location"
}

func busIDFromChannel(ch string) string {
	// bus:{busId}:location
	const prefix = "bus:"
	const suffix = ":location"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
