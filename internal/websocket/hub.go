package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"screening-onboarding-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel hubs use to reach clients connected
// to other instances.
const ClusterChannel = "thread_events"

type Hub struct {
	// Registered clients: thread id -> connections watching it.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery; nil on a single node.
	rdb *redis.Client
	// instance tags frames this hub published so it skips its own echoes.
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

// Run serves register/unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ThreadID] = append(h.clients[client.ThreadID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"thread_id": client.ThreadID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Register attaches client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister detaches client. It returns immediately once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.ThreadID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.ThreadID] = append(clients[:i], clients[i+1:]...)
			client.close()
			break
		}
	}
	if len(h.clients[client.ThreadID]) == 0 {
		delete(h.clients, client.ThreadID)
		h.logger.Info("Hub", "Thread has no more clients", map[string]interface{}{"thread_id": client.ThreadID})
	}
}

// Send delivers a frame to every client of threadID on this instance and,
// through redis, on every other instance.
func (h *Hub) Send(threadID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(threadID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:   h.instance,
			ThreadID: threadID,
			Message:  data,
		})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// ClientCount reports the local connections watching threadID.
func (h *Hub) ClientCount(threadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[threadID])
}

func (h *Hub) deliver(threadID string, data []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[threadID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.offer(data) {
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"thread_id": threadID})
			go h.Unregister(client)
		}
	}
}

type clusterMessage struct {
	Origin   string          `json:"origin"`
	ThreadID string          `json:"thread_id"`
	Message  json.RawMessage `json:"message"`
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			msg = m
		}

		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instance {
			continue
		}
		h.deliver(payload.ThreadID, payload.Message)
	}
}
