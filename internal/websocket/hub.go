package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "policylens:cluster_events"

// ReloadHandler receives document changes announced by other instances.
type ReloadHandler func(ctx context.Context, dc events.DocumentChanged)

type Hub struct {
	// Live query sessions by course slug
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance reloads; nil for a single instance
	rdb        *redis.Client
	instanceID string
	onReload   ReloadHandler

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// OnReload sets the handler for reloads announced by other instances.
// It must be called before Run.
func (h *Hub) OnReload(fn ReloadHandler) {
	h.onReload = fn
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Course] = append(h.clients[client.Course], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Query session opened", map[string]interface{}{"course": client.Course})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Course]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.Course] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.clients[client.Course]) == 0 {
					delete(h.clients, client.Course)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Query session closed", map[string]interface{}{"course": client.Course})
		}
	}
}

// closeAll drops every session and closes its connection; each client's
// readPump then exits on its own.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for course, clients := range h.clients {
		for _, c := range clients {
			if c.Conn != nil {
				c.Conn.Close()
			}
		}
		delete(h.clients, course)
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Sessions counts open query sessions per course.
func (h *Hub) Sessions() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.clients))
	for course, clients := range h.clients {
		out[course] = len(clients)
	}
	return out
}

type clusterMessage struct {
	Instance string                 `json:"instance"`
	Change   events.DocumentChanged `json:"change"`
}

// AnnounceReload tells local sessions of the course that its documents changed
// and publishes the change to the other instances.
func (h *Hub) AnnounceReload(ctx context.Context, dc events.DocumentChanged) {
	h.notifyLocal(dc)

	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Instance: h.instanceID, Change: dc})
	if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to publish reload to cluster", map[string]interface{}{"course": dc.Course, "error": err.Error()})
	}
}

func (h *Hub) notifyLocal(dc events.DocumentChanged) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":   "document_changed",
		"course": dc.Course,
	})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for course, clients := range h.clients {
		if dc.Course != "" && course != dc.Course {
			continue
		}
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping notice", map[string]interface{}{"course": course})
			}
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleClusterMessage(ctx, []byte(msg.Payload))
		}
	}
}

func (h *Hub) handleClusterMessage(ctx context.Context, payload []byte) {
	var cm clusterMessage
	if err := json.Unmarshal(payload, &cm); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if cm.Instance == h.instanceID {
		return
	}

	dc := cm.Change
	dc.Origin = events.OriginCluster
	h.logger.Info("Hub", "Reload announced by peer", map[string]interface{}{"course": dc.Course, "peer": cm.Instance})
	h.notifyLocal(dc)
	if h.onReload != nil {
		h.onReload(ctx, dc)
	}
}
