// Package realtime consolidates change notifications behind a single
// subscription manager. Controllers publish an event after every
// successful write; the hub invalidates the dependent cache keys and
// pushes the event to connected websocket clients. There is no merge or
// conflict logic here: the database stays the source of truth and clients
// re-fetch whatever was invalidated.
package realtime

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Resource names used as dependency-map keys.
const (
	ResourceDeals         = "deals"
	ResourceStages        = "stages"
	ResourceListings      = "listings"
	ResourceSubmissions   = "submissions"
	ResourceNotifications = "notifications"
)

// Event describes one committed change. UserID scopes delivery: zero
// broadcasts to everyone, non-zero only to that user's connections.
type Event struct {
	Event    EventType `json:"event"`
	Resource string    `json:"resource"`
	ID       uint      `json:"id"`
	UserID   uint      `json:"-"`
}

// Hub maps resource types to the cache keys derived from them and fans
// events out to websocket subscribers.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]uint // conn -> user id
	deps  map[string][]string      // resource -> dependent cache key prefixes

	cache  *Cache
	logger *logrus.Logger
}

func NewHub(cache *Cache, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	h := &Hub{
		conns:  make(map[*websocket.Conn]uint),
		deps:   make(map[string][]string),
		cache:  cache,
		logger: logger,
	}

	// Default dependency wiring. Stage edits reshape the pipeline, so
	// they invalidate the deal views too.
	h.DependsOn(ResourceDeals, "analytics:pipeline", "deals:list")
	h.DependsOn(ResourceStages, "analytics:pipeline", "deals:list", "stages:list")
	h.DependsOn(ResourceListings, "listings:list")
	h.DependsOn(ResourceSubmissions, "submissions:list")
	return h
}

// DependsOn registers cache key prefixes invalidated by changes to a
// resource. Repeated calls append.
func (h *Hub) DependsOn(resource string, cacheKeyPrefixes ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[resource] = append(h.deps[resource], cacheKeyPrefixes...)
}

// DependenciesOf returns the registered prefixes for a resource.
func (h *Hub) DependenciesOf(resource string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.deps[resource]))
	copy(out, h.deps[resource])
	return out
}

// Publish invalidates dependent cache entries and notifies subscribers.
// Invalidation failures are logged, never propagated: a stale cache entry
// expires by TTL anyway.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	for _, prefix := range h.DependenciesOf(ev.Resource) {
		if err := h.cache.DeletePrefix(ctx, prefix); err != nil {
			h.logger.WithError(err).WithField("prefix", prefix).Warn("cache invalidation failed")
		}
	}
	h.broadcast(ev)
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns))
	for conn, userID := range h.conns {
		if ev.UserID == 0 || ev.UserID == userID {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.WithError(err).Debug("dropping dead websocket subscriber")
			h.Unregister(conn)
		}
	}
}

func (h *Hub) Register(conn *websocket.Conn, userID uint) {
	h.mu.Lock()
	h.conns[conn] = userID
	h.mu.Unlock()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// SubscriberCount reports connected clients, for the health endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HandleWS keeps one subscriber connection open until the client drops
// it. Incoming frames are read and discarded; the stream is one-way.
func (h *Hub) HandleWS(conn *websocket.Conn, userID uint) {
	h.Register(conn, userID)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
