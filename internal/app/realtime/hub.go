// Package realtime pushes store events to connected terminals over
// WebSocket, so a second register sees a sale the moment the first one
// commits it.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/metrics"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/system"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBufferSize = 32
)

// Event is one message pushed to subscribers of a store.
type Event struct {
	Type    string    `json:"type"`
	StoreID string    `json:"store_id"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// Hub fans events out to WebSocket subscribers grouped by store.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	log         *logger.Logger
	upgrader    websocket.Upgrader
	closed      bool
}

var _ system.Service = (*Hub)(nil)

// NewHub creates a hub. Origins lists the browser origins allowed to
// connect; an empty list admits any origin, which suits single-shop
// LAN installs where terminals connect by IP.
func NewHub(log *logger.Logger, origins []string) *Hub {
	if log == nil {
		log = logger.NewDefault("realtime")
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

func (h *Hub) Name() string { return "realtime-hub" }

func (h *Hub) Start(context.Context) error {
	h.log.Info("realtime hub started")
	return nil
}

// Stop disconnects every subscriber and refuses new ones.
func (h *Hub) Stop(context.Context) error {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0)
	for _, set := range h.subscribers {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	h.log.Info("realtime hub stopped")
	return nil
}

// Publish sends an event to every subscriber of the store. Slow
// subscribers whose buffers are full miss the event rather than stall
// the publisher.
func (h *Hub) Publish(storeID, eventType string, payload any) {
	ev := Event{
		Type:    eventType,
		StoreID: storeID,
		Payload: payload,
		At:      time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[storeID] {
		select {
		case sub.send <- ev:
		default:
			h.log.WithField("store_id", storeID).Warn("subscriber lagging, dropping event")
		}
	}
}

// Subscribers reports the current connection count for a store.
func (h *Hub) Subscribers(storeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[storeID])
}

// Serve upgrades the request and streams the store's events until the
// client disconnects. Authentication and store scoping happen before
// the request reaches here.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, storeID string) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	sub := &subscriber{
		hub:     h,
		storeID: storeID,
		conn:    conn,
		send:    make(chan Event, sendBufferSize),
		done:    make(chan struct{}),
	}
	h.register(sub)

	go sub.writePump()
	sub.readPump()
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	set, ok := h.subscribers[sub.storeID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subscribers[sub.storeID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.SubscriberConnected()
	h.log.WithField("store_id", sub.storeID).Debug("subscriber connected")
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subscribers[sub.storeID]; ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subscribers, sub.storeID)
			}
		}
	}
	h.mu.Unlock()

	metrics.SubscriberDisconnected()
	h.log.WithField("store_id", sub.storeID).Debug("subscriber disconnected")
}

type subscriber struct {
	hub     *Hub
	storeID string
	conn    *websocket.Conn
	send    chan Event
	done    chan struct{}
	once    sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.unregister(s)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		s.conn.Close()
	})
}

// readPump discards inbound frames; the stream is one-way. It exists
// to notice closes and answer pings promptly.
func (s *subscriber) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
