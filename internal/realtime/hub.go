package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes session events to other instances (cross-instance relay).
type Publisher interface {
	PublishSessionEvent(code, event string, payload []byte) error
}

// Subscriber subscribes to a session's channel and invokes handler for
// incoming events from other instances.
type Subscriber interface {
	SubscribeSession(code string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains session code -> set of connections and fans out events. It
// implements poll.Gateway: delivery is best-effort and never blocks (full
// client buffers drop the message). With a Publisher/Subscriber attached,
// broadcasts are mirrored through Redis to other instances.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*Client // session code -> handle -> client
	handles map[string]*Client            // handle -> client
	subs    map[string]func()             // cancel relay subscription per session
	logger  *zap.Logger
	pub     Publisher
	sub     Subscriber
}

// NewHub creates a hub. pub and sub may be nil for a local-only hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	return &Hub{
		rooms:   make(map[string]map[string]*Client),
		handles: make(map[string]*Client),
		subs:    make(map[string]func()),
		logger:  logger,
		pub:     pub,
		sub:     sub,
	}
}

// Register adds a connected client to the handle index.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.handles[c.Handle] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("handle", c.Handle))
}

// Unregister removes a client from the handle index and every room it joined.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.handles, c.Handle)
	for code := range c.rooms {
		h.leaveLocked(c.Handle, code)
	}
	c.rooms = make(map[string]bool)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("handle", c.Handle))
}

// JoinSession adds the handle's connection to a session room. The first
// member of a room starts the relay subscription for that session.
func (h *Hub) JoinSession(handle, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.handles[handle]
	if !ok {
		return
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeSession(code, func(event string, payload []byte) {
				h.deliverLocal(code, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[code] = cancel
			} else {
				h.logger.Warn("session relay subscribe failed", zap.String("session", code), zap.Error(err))
			}
		}
	}
	h.rooms[code][handle] = c
	c.rooms[code] = true
}

// LeaveSession removes the handle's connection from a session room. The relay
// subscription is cancelled when the last member leaves.
func (h *Hub) LeaveSession(handle, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.handles[handle]; ok {
		delete(c.rooms, code)
	}
	h.leaveLocked(handle, code)
}

func (h *Hub) leaveLocked(handle, code string) {
	m, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(m, handle)
	if len(m) == 0 {
		delete(h.rooms, code)
		if cancel, ok := h.subs[code]; ok {
			cancel()
			delete(h.subs, code)
		}
	}
}

// BroadcastToSession sends an event to every member of a session, and mirrors
// it to other instances when a publisher is attached.
func (h *Hub) BroadcastToSession(code, event string, payload interface{}) {
	data := marshal(payload)
	h.deliverLocal(code, event, data)
	if h.pub != nil {
		if err := h.pub.PublishSessionEvent(code, event, data); err != nil {
			h.logger.Warn("session relay publish failed", zap.String("session", code), zap.Error(err))
		}
	}
}

// SendToParticipant sends an event to one connection.
func (h *Hub) SendToParticipant(handle, event string, payload interface{}) {
	msg := WSMessage{Event: event, Data: marshal(payload)}
	h.mu.RLock()
	c, ok := h.handles[handle]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.enqueue(msg)
}

// MemberCount returns the number of connections in a session room.
func (h *Hub) MemberCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

func (h *Hub) deliverLocal(code, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[code]))
	for _, c := range h.rooms[code] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.enqueue(msg)
	}
}

func marshal(payload interface{}) json.RawMessage {
	switch v := payload.(type) {
	case []byte:
		return v
	case json.RawMessage:
		return v
	default:
		data, _ := json.Marshal(payload)
		return data
	}
}
