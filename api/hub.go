package api

import (
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardsync/board"
	"boardsync/domain"
)

// Publisher forwards locally-originated board events to other instances.
type Publisher interface {
	Publish(payload []byte)
}

type frame struct {
	client *Client
	data   []byte
}

// Hub owns the set of open connections and fans server events out to them.
// All inbound messages, registrations and disconnects are funneled through
// Run's single goroutine, so every message is dispatched to completion --
// store mutation plus all resulting broadcasts -- before the next one starts.
type Hub struct {
	dispatcher *Dispatcher
	logger     *log.Logger
	publisher  Publisher

	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan frame
	remote     chan []byte
	quit       chan struct{}
}

func NewHub(store *board.TaskStore, registry *board.Registry, logger *log.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan frame, 256),
		remote:     make(chan []byte, 256),
		quit:       make(chan struct{}),
	}
	h.dispatcher = NewDispatcher(store, registry, h, logger)
	return h
}

// SetPublisher attaches a cross-instance event publisher. Must be called
// before Run.
func (h *Hub) SetPublisher(p Publisher) {
	h.publisher = p
}

// Run serializes all connection and message handling. It returns when Stop
// is called.
func (h *Hub) Run() {
	h.logger.Info("board hub started")
	defer h.logger.Info("board hub stopped")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.dispatcher.HandleConnect(c)
			h.logger.WithField("conn_id", c.id).Debug("client registered")

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			if ok {
				h.dispatcher.HandleDisconnect(c)
				h.logger.WithField("conn_id", c.id).Debug("client unregistered")
			}

		case f := <-h.inbound:
			h.dispatcher.HandleMessage(f.client, f.data)

		case payload := <-h.remote:
			h.deliver(payload, nil)

		case <-h.quit:
			return
		}
	}
}

// Stop terminates the Run loop.
func (h *Hub) Stop() {
	close(h.quit)
}

// Register hands a freshly-upgraded connection to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a closing connection; called from the client's read
// pump exactly once per connection.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast serializes the message once and delivers it to every open
// connection, skipping exclude when non-nil. Task and activity events are
// also published for other instances.
func (h *Hub) Broadcast(v any, exclude *Client) {
	payload, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		h.logger.Errorf("marshal broadcast: %v", err)
		return
	}
	h.deliver(payload, exclude)
	if h.publisher != nil && relayable(v) {
		h.publisher.Publish(payload)
	}
}

// SendTo delivers a message to a single connection.
func (h *Hub) SendTo(c *Client, v any) {
	payload, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		h.logger.Errorf("marshal send: %v", err)
		return
	}
	c.enqueue(payload, h.logger)
}

// RelayRemote injects a pre-serialized event from another instance into the
// local fan-out. Delivery runs on the hub goroutine to keep ordering with
// local dispatches.
func (h *Hub) RelayRemote(payload []byte) {
	select {
	case h.remote <- payload:
	default:
		h.logger.Warn("remote relay buffer full, dropping event")
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(payload []byte, exclude *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c == exclude {
			continue
		}
		c.enqueue(payload, h.logger)
	}
}

// relayable reports whether a server event is meaningful outside this
// instance. Presence messages reference local connections only and stay
// local.
func relayable(v any) bool {
	switch v.(type) {
	case domain.TaskAdded, domain.TaskUpdated, domain.TaskDeleted, domain.TaskMoved, domain.Activity:
		return true
	}
	return false
}
