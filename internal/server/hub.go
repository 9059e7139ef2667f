package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/report"
)

const sendBufferSize = 256

// Hub is a report.Reporter that broadcasts every report to the connected
// clients as JSON. A client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	dropped atomic.Uint64
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Report(m report.Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(m.Kind)).Msg("failed to encode report")
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("remote", c.remote).Int("clients", n).Msg("client connected")
}

// remove closes the client's send channel, which ends its write loop.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("remote", c.remote).Int("clients", n).Msg("client disconnected")
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped is the number of messages a slow client missed.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
