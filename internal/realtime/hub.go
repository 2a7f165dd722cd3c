package realtime

import (
	"context"
	"strings"
	"sync"

	"kvittera/internal/events"
	"kvittera/internal/storage"
)

// Hub maintains the set of active clients and fans committed sync events
// out to them. It implements events.Publisher so the engine can feed it
// directly.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *events.SyncEvent
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *events.SyncEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Publish queues a sync event for broadcast. Events are dropped when the
// hub's buffer is full; realtime delivery is best effort.
func (h *Hub) Publish(_ context.Context, event *events.SyncEvent) error {
	select {
	case h.broadcast <- event:
	default:
	}
	return nil
}

// Run dispatches registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

func (h *Hub) dispatch(event *events.SyncEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.mu.Lock()
		for subID, sub := range client.subscriptions {
			if !matches(sub, event) {
				continue
			}
			msg := BaseMessage{
				Type: TypeEvent,
				Payload: mustMarshal(EventPayload{
					SubID: subID,
					Event: mustMarshal(event),
				}),
			}
			select {
			case client.send <- msg:
			default:
				// Slow consumer, skip this event for it
			}
		}
		client.mu.Unlock()
	}
}

// matches checks the subscription filter against an event. The owner filter
// matches the event's owner; the code filter matches any delta key for that
// code in either scope.
func matches(sub SubscribePayload, event *events.SyncEvent) bool {
	if sub.OwnerID != "" && sub.OwnerID != event.OwnerID {
		return false
	}
	if len(sub.Codes) == 0 {
		return true
	}
	for _, code := range sub.Codes {
		if _, ok := event.Deltas[storage.CounterKey{Scope: storage.GlobalScope, Code: code}.String()]; ok {
			return true
		}
		for key := range event.Deltas {
			if strings.HasSuffix(key, "|"+code) {
				return true
			}
		}
	}
	return false
}
