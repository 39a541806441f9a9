// Package events fans state changes out to server-sent event subscribers.
package events

import (
	"encoding/json"
	"sync"

	"github.com/tejzpr/fieldschema-mcp/internal/logging"
)

// Event names published on the broker.
const (
	RequestTypeUpdated = "request-type-updated"
	RequestCreated     = "request-created"
	RequestUpdated     = "request-updated"
	HierarchyUpdated   = "hierarchy-updated"
)

// HierarchyChange is the payload of HierarchyUpdated.
type HierarchyChange struct {
	Kind          string `json:"kind"`
	ID            uint   `json:"id"`
	RequestTypeID uint   `json:"requestTypeId,omitempty"`
	Action        string `json:"action"`
}

// Hierarchy change actions.
const (
	ActionCreated     = "created"
	ActionDeleted     = "deleted"
	ActionActivated   = "activated"
	ActionDeactivated = "deactivated"
)

// ToggleAction names the action of a visibility change.
func ToggleAction(isActive bool) string {
	if isActive {
		return ActionActivated
	}
	return ActionDeactivated
}

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

type SSEBroker struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

var Broker = NewSSEBroker()

func NewSSEBroker() *SSEBroker {
	return &SSEBroker{clients: make(map[chan Event]struct{})}
}

func (b *SSEBroker) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *SSEBroker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish sends name with data encoded as JSON to every subscriber. Slow
// subscribers miss events rather than block the publisher.
func (b *SSEBroker) Publish(name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Component("sse").WithError(err).WithField("event", name).Warn("event not published")
		return
	}
	msg := Event{Name: name, Data: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
