package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tejzpr/fieldschema-mcp/internal/events"
)

type relayedEvent struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// RelayEvent forwards one event to the primary server at base, which
// republishes it to its SSE subscribers.
func RelayEvent(client *http.Client, base string, ev events.Event) error {
	payload, err := json.Marshal(relayedEvent{Name: ev.Name, Data: ev.Data})
	if err != nil {
		return err
	}

	resp, err := client.Post(base+"/api/events", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to reach primary server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("primary server returned status %d", resp.StatusCode)
	}
	return nil
}

// Relay forwards every event published on b to the primary server at base
// until ctx is cancelled. Undeliverable events are logged and dropped.
func Relay(ctx context.Context, b *events.SSEBroker, base string) {
	client := &http.Client{Timeout: 5 * time.Second}
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := RelayEvent(client, base, ev); err != nil {
				log.WithError(err).WithField("event", ev.Name).Warn("event not relayed")
			}
		}
	}
}

// handleRelayedEvent republishes an event sent by a secondary process.
func handleRelayedEvent(w http.ResponseWriter, r *http.Request) {
	var ev relayedEvent
	if err := decode(r, &ev); err != nil {
		writeError(w, err)
		return
	}
	if ev.Name == "" || len(ev.Data) == 0 {
		writeError(w, badRequest("name and data are required"))
		return
	}
	events.Broker.Publish(ev.Name, ev.Data)
	w.WriteHeader(http.StatusAccepted)
}
