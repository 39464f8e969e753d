// Package ws streams query progress events to WebSocket clients.
package ws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/events"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *events.PubSub
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *events.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeQuery handles WebSocket connections for audit-query progress.
// Subscribes to the Redis channel for the job and forwards each
// progress event to the client as a text message.
func (h *Hub) ServeQuery(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	channel := auditquery.QueryChannel(jobID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// Publish sends an event payload to a Redis channel. Convenience
// wrapper for handlers that mutate query state.
func (h *Hub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := h.pubsub.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("ws.Hub.Publish: %w", err)
	}
	return nil
}
