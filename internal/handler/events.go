package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/middleware"
	"github.com/inxsource/sales-assistant-go/internal/sse"
)

// EventsHandler streams conversation events to a business dashboard over
// SSE. Auth middleware has already resolved the business.
type EventsHandler struct {
	broker *sse.Broker
}

func NewEventsHandler(broker *sse.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	business := middleware.GetBusiness(r.Context())
	if business == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(business.ID)
	defer h.broker.Unsubscribe(client)

	log.Info().
		Str("businessId", business.ID).
		Msg("sse connection established")

	h.sendEvent(w, flusher, "connected", map[string]any{
		"businessId":   business.ID,
		"businessName": business.Name,
	})

	ctx := r.Context()
	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("businessId", business.ID).
				Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().
				Str("businessId", business.ID).
				Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("businessId", business.ID).
					Msg("heartbeat write failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
