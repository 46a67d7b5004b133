package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/config"
	"github.com/inxsource/sales-assistant-go/internal/util"
)

// Deduper suppresses duplicate webhook deliveries. The Redis client is the
// production implementation.
type Deduper interface {
	MarkSeen(ctx context.Context, messageSID string, ttl time.Duration) (bool, error)
}

// Processor runs the conversation pipeline for one inbound message.
type Processor interface {
	HandleIncoming(ctx context.Context, customerPhone, toNumber, body string) error
}

type WebhookHandler struct {
	processor Processor
	deduper   Deduper
}

func NewWebhookHandler(processor Processor, deduper Deduper) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		deduper:   deduper,
	}
}

// ServeHTTP accepts a Twilio WhatsApp webhook. It acknowledges immediately
// and processes the message in the background; the reply goes out through
// the Twilio API, not the webhook response.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("invalid webhook request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	from := util.NormalizePhone(r.PostForm.Get("From"))
	to := util.NormalizePhone(r.PostForm.Get("To"))
	body := r.PostForm.Get("Body")
	messageSID := r.PostForm.Get("MessageSid")

	if from == "" || body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing From or Body"})
		return
	}

	log.Info().
		Str("from", from).
		Str("messageSid", messageSID).
		Str("body", truncate(body, 50)).
		Msg("received whatsapp webhook")

	if messageSID != "" {
		fresh, err := h.deduper.MarkSeen(r.Context(), messageSID, config.WebhookDedupTTL)
		if err != nil {
			log.Warn().Err(err).Str("messageSid", messageSID).Msg("dedup check failed, processing anyway")
		} else if !fresh {
			log.Info().Str("messageSid", messageSID).Msg("duplicate webhook delivery dropped")
			h.acknowledge(w)
			return
		}
	}

	// Twilio retries on slow responses, so the pipeline runs detached
	// from the request context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ProcessingTimeout)
		defer cancel()

		if err := h.processor.HandleIncoming(ctx, from, to, body); err != nil {
			log.Error().Err(err).
				Str("from", from).
				Str("messageSid", messageSID).
				Msg("failed to process message")
		}
	}()

	h.acknowledge(w)
}

func (h *WebhookHandler) acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response></Response>"))
}
