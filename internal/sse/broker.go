package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/inxsource/sales-assistant-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types published on business conversation streams.
const (
	EventMessageReceived = "message_received"
	EventReplySent       = "reply_sent"
	EventOrderCreated    = "order_created"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	BusinessID string
	Events     chan Event
	Done       chan struct{}
}

// subscription is one business's client set plus the lifetime of the Redis
// pub/sub goroutine feeding it. done is closed when the last client leaves
// so a later Subscribe starts a fresh listener instead of doubling up.
type subscription struct {
	clients map[*Client]bool
	done    chan struct{}
}

// Broker fans conversation events out to the SSE clients watching a
// business. Events travel through Redis pub/sub so every process instance
// sees them regardless of which one handled the webhook.
type Broker struct {
	redis  *redisclient.Client
	subs   map[string]*subscription // keyed by businessID
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:  redisClient,
		subs:   make(map[string]*subscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Broker) Subscribe(businessID string) *Client {
	client := &Client{
		BusinessID: businessID,
		Events:     make(chan Event, 100),
		Done:       make(chan struct{}),
	}

	b.mu.Lock()
	sub := b.subs[businessID]
	if sub == nil {
		sub = &subscription{
			clients: make(map[*Client]bool),
			done:    make(chan struct{}),
		}
		b.subs[businessID] = sub
		go b.subscribeToRedis(businessID, sub.done)
	}
	sub.clients[client] = true
	clientCount := len(sub.clients)
	b.mu.Unlock()

	log.Info().
		Str("businessId", businessID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[client.BusinessID]
	if !ok || !sub.clients[client] {
		return
	}

	delete(sub.clients, client)
	close(client.Done)

	if len(sub.clients) == 0 {
		close(sub.done)
		delete(b.subs, client.BusinessID)
	}

	log.Info().
		Str("businessId", client.BusinessID).
		Int("clientCount", len(sub.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, businessID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.EventChannel(businessID)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(businessID string, done <-chan struct{}) {
	channel := redisclient.EventChannel(businessID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("businessId", businessID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case <-done:
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(businessID, event)
		}
	}
}

func (b *Broker) broadcast(businessID string, event Event) {
	b.mu.RLock()
	var clients []*Client
	if sub := b.subs[businessID]; sub != nil {
		for client := range sub.clients {
			clients = append(clients, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("businessId", businessID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		for client := range sub.clients {
			close(client.Done)
		}
	}
	b.subs = make(map[string]*subscription)
}

func (b *Broker) ClientCount(businessID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sub := b.subs[businessID]; sub != nil {
		return len(sub.clients)
	}
	return 0
}
