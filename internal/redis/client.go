package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// MarkSeen records a webhook message SID and reports whether it was new.
// Twilio retries deliveries; a false return means the SID already arrived
// inside the dedup window and the message should be dropped.
func (c *Client) MarkSeen(ctx context.Context, messageSID string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, dedupKey(messageSID), 1, ttl).Result()
}

func dedupKey(messageSID string) string {
	return fmt.Sprintf("webhook:seen:%s", messageSID)
}

// EventChannel names the pub/sub channel conversation events for a business
// are fanned out on.
func EventChannel(businessID string) string {
	return fmt.Sprintf("events:%s", businessID)
}
