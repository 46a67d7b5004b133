package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Pending orders older than this are expired by the cleanup job
const PendingOrderTTL = 24 * time.Hour

// Inbound webhook dedup window (duplicate Twilio deliveries are dropped)
const WebhookDedupTTL = 10 * time.Minute

// Default rate limit for the business events API
const DefaultRateLimitPerMin = 60

// Outbound call timeouts
const (
	AIRequestTimeout       = 30 * time.Second
	DeliveryRequestTimeout = 15 * time.Second
)

// Upper bound for handling one inbound message end to end, AI and
// delivery included
const ProcessingTimeout = 60 * time.Second
