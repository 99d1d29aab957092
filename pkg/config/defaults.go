package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tixgate"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Per-event advisory lock: how long an abandoned lock survives, how
	// long a caller waits for a contended lock before giving up, and how
	// often it retries while waiting.
	DefaultLockTTL           = 10 * time.Second
	DefaultLockWaitTimeout   = 2 * time.Second
	DefaultLockRetryInterval = 50 * time.Millisecond

	// How long a notified waitlist entry's requested tickets stay reserved
	// against admissible capacity before the hold lapses.
	DefaultNotifyHoldTTL = 15 * time.Minute

	DefaultMaxTicketsPerBooking = 10
)
