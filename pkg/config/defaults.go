package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gearbase"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Lifecycle policy knobs. Backdating is off by default; privileged hosting
	// layers can widen it without touching the engine.
	DefaultBackdateLeniency = 0 * time.Second
	DefaultCheckoutGrace    = 15 * time.Minute

	// Advisory lock lifetime for check-then-reserve sequences.
	DefaultAssetLockTTL = 10 * time.Second

	// Cap on a resolved select-all set when take_all is not requested.
	DefaultBulkMaxItems = 1000

	DefaultPaginationLimit = 100

	DefaultEventsEnabled = false
	DefaultEventsTopic   = "gearbase.booking-events"
	DefaultEventsDLQ     = ""
)
