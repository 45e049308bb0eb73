package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "agenda"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisEnabled  = false
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisDB       = 0
	DefaultSlotsCacheTTL = 30 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotGranularityMinutes = 15
	DefaultBookingLockTTL         = 45 * time.Second

	DefaultKafkaEnabled = false

	DefaultPaginationLimit = 100
)
