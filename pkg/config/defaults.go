package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "clinicflow"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultWorkStart   = "09:00"
	DefaultWorkEnd     = "17:00"
	DefaultIntervalMin = 30
	DefaultDurationMin = 30

	DefaultBulkConcurrency = 4
	DefaultBulkMaxItems    = 200

	SlotLockMongo       = "mongo"
	SlotLockRedis       = "redis"
	DefaultSlotLockKind = SlotLockMongo
	DefaultSlotLockTTL  = 10 * time.Second

	ResolutionByCreation     = "creation"
	ResolutionConfirmedFirst = "confirmed-first"
	DefaultResolutionOrder   = ResolutionByCreation

	DefaultProviderCacheSize = 256
	DefaultProviderCacheTTL  = 5 * time.Minute

	DefaultEventsEnabled       = false
	DefaultRemindersTopic      = "appointment-reminders"
	DefaultScheduleEventsTopic = "schedule-events"
)
