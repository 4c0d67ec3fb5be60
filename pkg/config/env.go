package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultWorkStart   = "DEFAULT_WORK_START"
	EnvDefaultWorkEnd     = "DEFAULT_WORK_END"
	EnvSlotIntervalMin    = "SLOT_INTERVAL_MIN"
	EnvDefaultDurationMin = "DEFAULT_DURATION_MIN"

	EnvBulkConcurrency = "BULK_CONCURRENCY"
	EnvBulkMaxItems    = "BULK_MAX_ITEMS"

	EnvSlotLockBackend = "SLOT_LOCK_BACKEND"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"

	EnvResolutionOrder = "RESOLUTION_ORDER"

	EnvProviderCacheSize = "PROVIDER_CACHE_SIZE"
	EnvProviderCacheTTL  = "PROVIDER_CACHE_TTL"

	EnvEventsEnabled       = "EVENTS_ENABLED"
	EnvRemindersTopic      = "REMINDERS_TOPIC"
	EnvScheduleEventsTopic = "SCHEDULE_EVENTS_TOPIC"
)
