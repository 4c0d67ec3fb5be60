package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clinicflow/pkg/client"
	"clinicflow/pkg/logger"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultWorkStart   string
	DefaultWorkEnd     string
	SlotIntervalMin    int
	DefaultDurationMin int

	BulkConcurrency int
	BulkMaxItems    int

	SlotLockBackend string
	SlotLockTTL     time.Duration

	ResolutionOrder string

	ProviderCacheSize int
	ProviderCacheTTL  time.Duration

	EventsEnabled       bool
	RemindersTopic      string
	ScheduleEventsTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultWorkStart:   getEnvStr(EnvDefaultWorkStart, DefaultWorkStart),
		DefaultWorkEnd:     getEnvStr(EnvDefaultWorkEnd, DefaultWorkEnd),
		SlotIntervalMin:    getEnvNum(EnvSlotIntervalMin, DefaultIntervalMin),
		DefaultDurationMin: getEnvNum(EnvDefaultDurationMin, DefaultDurationMin),

		BulkConcurrency: getEnvNum(EnvBulkConcurrency, DefaultBulkConcurrency),
		BulkMaxItems:    getEnvNum(EnvBulkMaxItems, DefaultBulkMaxItems),

		SlotLockBackend: strings.ToLower(getEnvStr(EnvSlotLockBackend, DefaultSlotLockKind)),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		ResolutionOrder: strings.ToLower(getEnvStr(EnvResolutionOrder, DefaultResolutionOrder)),

		ProviderCacheSize: getEnvNum(EnvProviderCacheSize, DefaultProviderCacheSize),
		ProviderCacheTTL:  getEnvDuration(EnvProviderCacheTTL, DefaultProviderCacheTTL),

		EventsEnabled:       getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		RemindersTopic:      getEnvStr(EnvRemindersTopic, DefaultRemindersTopic),
		ScheduleEventsTopic: getEnvStr(EnvScheduleEventsTopic, DefaultScheduleEventsTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if !clockRegex.MatchString(cfg.DefaultWorkStart) {
		errors = append(errors, fmt.Sprintf("DefaultWorkStart must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultWorkStart))
	}
	if !clockRegex.MatchString(cfg.DefaultWorkEnd) {
		errors = append(errors, fmt.Sprintf("DefaultWorkEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultWorkEnd))
	}
	if clockRegex.MatchString(cfg.DefaultWorkStart) && clockRegex.MatchString(cfg.DefaultWorkEnd) && cfg.DefaultWorkEnd <= cfg.DefaultWorkStart {
		errors = append(errors, fmt.Sprintf("DefaultWorkEnd (%s) must be after DefaultWorkStart (%s)", cfg.DefaultWorkEnd, cfg.DefaultWorkStart))
	}
	if cfg.SlotIntervalMin <= 0 || cfg.SlotIntervalMin > 240 {
		errors = append(errors, fmt.Sprintf("SlotIntervalMin must be between 1 and 240, got: %d", cfg.SlotIntervalMin))
	}
	if cfg.DefaultDurationMin <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultDurationMin must be positive, got: %d", cfg.DefaultDurationMin))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	switch cfg.SlotLockBackend {
	case SlotLockMongo:
	case SlotLockRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when SlotLockBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("SlotLockBackend must be '%s' or '%s', got: %s", SlotLockMongo, SlotLockRedis, cfg.SlotLockBackend))
	}
	if cfg.SlotLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be positive, got: %s", cfg.SlotLockTTL))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.BulkConcurrency <= 0 {
		errors = append(errors, fmt.Sprintf("BulkConcurrency must be positive, got: %d", cfg.BulkConcurrency))
	}
	if cfg.BulkMaxItems <= 0 {
		errors = append(errors, fmt.Sprintf("BulkMaxItems must be positive, got: %d", cfg.BulkMaxItems))
	}
	if cfg.ResolutionOrder != ResolutionByCreation && cfg.ResolutionOrder != ResolutionConfirmedFirst {
		errors = append(errors, fmt.Sprintf("ResolutionOrder must be '%s' or '%s', got: %s", ResolutionByCreation, ResolutionConfirmedFirst, cfg.ResolutionOrder))
	}
	if cfg.ProviderCacheSize <= 0 {
		errors = append(errors, fmt.Sprintf("ProviderCacheSize must be positive, got: %d", cfg.ProviderCacheSize))
	}
	if cfg.ProviderCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("ProviderCacheTTL must be positive, got: %s", cfg.ProviderCacheTTL))
	}

	if cfg.EventsEnabled {
		if cfg.RemindersTopic == "" {
			errors = append(errors, "RemindersTopic cannot be empty when events are enabled")
		}
		if cfg.ScheduleEventsTopic == "" {
			errors = append(errors, "ScheduleEventsTopic cannot be empty when events are enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_work_start", cfg.DefaultWorkStart,
		"default_work_end", cfg.DefaultWorkEnd,
		"slot_interval_min", cfg.SlotIntervalMin,
		"default_duration_min", cfg.DefaultDurationMin,
		"bulk_concurrency", cfg.BulkConcurrency,
		"bulk_max_items", cfg.BulkMaxItems,
		"slot_lock_backend", cfg.SlotLockBackend,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"resolution_order", cfg.ResolutionOrder,
		"provider_cache_size", cfg.ProviderCacheSize,
		"provider_cache_ttl", cfg.ProviderCacheTTL,
		"events_enabled", cfg.EventsEnabled,
		"reminders_topic", cfg.RemindersTopic,
		"schedule_events_topic", cfg.ScheduleEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
