package config

const (
	EnvConfigFile = "CONFIG_FILE"
	EnvDotEnvFile = "DOTENV_FILE"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvStorageBackend = "STORAGE_BACKEND"
	EnvUseMongoDB     = "USE_MONGODB"
	EnvDataDir        = "DATA_DIR"
	EnvSeedDir        = "SEED_DIR"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDBURI        = "MONGODB_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoOpTimeout    = "MONGO_OP_TIMEOUT"

	EnvJWTSecret         = "JWT_SECRET"
	EnvJWTExpiresIn      = "JWT_EXPIRES_IN"
	EnvAllowLegacyTokens = "AUTH_ALLOW_LEGACY_TOKENS"

	EnvRentalLockTTL = "RENTAL_LOCK_TTL"

	EnvKafkaBrokers             = "KAFKA_BROKERS"
	EnvKafkaRentalTopic         = "KAFKA_RENTAL_TOPIC"
	EnvKafkaProducerMaxAttempts = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaProducerRequireAcks = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaProducerCompression = "KAFKA_PRODUCER_COMPRESSION"
	EnvKafkaProducerAsync       = "KAFKA_PRODUCER_ASYNC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvTrustedProxies    = "TRUSTED_PROXIES"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
